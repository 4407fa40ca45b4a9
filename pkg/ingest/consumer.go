package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/aforo/aforo/pkg/counting"
	"github.com/aforo/aforo/pkg/processor"
	"github.com/aforo/aforo/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

const QueueName = "passenger-events-queue"

const numConsumers = 2
const prefetchLimit = 20

func StartConsumers(proc *processor.Processor, ackAlways bool) {
	log.Info().Str("queue", QueueName).Msg("Starting passenger event consumers")

	queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
	if err != nil {
		panic(err)
	}
	if err := queue.StartConsuming(prefetchLimit, 1*time.Second); err != nil {
		panic(err)
	}

	for i := 0; i < numConsumers; i++ {
		startQueueConsumer(queue, i, proc, ackAlways)
	}
}

func startQueueConsumer(queue rmq.Queue, id int, proc *processor.Processor, ackAlways bool) {
	log.Info().Msgf("Starting %s consumer %d", QueueName, id)

	if _, err := queue.AddConsumer(fmt.Sprintf("%s-%d", QueueName, id), NewConsumer(id, proc, ackAlways)); err != nil {
		panic(err)
	}
}

// Consumer processes one delivery at a time so the acknowledgment decision is
// per message: terminal outcomes are acked, recoverable ones are left unacked
// for the cleaner to return to the queue. With ackAlways set every processed
// delivery is acked regardless of outcome (at-most-once).
type Consumer struct {
	id        int
	processor *processor.Processor
	ackAlways bool
}

func NewConsumer(id int, proc *processor.Processor, ackAlways bool) *Consumer {
	return &Consumer{
		id:        id,
		processor: proc,
		ackAlways: ackAlways,
	}
}

func (c *Consumer) Consume(delivery rmq.Delivery) {
	payload := delivery.Payload()

	if strings.TrimSpace(payload) == "" {
		log.Debug().Int("consumer", c.id).Msg("Empty payload, skipping")
		c.acknowledge(delivery)
		return
	}

	event, err := counting.DecodeInbound([]byte(payload))
	if err != nil {
		// Redelivery cannot fix a malformed payload, so these are always
		// acked and dropped.
		log.Error().Err(err).Int("consumer", c.id).Msg("Undecodable payload, skipping")
		c.acknowledge(delivery)
		return
	}

	outcome := c.processor.Process(context.Background(), event)

	if c.ackAlways || outcome.Status.Terminal() {
		log.Info().
			Int("consumer", c.id).
			Str("vehicle", event.VehicleID).
			Str("status", string(outcome.Status)).
			Msg("Processed event")
		c.acknowledge(delivery)
		return
	}

	log.Warn().
		Int("consumer", c.id).
		Str("vehicle", event.VehicleID).
		Str("message", outcome.Message).
		Msg("Recoverable failure, leaving event for redelivery")
}

func (c *Consumer) acknowledge(delivery rmq.Delivery) {
	if err := delivery.Ack(); err != nil {
		log.Error().Err(err).Int("consumer", c.id).Msg("Failed to ack delivery")
	}
}
