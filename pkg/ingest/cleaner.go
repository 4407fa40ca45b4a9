package ingest

import (
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/aforo/aforo/pkg/redis_client"
	"github.com/rs/zerolog/log"
)

// StartCleaner periodically returns unacked deliveries from dead consumer
// connections to the ready list. This is the redelivery half of the
// at-least-once contract.
func StartCleaner() {
	cleaner := rmq.NewCleaner(redis_client.QueueConnection)

	log.Info().Str("queue", QueueName).Msg("Starting queue cleaner process")

	for range time.Tick(5 * time.Minute) {
		returned, err := cleaner.Clean()
		if err != nil {
			log.Error().Err(err).Msg("Failed to clean")
			continue
		}

		if returned != 0 {
			log.Info().Msgf("Returned %d deliveries", returned)
		}
	}
}
