package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/aforo/aforo/pkg/config"
	"github.com/aforo/aforo/pkg/counting"
	"github.com/aforo/aforo/pkg/ledger"
	"github.com/aforo/aforo/pkg/processor"
)

// stubLedger knows no vehicles, so decodable payloads resolve as NOT_FOUND;
// with beginErr set every event resolves as ERROR.
type stubLedger struct {
	beginErr error
}

func (l *stubLedger) Begin(ctx context.Context) (ledger.Tx, error) {
	if l.beginErr != nil {
		return nil, l.beginErr
	}

	return &stubTx{}, nil
}

type stubTx struct{}

func (t *stubTx) LockVehicle(ctx context.Context, vehicleID string) error { return nil }
func (t *stubTx) VehicleExists(ctx context.Context, vehicleID string) (bool, error) {
	return false, nil
}
func (t *stubTx) LastReadingAt(ctx context.Context, vehicleID string) (*time.Time, error) {
	return nil, nil
}
func (t *stubTx) HasHistory(ctx context.Context, vehicleID string) (bool, error) { return false, nil }
func (t *stubTx) LastAccumulators(ctx context.Context, vehicleID string, until time.Time) (*ledger.LastRecorded, error) {
	return nil, nil
}
func (t *stubTx) ActiveTripToday(ctx context.Context, vehicleID string) (*int64, error) {
	return nil, nil
}
func (t *stubTx) LastControlPoint(ctx context.Context, tripID int64) (*ledger.ControlPoint, error) {
	return nil, nil
}
func (t *stubTx) AddTripCounters(ctx context.Context, tripID int64, in, out, block int) error {
	return nil
}
func (t *stubTx) AddControlPointCounters(ctx context.Context, pointID int64, in, out, block int) error {
	return nil
}
func (t *stubTx) InsertDiscarded(ctx context.Context, event *counting.PassengerEvent, net, raw counting.Accumulators) error {
	return nil
}
func (t *stubTx) InsertEvent(ctx context.Context, event *counting.PassengerEvent, tripID, pointID *int64, net, raw counting.Accumulators) error {
	return nil
}
func (t *stubTx) UpdateLastReading(ctx context.Context, vehicleID string, at time.Time) error {
	return nil
}
func (t *stubTx) Commit(ctx context.Context) error   { return nil }
func (t *stubTx) Rollback(ctx context.Context) error { return nil }

func testProcessor(l ledger.Ledger) *processor.Processor {
	return processor.New(&config.Config{
		SpikeTolerance:     150,
		SpikeWindowMinutes: 30,
		Timezone:           "UTC",
	}, l)
}

func TestConsumeAcksEmptyPayload(t *testing.T) {
	consumer := NewConsumer(0, testProcessor(&stubLedger{}), false)
	delivery := rmq.NewTestDeliveryString("   ")

	consumer.Consume(delivery)

	if delivery.State != rmq.Acked {
		t.Fatalf("state = %v, want Acked", delivery.State)
	}
}

func TestConsumeAcksUndecodablePayload(t *testing.T) {
	consumer := NewConsumer(0, testProcessor(&stubLedger{}), false)
	delivery := rmq.NewTestDeliveryString("{not json")

	consumer.Consume(delivery)

	if delivery.State != rmq.Acked {
		t.Fatalf("state = %v, undecodable payloads must always be acked", delivery.State)
	}
}

func TestConsumeAcksTerminalOutcome(t *testing.T) {
	consumer := NewConsumer(0, testProcessor(&stubLedger{}), false)
	delivery := rmq.NewTestDeliveryString(`{"vehicleID": "GHOST", "door1_in": 1, "checkin_time": "2026-03-01 10:00:00"}`)

	consumer.Consume(delivery)

	// Unknown vehicle resolves NOT_FOUND, which is terminal.
	if delivery.State != rmq.Acked {
		t.Fatalf("state = %v, want Acked", delivery.State)
	}
}

func TestConsumeLeavesRecoverableOutcomeUnacked(t *testing.T) {
	consumer := NewConsumer(0, testProcessor(&stubLedger{beginErr: errors.New("database down")}), false)
	delivery := rmq.NewTestDeliveryString(`{"vehicleID": "V1", "door1_in": 1, "checkin_time": "2026-03-01 10:00:00"}`)

	consumer.Consume(delivery)

	if delivery.State != rmq.Unacked {
		t.Fatalf("state = %v, recoverable failures must stay unacked for redelivery", delivery.State)
	}
}

func TestConsumeAckAlwaysVariant(t *testing.T) {
	consumer := NewConsumer(0, testProcessor(&stubLedger{beginErr: errors.New("database down")}), true)
	delivery := rmq.NewTestDeliveryString(`{"vehicleID": "V1", "door1_in": 1, "checkin_time": "2026-03-01 10:00:00"}`)

	consumer.Consume(delivery)

	if delivery.State != rmq.Acked {
		t.Fatalf("state = %v, ack-always variant must ack regardless of outcome", delivery.State)
	}
}
