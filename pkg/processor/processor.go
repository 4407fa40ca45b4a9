package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/aforo/aforo/pkg/config"
	"github.com/aforo/aforo/pkg/counting"
	"github.com/aforo/aforo/pkg/ledger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Processor turns cumulative door-counter readings into incremental counts
// attributed to the vehicle's scheduled trip. All ledger reads and writes for
// one event happen inside a single transaction under the vehicle's exclusive
// lock, so concurrent deliveries for the same vehicle serialise while distinct
// vehicles process in parallel.
type Processor struct {
	config *config.Config
	ledger ledger.Ledger

	location *time.Location

	now func() time.Time
}

func New(cfg *config.Config, l ledger.Ledger) *Processor {
	return &Processor{
		config:   cfg,
		ledger:   l,
		location: cfg.Location(),
		now:      time.Now,
	}
}

// Process runs the full decision sequence for one event and reports the
// outcome. It never returns an error; infrastructure failures become an ERROR
// outcome with the input echoed, and the transaction is rolled back so no
// partial state survives.
func (p *Processor) Process(ctx context.Context, event *counting.PassengerEvent) counting.Outcome {
	if event == nil {
		return counting.Outcome{
			Status:  counting.StatusInvalid,
			Message: "null event",
		}
	}

	eventLog := log.With().Str("vehicle", event.VehicleID).Logger()

	tx, err := p.ledger.Begin(ctx)
	if err != nil {
		eventLog.Error().Err(err).Msg("Failed to open ledger transaction")
		return errorOutcome(event, err)
	}

	outcome, err := p.run(ctx, tx, event, eventLog)
	if err != nil {
		tx.Rollback(ctx)
		eventLog.Error().Err(err).Msg("Failed to process event")
		return errorOutcome(event, err)
	}

	// OK and DISCARDED both wrote to the ledger; everything else has nothing
	// to keep.
	if outcome.Status == counting.StatusOK || outcome.Status == counting.StatusDiscarded {
		if err := tx.Commit(ctx); err != nil {
			eventLog.Error().Err(err).Msg("Failed to commit event")
			return errorOutcome(event, err)
		}
	} else {
		tx.Rollback(ctx)
	}

	return outcome
}

func (p *Processor) run(ctx context.Context, tx ledger.Tx, event *counting.PassengerEvent, eventLog zerolog.Logger) (counting.Outcome, error) {
	if err := tx.LockVehicle(ctx, event.VehicleID); err != nil {
		return counting.Outcome{}, err
	}

	exists, err := tx.VehicleExists(ctx, event.VehicleID)
	if err != nil {
		return counting.Outcome{}, err
	}
	if !exists {
		eventLog.Warn().Msg("Vehicle not found")
		return counting.Outcome{
			Status:  counting.StatusNotFound,
			Message: "vehicle not found",
			Event:   event,
		}, nil
	}

	raw := counting.RawAccumulators(event)

	lastReadingAt, err := tx.LastReadingAt(ctx, event.VehicleID)
	if err != nil {
		return counting.Outcome{}, err
	}

	hasHistory, err := tx.HasHistory(ctx, event.VehicleID)
	if err != nil {
		return counting.Outcome{}, err
	}

	var previous counting.Accumulators
	var previousTripID *int64

	if lastReadingAt != nil && hasHistory {
		last, err := tx.LastAccumulators(ctx, event.VehicleID, *lastReadingAt)
		if err != nil {
			return counting.Outcome{}, err
		}
		if last != nil {
			previous = last.Accumulators
			previousTripID = last.TripID
		}
	}

	net := raw.NetAgainst(previous)

	if p.isSpike(event.VehicleID, net, lastReadingAt) {
		if err := tx.InsertDiscarded(ctx, event, net, raw); err != nil {
			return counting.Outcome{}, err
		}

		eventLog.Warn().
			Int("netin", net.TotalIn).
			Int("netout", net.TotalOut).
			Int("tolerance", p.config.SpikeTolerance).
			Msg("Event discarded as spike")

		return counting.Outcome{
			Status:  counting.StatusDiscarded,
			Message: "event discarded as spike",
			Event:   event,
		}, nil
	}

	tripID, err := tx.ActiveTripToday(ctx, event.VehicleID)
	if err != nil {
		return counting.Outcome{}, err
	}

	var pointID *int64

	// No trip scheduled right now: a reading can still belong to the previous
	// trip if its final control point never received counts.
	if tripID == nil && lastReadingAt != nil && hasHistory && previousTripID != nil {
		point, err := tx.LastControlPoint(ctx, *previousTripID)
		if err != nil {
			return counting.Outcome{}, err
		}

		if point != nil && point.Blank {
			tripID = previousTripID
			pointID = &point.ID

			if err := tx.AddTripCounters(ctx, *tripID, net.TotalIn, net.TotalOut, net.TotalBlock); err != nil {
				return counting.Outcome{}, err
			}
			if err := tx.AddControlPointCounters(ctx, *pointID, net.TotalIn, net.TotalOut, net.TotalBlock); err != nil {
				return counting.Outcome{}, err
			}

			eventLog.Info().
				Int64("trip", *tripID).
				Int64("point", *pointID).
				Msg("Carried over to previous trip")
		}
	}

	if err := tx.InsertEvent(ctx, event, tripID, pointID, net, raw); err != nil {
		return counting.Outcome{}, err
	}

	if err := tx.UpdateLastReading(ctx, event.VehicleID, p.ledgerTimestamp(event)); err != nil {
		return counting.Outcome{}, err
	}

	eventLog.Info().
		Int("netin", net.TotalIn).
		Int("netout", net.TotalOut).
		Msg("Event processed")

	return counting.Outcome{
		Status:  counting.StatusOK,
		Message: "event processed successfully",
		Event:   event,
	}, nil
}

// isSpike applies the discard policy: a prior reading exists, net movement
// reaches the tolerance, the previous reading is inside the time window and
// the vehicle is not on the exclusion list.
func (p *Processor) isSpike(vehicleID string, net counting.Accumulators, lastReadingAt *time.Time) bool {
	if lastReadingAt == nil {
		return false
	}

	if !net.AnyMovementAtLeast(p.config.SpikeTolerance) {
		return false
	}

	elapsed := p.now().In(p.location).Sub(lastReadingAt.In(p.location))
	if elapsed.Minutes() >= float64(p.config.SpikeWindowMinutes) {
		return false
	}

	return !p.config.IsExcluded(vehicleID)
}

// ledgerTimestamp decides which timestamp updates the vehicle's last-reading
// field. Events more than a day away from processing time would corrupt the
// spike window maths on subsequent readings, so those fall back to now; the
// stored event row always keeps the original event timestamp.
func (p *Processor) ledgerTimestamp(event *counting.PassengerEvent) time.Time {
	now := p.now()

	skew := now.In(p.location).Sub(event.CheckinTime.In(p.location))
	if skew < 0 {
		skew = -skew
	}

	if int(skew.Hours()/24) > 1 {
		return now
	}

	return event.CheckinTime
}

func errorOutcome(event *counting.PassengerEvent, err error) counting.Outcome {
	return counting.Outcome{
		Status:  counting.StatusError,
		Message: fmt.Sprintf("internal error: %s", err),
		Event:   event,
	}
}
