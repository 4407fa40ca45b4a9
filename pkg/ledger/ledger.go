package ledger

import (
	"context"
	"time"

	"github.com/aforo/aforo/pkg/counting"
)

// LastRecorded is the most recent accepted accumulator row for a vehicle,
// along with the trip it was attributed to (nil for orphan readings).
type LastRecorded struct {
	TripID       *int64
	Accumulators counting.Accumulators
}

// ControlPoint is an ordered stop within a trip. Blank means no passenger
// counts have been recorded against it yet.
type ControlPoint struct {
	ID       int64
	Position int
	Blank    bool
}

// Tx is one unit of ledger work. Every read and write between Begin and
// Commit sees and mutates a single consistent snapshot of the vehicle's
// state; Rollback discards all of it.
type Tx interface {
	// LockVehicle takes the exclusive per-vehicle lock, blocking other
	// transactions on the same vehicle until commit or rollback. The wait is
	// bounded; a timeout surfaces as an error.
	LockVehicle(ctx context.Context, vehicleID string) error

	VehicleExists(ctx context.Context, vehicleID string) (bool, error)
	LastReadingAt(ctx context.Context, vehicleID string) (*time.Time, error)
	HasHistory(ctx context.Context, vehicleID string) (bool, error)
	LastAccumulators(ctx context.Context, vehicleID string, until time.Time) (*LastRecorded, error)

	ActiveTripToday(ctx context.Context, vehicleID string) (*int64, error)
	LastControlPoint(ctx context.Context, tripID int64) (*ControlPoint, error)

	AddTripCounters(ctx context.Context, tripID int64, in int, out int, block int) error
	AddControlPointCounters(ctx context.Context, pointID int64, in int, out int, block int) error

	InsertDiscarded(ctx context.Context, event *counting.PassengerEvent, net counting.Accumulators, raw counting.Accumulators) error
	InsertEvent(ctx context.Context, event *counting.PassengerEvent, tripID *int64, pointID *int64, net counting.Accumulators, raw counting.Accumulators) error
	UpdateLastReading(ctx context.Context, vehicleID string, at time.Time) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ledger is the persistent per-vehicle state the processor reads and mutates.
type Ledger interface {
	Begin(ctx context.Context) (Tx, error)
}
