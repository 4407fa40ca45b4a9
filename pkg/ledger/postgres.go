package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aforo/aforo/pkg/counting"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger implements the Ledger port on top of a pgx connection pool.
// The per-vehicle lock is a FOR UPDATE row lock on the vehicles table, held
// until the transaction ends.
type PostgresLedger struct {
	Pool *pgxpool.Pool

	// LockTimeout bounds how long LockVehicle may wait for the row lock.
	LockTimeout time.Duration
}

const defaultLockTimeout = 5 * time.Second

func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{
		Pool:        pool,
		LockTimeout: defaultLockTimeout,
	}
}

func (l *PostgresLedger) Begin(ctx context.Context) (Tx, error) {
	tx, err := l.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}

	timeout := l.LockTimeout
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}

	// lock_timeout is transaction local, so a contended vehicle lock fails
	// this transaction instead of stalling the consumer indefinitely.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", timeout.Milliseconds())); err != nil {
		tx.Rollback(ctx)
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockVehicle(ctx context.Context, vehicleID string) error {
	var locked string
	err := t.tx.QueryRow(ctx,
		`SELECT vehicle_id FROM vehicles WHERE vehicle_id = $1 FOR UPDATE`,
		vehicleID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		// Unknown vehicles have no row to lock; existence is checked next.
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock vehicle %s: %w", vehicleID, err)
	}

	return nil
}

func (t *postgresTx) VehicleExists(ctx context.Context, vehicleID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM vehicles WHERE vehicle_id = $1)`,
		vehicleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("vehicle exists %s: %w", vehicleID, err)
	}

	return exists, nil
}

func (t *postgresTx) LastReadingAt(ctx context.Context, vehicleID string) (*time.Time, error) {
	var lastReading *time.Time
	err := t.tx.QueryRow(ctx,
		`SELECT last_reading_at FROM vehicles WHERE vehicle_id = $1`,
		vehicleID).Scan(&lastReading)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last reading for %s: %w", vehicleID, err)
	}

	return lastReading, nil
}

func (t *postgresTx) HasHistory(ctx context.Context, vehicleID string) (bool, error) {
	var hasHistory bool
	err := t.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM passenger_counts WHERE vehicle_id = $1)`,
		vehicleID).Scan(&hasHistory)
	if err != nil {
		return false, fmt.Errorf("history for %s: %w", vehicleID, err)
	}

	return hasHistory, nil
}

func (t *postgresTx) LastAccumulators(ctx context.Context, vehicleID string, until time.Time) (*LastRecorded, error) {
	var last LastRecorded
	err := t.tx.QueryRow(ctx,
		`SELECT trip_id,
		        raw_total_in, raw_total_out, raw_total_block,
		        raw_door1_in, raw_door1_out, raw_door1_block,
		        raw_door2_in, raw_door2_out, raw_door2_block
		 FROM passenger_counts
		 WHERE vehicle_id = $1 AND recorded_at <= $2
		 ORDER BY id DESC
		 LIMIT 1`,
		vehicleID, until).Scan(
		&last.TripID,
		&last.Accumulators.TotalIn, &last.Accumulators.TotalOut, &last.Accumulators.TotalBlock,
		&last.Accumulators.Door1In, &last.Accumulators.Door1Out, &last.Accumulators.Door1Block,
		&last.Accumulators.Door2In, &last.Accumulators.Door2Out, &last.Accumulators.Door2Block,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last accumulators for %s: %w", vehicleID, err)
	}

	return &last, nil
}

func (t *postgresTx) ActiveTripToday(ctx context.Context, vehicleID string) (*int64, error) {
	var tripID int64
	err := t.tx.QueryRow(ctx,
		`SELECT trip_id FROM vehicle_trips
		 WHERE vehicle_id = $1 AND active AND departure_at::date = CURRENT_DATE
		 ORDER BY trip_id DESC
		 LIMIT 1`,
		vehicleID).Scan(&tripID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active trip for %s: %w", vehicleID, err)
	}

	return &tripID, nil
}

func (t *postgresTx) LastControlPoint(ctx context.Context, tripID int64) (*ControlPoint, error) {
	var point ControlPoint
	err := t.tx.QueryRow(ctx,
		`SELECT point_id, position,
		        (count_in IS NULL OR count_out IS NULL OR count_block IS NULL) AS blank
		 FROM trip_control_points
		 WHERE trip_id = $1
		 ORDER BY position DESC
		 LIMIT 1`,
		tripID).Scan(&point.ID, &point.Position, &point.Blank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last control point of trip %d: %w", tripID, err)
	}

	return &point, nil
}

func (t *postgresTx) AddTripCounters(ctx context.Context, tripID int64, in int, out int, block int) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE vehicle_trips
		 SET total_in    = COALESCE(total_in, 0) + $1,
		     total_out   = COALESCE(total_out, 0) + $2,
		     total_block = COALESCE(total_block, 0) + $3
		 WHERE trip_id = $4`,
		in, out, block, tripID)
	if err != nil {
		return fmt.Errorf("add counters to trip %d: %w", tripID, err)
	}

	return nil
}

func (t *postgresTx) AddControlPointCounters(ctx context.Context, pointID int64, in int, out int, block int) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE trip_control_points
		 SET count_in    = COALESCE(count_in, 0) + $1,
		     count_out   = COALESCE(count_out, 0) + $2,
		     count_block = COALESCE(count_block, 0) + $3
		 WHERE point_id = $4`,
		in, out, block, pointID)
	if err != nil {
		return fmt.Errorf("add counters to control point %d: %w", pointID, err)
	}

	return nil
}

func (t *postgresTx) InsertDiscarded(ctx context.Context, event *counting.PassengerEvent, net counting.Accumulators, raw counting.Accumulators) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO passenger_counts_discarded (
		     recorded_at, vehicle_id,
		     raw_total_in, net_total_in, raw_total_out, net_total_out, raw_total_block, net_total_block,
		     latitude, longitude,
		     raw_door1_in, raw_door1_out, raw_door1_block, net_door1_in, net_door1_out, net_door1_block,
		     raw_door2_in, raw_door2_out, raw_door2_block, net_door2_in, net_door2_out, net_door2_block
		 ) VALUES (NOW(), $1, $2, $3, $4, $5, $6, $7, $8, $9,
		           $10, $11, $12, $13, $14, $15,
		           $16, $17, $18, $19, $20, $21)`,
		event.VehicleID,
		raw.TotalIn, net.TotalIn, raw.TotalOut, net.TotalOut, raw.TotalBlock, net.TotalBlock,
		event.Latitude, event.Longitude,
		raw.Door1In, raw.Door1Out, raw.Door1Block, net.Door1In, net.Door1Out, net.Door1Block,
		raw.Door2In, raw.Door2Out, raw.Door2Block, net.Door2In, net.Door2Out, net.Door2Block,
	)
	if err != nil {
		return fmt.Errorf("insert discarded count for %s: %w", event.VehicleID, err)
	}

	return nil
}

func (t *postgresTx) InsertEvent(ctx context.Context, event *counting.PassengerEvent, tripID *int64, pointID *int64, net counting.Accumulators, raw counting.Accumulators) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO passenger_counts (
		     recorded_at, vehicle_id,
		     raw_total_in, net_total_in, raw_total_out, net_total_out, raw_total_block, net_total_block,
		     latitude, longitude, trip_id, point_id,
		     raw_door1_in, raw_door1_out, raw_door1_block, net_door1_in, net_door1_out, net_door1_block,
		     raw_door2_in, raw_door2_out, raw_door2_block, net_door2_in, net_door2_out, net_door2_block
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		           $13, $14, $15, $16, $17, $18,
		           $19, $20, $21, $22, $23, $24)`,
		event.CheckinTime, event.VehicleID,
		raw.TotalIn, net.TotalIn, raw.TotalOut, net.TotalOut, raw.TotalBlock, net.TotalBlock,
		event.Latitude, event.Longitude, tripID, pointID,
		raw.Door1In, raw.Door1Out, raw.Door1Block, net.Door1In, net.Door1Out, net.Door1Block,
		raw.Door2In, raw.Door2Out, raw.Door2Block, net.Door2In, net.Door2Out, net.Door2Block,
	)
	if err != nil {
		return fmt.Errorf("insert count for %s: %w", event.VehicleID, err)
	}

	return nil
}

func (t *postgresTx) UpdateLastReading(ctx context.Context, vehicleID string, at time.Time) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE vehicles SET last_reading_at = $1 WHERE vehicle_id = $2`,
		at, vehicleID)
	if err != nil {
		return fmt.Errorf("update last reading for %s: %w", vehicleID, err)
	}

	return nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}
