package database

import (
	"context"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		vehicle_id      TEXT PRIMARY KEY,
		last_reading_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS vehicle_trips (
		trip_id      BIGSERIAL PRIMARY KEY,
		vehicle_id   TEXT NOT NULL REFERENCES vehicles (vehicle_id),
		departure_at TIMESTAMPTZ NOT NULL,
		active       BOOLEAN NOT NULL DEFAULT FALSE,
		total_in     INTEGER,
		total_out    INTEGER,
		total_block  INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS trip_control_points (
		point_id    BIGSERIAL PRIMARY KEY,
		trip_id     BIGINT NOT NULL REFERENCES vehicle_trips (trip_id),
		position    INTEGER NOT NULL,
		count_in    INTEGER,
		count_out   INTEGER,
		count_block INTEGER
	)`,

	`CREATE TABLE IF NOT EXISTS passenger_counts (
		id          BIGSERIAL PRIMARY KEY,
		recorded_at TIMESTAMPTZ NOT NULL,
		vehicle_id  TEXT NOT NULL REFERENCES vehicles (vehicle_id),

		raw_total_in    INTEGER NOT NULL DEFAULT 0,
		net_total_in    INTEGER NOT NULL DEFAULT 0,
		raw_total_out   INTEGER NOT NULL DEFAULT 0,
		net_total_out   INTEGER NOT NULL DEFAULT 0,
		raw_total_block INTEGER NOT NULL DEFAULT 0,
		net_total_block INTEGER NOT NULL DEFAULT 0,

		latitude  DOUBLE PRECISION,
		longitude DOUBLE PRECISION,

		trip_id  BIGINT REFERENCES vehicle_trips (trip_id),
		point_id BIGINT REFERENCES trip_control_points (point_id),

		raw_door1_in    INTEGER NOT NULL DEFAULT 0,
		raw_door1_out   INTEGER NOT NULL DEFAULT 0,
		raw_door1_block INTEGER NOT NULL DEFAULT 0,
		net_door1_in    INTEGER NOT NULL DEFAULT 0,
		net_door1_out   INTEGER NOT NULL DEFAULT 0,
		net_door1_block INTEGER NOT NULL DEFAULT 0,

		raw_door2_in    INTEGER NOT NULL DEFAULT 0,
		raw_door2_out   INTEGER NOT NULL DEFAULT 0,
		raw_door2_block INTEGER NOT NULL DEFAULT 0,
		net_door2_in    INTEGER NOT NULL DEFAULT 0,
		net_door2_out   INTEGER NOT NULL DEFAULT 0,
		net_door2_block INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS passenger_counts_discarded (
		id          BIGSERIAL PRIMARY KEY,
		recorded_at TIMESTAMPTZ NOT NULL,
		vehicle_id  TEXT NOT NULL,

		raw_total_in    INTEGER NOT NULL DEFAULT 0,
		net_total_in    INTEGER NOT NULL DEFAULT 0,
		raw_total_out   INTEGER NOT NULL DEFAULT 0,
		net_total_out   INTEGER NOT NULL DEFAULT 0,
		raw_total_block INTEGER NOT NULL DEFAULT 0,
		net_total_block INTEGER NOT NULL DEFAULT 0,

		latitude  DOUBLE PRECISION,
		longitude DOUBLE PRECISION,

		raw_door1_in    INTEGER NOT NULL DEFAULT 0,
		raw_door1_out   INTEGER NOT NULL DEFAULT 0,
		raw_door1_block INTEGER NOT NULL DEFAULT 0,
		net_door1_in    INTEGER NOT NULL DEFAULT 0,
		net_door1_out   INTEGER NOT NULL DEFAULT 0,
		net_door1_block INTEGER NOT NULL DEFAULT 0,

		raw_door2_in    INTEGER NOT NULL DEFAULT 0,
		raw_door2_out   INTEGER NOT NULL DEFAULT 0,
		raw_door2_block INTEGER NOT NULL DEFAULT 0,
		net_door2_in    INTEGER NOT NULL DEFAULT 0,
		net_door2_out   INTEGER NOT NULL DEFAULT 0,
		net_door2_block INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE INDEX IF NOT EXISTS passenger_counts_vehicle_recorded
		ON passenger_counts (vehicle_id, recorded_at)`,

	`CREATE INDEX IF NOT EXISTS vehicle_trips_vehicle_departure
		ON vehicle_trips (vehicle_id, departure_at)`,

	`CREATE INDEX IF NOT EXISTS trip_control_points_trip_position
		ON trip_control_points (trip_id, position)`,
}

// Migrate creates the counting schema. Statements are idempotent so the
// command can be re-run on an existing database.
func Migrate(ctx context.Context) error {
	for _, statement := range schemaStatements {
		if _, err := Pool.Exec(ctx, statement); err != nil {
			return err
		}
	}

	return nil
}
