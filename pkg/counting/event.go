package counting

import (
	"time"
)

// PassengerEvent is a single cumulative door-counter reading reported by a
// vehicle. Door counters are the totals since the device last reset, not
// increments.
type PassengerEvent struct {
	VehicleID string `json:"vehicleID"`

	Door1In    int `json:"door1_in"`
	Door1Out   int `json:"door1_out"`
	Door1Block int `json:"door1_block"`

	Door2In    int `json:"door2_in"`
	Door2Out   int `json:"door2_out"`
	Door2Block int `json:"door2_block"`

	Door3In    int `json:"door3_in"`
	Door3Out   int `json:"door3_out"`
	Door3Block int `json:"door3_block"`

	CheckinTime time.Time `json:"checkin_time"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
