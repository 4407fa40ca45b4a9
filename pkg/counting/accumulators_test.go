package counting

import (
	"testing"
	"time"
)

func TestRawAccumulatorsSumsDoors(t *testing.T) {
	event := &PassengerEvent{
		VehicleID:   "BUS-001",
		Door1In:     4,
		Door1Out:    2,
		Door1Block:  1,
		Door2In:     3,
		Door2Out:    5,
		Door2Block:  0,
		Door3In:     2,
		Door3Out:    1,
		Door3Block:  2,
		CheckinTime: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	raw := RawAccumulators(event)

	if raw.TotalIn != 9 {
		t.Fatalf("TotalIn = %d, want 9", raw.TotalIn)
	}
	if raw.TotalOut != 8 {
		t.Fatalf("TotalOut = %d, want 8", raw.TotalOut)
	}
	if raw.TotalBlock != 3 {
		t.Fatalf("TotalBlock = %d, want 3", raw.TotalBlock)
	}
	if raw.Door1In != 4 || raw.Door2In != 3 {
		t.Fatalf("door breakdown = %d/%d, want 4/3", raw.Door1In, raw.Door2In)
	}
}

func TestNetAgainstClampsAtZero(t *testing.T) {
	raw := Accumulators{TotalIn: 5, TotalOut: 20, Door1In: 5, Door1Out: 12, Door2Out: 8}
	previous := Accumulators{TotalIn: 10, TotalOut: 15, Door1In: 7, Door1Out: 10, Door2Out: 5}

	net := raw.NetAgainst(previous)

	if net.TotalIn != 0 {
		t.Errorf("TotalIn = %d, want 0 (counter reset must clamp)", net.TotalIn)
	}
	if net.TotalOut != 5 {
		t.Errorf("TotalOut = %d, want 5", net.TotalOut)
	}
	if net.Door1In != 0 {
		t.Errorf("Door1In = %d, want 0", net.Door1In)
	}
	if net.Door1Out != 2 {
		t.Errorf("Door1Out = %d, want 2", net.Door1Out)
	}
	if net.Door2Out != 3 {
		t.Errorf("Door2Out = %d, want 3", net.Door2Out)
	}
}

func TestNetAgainstZeroPreviousEqualsRaw(t *testing.T) {
	raw := Accumulators{
		TotalIn: 9, TotalOut: 8, TotalBlock: 3,
		Door1In: 4, Door1Out: 2, Door1Block: 1,
		Door2In: 3, Door2Out: 5,
	}

	net := raw.NetAgainst(Accumulators{})

	if net != raw {
		t.Fatalf("net = %+v, want raw %+v", net, raw)
	}
}

func TestNetAgainstIdenticalRawIsZero(t *testing.T) {
	raw := Accumulators{
		TotalIn: 9, TotalOut: 8, TotalBlock: 3,
		Door1In: 4, Door1Out: 2, Door1Block: 1,
		Door2In: 3, Door2Out: 5,
	}

	net := raw.NetAgainst(raw)

	if net != (Accumulators{}) {
		t.Fatalf("replayed raw values net = %+v, want all zero", net)
	}
}

func TestAnyMovementAtLeast(t *testing.T) {
	tests := []struct {
		name string
		acc  Accumulators
		want bool
	}{
		{"all below", Accumulators{TotalIn: 149, Door1In: 10, Door2Out: 20}, false},
		{"total in at threshold", Accumulators{TotalIn: 150}, true},
		{"door2 out above", Accumulators{Door2Out: 200}, true},
		{"block counters ignored", Accumulators{TotalBlock: 500, Door1Block: 500, Door2Block: 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.acc.AnyMovementAtLeast(150); got != tt.want {
				t.Fatalf("AnyMovementAtLeast(150) = %v, want %v", got, tt.want)
			}
		})
	}
}
