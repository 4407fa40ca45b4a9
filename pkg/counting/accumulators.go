package counting

// Accumulators holds in/out/block totals plus the per-door breakdown for
// doors 1 and 2. Door 3 contributes to the totals but is not tracked
// separately.
type Accumulators struct {
	TotalIn    int `json:"total_in"`
	TotalOut   int `json:"total_out"`
	TotalBlock int `json:"total_block"`

	Door1In    int `json:"door1_in"`
	Door1Out   int `json:"door1_out"`
	Door1Block int `json:"door1_block"`

	Door2In    int `json:"door2_in"`
	Door2Out   int `json:"door2_out"`
	Door2Block int `json:"door2_block"`
}

// RawAccumulators builds the cumulative accumulators reported by this event.
func RawAccumulators(event *PassengerEvent) Accumulators {
	return Accumulators{
		TotalIn:    event.Door1In + event.Door2In + event.Door3In,
		TotalOut:   event.Door1Out + event.Door2Out + event.Door3Out,
		TotalBlock: event.Door1Block + event.Door2Block + event.Door3Block,

		Door1In:    event.Door1In,
		Door1Out:   event.Door1Out,
		Door1Block: event.Door1Block,

		Door2In:    event.Door2In,
		Door2Out:   event.Door2Out,
		Door2Block: event.Door2Block,
	}
}

// NetAgainst returns the incremental counts attributable to this reading,
// given the previously recorded raw accumulators. Every field is clamped at
// zero so a device counter reset never produces negative counts.
func (raw Accumulators) NetAgainst(previous Accumulators) Accumulators {
	return Accumulators{
		TotalIn:    clampedDelta(raw.TotalIn, previous.TotalIn),
		TotalOut:   clampedDelta(raw.TotalOut, previous.TotalOut),
		TotalBlock: clampedDelta(raw.TotalBlock, previous.TotalBlock),

		Door1In:    clampedDelta(raw.Door1In, previous.Door1In),
		Door1Out:   clampedDelta(raw.Door1Out, previous.Door1Out),
		Door1Block: clampedDelta(raw.Door1Block, previous.Door1Block),

		Door2In:    clampedDelta(raw.Door2In, previous.Door2In),
		Door2Out:   clampedDelta(raw.Door2Out, previous.Door2Out),
		Door2Block: clampedDelta(raw.Door2Block, previous.Door2Block),
	}
}

// AnyMovementAtLeast reports whether any of the in/out totals or the door 1/2
// in/out counters reach the given threshold. Block counters and the door 3
// breakdown are not part of the spike check.
func (a Accumulators) AnyMovementAtLeast(threshold int) bool {
	return a.TotalIn >= threshold || a.Door1In >= threshold || a.Door2In >= threshold ||
		a.TotalOut >= threshold || a.Door1Out >= threshold || a.Door2Out >= threshold
}

func clampedDelta(current int, previous int) int {
	delta := current - previous
	if delta < 0 {
		return 0
	}

	return delta
}
