package sim

import "log"

// A ClockGenerator computes the level of a free-running clock wire. The
// waveform starts low and stays low until StartTime. From StartTime on, the
// clock spends DutyCycle of each Period in its first half, which is high when
// PosedgeFirst is set.
type ClockGenerator struct {
	Period       VTime
	DutyCycle    float64
	StartTime    VTime
	PosedgeFirst bool
}

// DefaultClockGenerator returns a 10-unit clock with a 50% duty cycle that
// rises first at time 3.
func DefaultClockGenerator() ClockGenerator {
	return ClockGenerator{
		Period:       10,
		DutyCycle:    0.5,
		StartTime:    3,
		PosedgeFirst: true,
	}
}

// MustBeValid panics if the generator cannot produce a waveform.
func (g ClockGenerator) MustBeValid() {
	if g.Period < 2 {
		log.Panic("clock period must be at least 2 to hold both levels")
	}

	if g.DutyCycle <= 0 || g.DutyCycle >= 1 {
		log.Panic("clock duty cycle must be in (0, 1)")
	}

	if g.StartTime < 0 {
		log.Panic("clock start time cannot be negative")
	}
}

func (g ClockGenerator) firstHalf() VTime {
	h := VTime(float64(g.Period) * g.DutyCycle)
	if h < 1 {
		h = 1
	}

	if h >= g.Period {
		h = g.Period - 1
	}

	return h
}

// Level returns the clock level at the given time.
func (g ClockGenerator) Level(now VTime) bool {
	if now < g.StartTime {
		return !g.PosedgeFirst
	}

	phase := (now - g.StartTime) % g.Period
	inFirstHalf := phase < g.firstHalf()

	if g.PosedgeFirst {
		return inFirstHalf
	}

	return !inFirstHalf
}

// Cycle returns how many rising edges have happened up to and including now.
func (g ClockGenerator) Cycle(now VTime) uint64 {
	if now < g.StartTime {
		return 0
	}

	elapsed := now - g.StartTime
	cycles := uint64(elapsed / g.Period)

	if g.PosedgeFirst {
		return cycles + 1
	}

	if elapsed%g.Period >= g.firstHalf() {
		return cycles + 1
	}

	return cycles
}

// IsRisingEdge tells if the clock rises exactly at now.
func (g ClockGenerator) IsRisingEdge(now VTime) bool {
	if now < g.StartTime {
		return false
	}

	if now == g.StartTime {
		return g.PosedgeFirst
	}

	return g.Level(now) && !g.Level(now-1)
}
