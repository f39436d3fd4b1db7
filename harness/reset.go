package harness

import (
	"github.com/sarchlab/busharness/signal"
	"github.com/sarchlab/busharness/sim"
)

// PortResetN is the active-low reset line.
const PortResetN = "rst_n"

// ResetState is the state of a ResetSequencer.
type ResetState int

// The reset states. Active is terminal.
const (
	ResetStateReset ResetState = iota
	ResetStateActive
)

func (s ResetState) String() string {
	if s == ResetStateActive {
		return "active"
	}

	return "reset"
}

// A ResetSequencer holds the design in reset from time zero until the
// release time. While in reset it overrides every reset-scoped wire with its
// quiescent value.
type ResetSequencer struct {
	releaseTime sim.VTime
	state       ResetState
	releasedAt  sim.VTime
}

// NewResetSequencer creates a sequencer that releases at releaseTime. It
// panics if releaseTime is not positive.
func NewResetSequencer(releaseTime sim.VTime) *ResetSequencer {
	if releaseTime <= 0 {
		panic("reset release time must be positive")
	}

	return &ResetSequencer{releaseTime: releaseTime}
}

// State returns the current state.
func (r *ResetSequencer) State() ResetState {
	return r.state
}

// IsActive tells if reset has been released.
func (r *ResetSequencer) IsActive() bool {
	return r.state == ResetStateActive
}

// ReleasedAt returns the time of the release step. It is only meaningful
// once the sequencer is active.
func (r *ResetSequencer) ReleasedAt() sim.VTime {
	return r.releasedAt
}

// Update moves the sequencer to Active the first time now reaches the
// release time. It returns true on that step only.
func (r *ResetSequencer) Update(now sim.VTime) bool {
	if r.state == ResetStateActive || now < r.releaseTime {
		return false
	}

	r.state = ResetStateActive
	r.releasedAt = now

	return true
}

// Apply drives the reset line and, while in reset, forces the reset-scoped
// wires. It must run before any other writer of the step.
func (r *ResetSequencer) Apply(wires *signal.Table) error {
	if r.state == ResetStateActive {
		return wires.DriveBool(PortResetN, true, signal.WriterReset)
	}

	if err := wires.DriveBool(PortResetN, false, signal.WriterReset); err != nil {
		return err
	}

	for _, w := range wires.ResetScoped() {
		err := wires.Drive(w.Name, w.Quiescent, signal.WriterReset)
		if err != nil {
			return err
		}
	}

	return nil
}
