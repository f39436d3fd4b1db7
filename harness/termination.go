package harness

import (
	"github.com/sarchlab/busharness/dut"
	"github.com/sarchlab/busharness/sim"
)

// A TerminationPolicy decides when the step loop stops. A design that
// finishes wins over the deadline in the same step.
type TerminationPolicy struct {
	deadline sim.VTime
}

// NewTerminationPolicy creates a policy with the given deadline.
func NewTerminationPolicy(deadline sim.VTime) *TerminationPolicy {
	return &TerminationPolicy{deadline: deadline}
}

// Deadline returns the time at which the run is given up.
func (p *TerminationPolicy) Deadline() sim.VTime {
	return p.deadline
}

// Check returns the outcome if the loop must stop after this step, or
// OutcomeRunning.
func (p *TerminationPolicy) Check(now sim.VTime, model dut.DUT) Outcome {
	if model.Finished() {
		return OutcomeFinished
	}

	if now >= p.deadline {
		return OutcomeTimeout
	}

	return OutcomeRunning
}
