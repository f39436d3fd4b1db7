package sim

import (
	"github.com/pkg/errors"
)

// ErrInvalidQuantum is returned when the clock is asked to advance by a
// non-positive amount of time.
var ErrInvalidQuantum = errors.New("time quantum must be positive")

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() VTime
}

// An Evaluator is evaluated once every time the clock advances. The harness
// step loop is the only Evaluator in a run.
type Evaluator interface {
	Evaluate(now VTime) error
}

// HookPosBeforeAdvance triggers before the clock moves forward. The hook item
// is the time before advancing.
var HookPosBeforeAdvance = &HookPos{Name: "BeforeAdvance"}

// HookPosAfterAdvance triggers after the evaluation triggered by an advance
// has returned. The hook item is the new time.
var HookPosAfterAdvance = &HookPos{Name: "AfterAdvance"}

// A Clock owns the virtual time of a simulation. Time only moves through
// Advance.
type Clock struct {
	HookableBase

	now       VTime
	evaluator Evaluator
}

// NewClock creates a clock at time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the current virtual time.
func (c *Clock) Now() VTime {
	return c.now
}

// RegisterEvaluator sets the evaluator that runs on every advance.
func (c *Clock) RegisterEvaluator(e Evaluator) {
	c.evaluator = e
}

// EvaluateNow evaluates at the current time without advancing. It is used
// once at time zero so that every signal holds a defined value before any
// sink attaches.
func (c *Clock) EvaluateNow() error {
	if c.evaluator == nil {
		return nil
	}

	return c.evaluator.Evaluate(c.now)
}

// Advance moves time forward by exactly one quantum and evaluates once.
func (c *Clock) Advance(quantum VTime) error {
	if quantum <= 0 {
		return errors.Wrapf(ErrInvalidQuantum, "quantum %d", quantum)
	}

	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosBeforeAdvance,
		Item:   c.now,
	})

	c.now += quantum

	var err error
	if c.evaluator != nil {
		err = c.evaluator.Evaluate(c.now)
	}

	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosAfterAdvance,
		Item:   c.now,
		Detail: err,
	})

	return err
}
