package sim

import (
	"log"
)

// StepLogger is a hook that prints one line every time the clock advances.
type StepLogger struct {
	*log.Logger
}

// NewStepLogger returns a new StepLogger which will write in to the logger
func NewStepLogger(logger *log.Logger) *StepLogger {
	h := new(StepLogger)
	h.Logger = logger
	return h
}

// Func writes the step information into the logger
func (h *StepLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosAfterAdvance {
		return
	}

	now, ok := ctx.Item.(VTime)
	if !ok {
		return
	}

	if err, _ := ctx.Detail.(error); err != nil {
		h.Logger.Printf("%d, step failed: %v", now, err)
		return
	}

	h.Logger.Printf("%d, step", now)
}
