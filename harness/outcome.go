package harness

import (
	"github.com/sarchlab/busharness/bus"
	"github.com/sarchlab/busharness/sim"
)

// Outcome tells how a run ended.
type Outcome int

// The possible outcomes.
const (
	OutcomeRunning Outcome = iota
	OutcomeFinished
	OutcomeTimeout
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeFinished:
		return "finished"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Process exit statuses.
const (
	ExitFinished = 0
	ExitFatal    = 1
	ExitTimeout  = 2
)

// Result summarizes a run.
type Result struct {
	Outcome   Outcome
	EndTime   sim.VTime
	Steps     uint64
	Completed []bus.Transaction
	Driver    bus.DriverStats

	// AvgRequestTime and MaxRequestTime measure completed requests from
	// their first presentation on the bus to their response.
	AvgRequestTime float64
	MaxRequestTime sim.VTime

	// BusyTime is how long at least one request was presented or
	// outstanding.
	BusyTime sim.VTime

	// StalledRequests counts, per stall reason, the requests that stalled
	// at least once.
	StalledRequests map[string]uint64

	Err error
}

// ExitCode maps the outcome to a process exit status. In legacy mode a
// timeout exits like a finish. Any error is fatal.
func (r Result) ExitCode(legacy bool) int {
	if r.Err != nil {
		return ExitFatal
	}

	switch r.Outcome {
	case OutcomeFinished:
		return ExitFinished
	case OutcomeTimeout:
		if legacy {
			return ExitFinished
		}

		return ExitTimeout
	default:
		return ExitFatal
	}
}
