package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfoTableName is the table that holds one row per run property.
const RunInfoTableName = "run_info"

const runTimeFormat = "2006-01-02 15:04:05.000000000"

// RunInfo is a property of a harness run.
type RunInfo struct {
	RunID    string
	Property string
	Value    string
}

// RunRecorder records how and when a harness run was launched.
type RunRecorder struct {
	recorder DataRecorder
	runID    string
	entries  []RunInfo
}

// NewRunRecorder creates the run_info table in the given recorder.
func NewRunRecorder(recorder DataRecorder, runID string) *RunRecorder {
	recorder.CreateTable(RunInfoTableName, RunInfo{})

	return &RunRecorder{
		recorder: recorder,
		runID:    runID,
	}
}

// Start remembers the start time, the command line and the working
// directory. Nothing is written until End.
func (r *RunRecorder) Start(args []string) {
	r.add("Start Time", time.Now().Format(runTimeFormat))
	r.add("Command", strings.Join(os.Args, " "))
	r.add("Plusargs", strings.Join(args, " "))

	cwd, err := os.Getwd()
	if err == nil {
		r.add("Working Directory", cwd)
	}
}

// End writes the remembered properties together with the outcome and the
// end time.
func (r *RunRecorder) End(outcome string) {
	r.add("Outcome", outcome)
	r.add("End Time", time.Now().Format(runTimeFormat))

	for _, entry := range r.entries {
		r.recorder.InsertData(RunInfoTableName, entry)
	}

	r.entries = nil

	r.recorder.Flush()
}

func (r *RunRecorder) add(property, value string) {
	r.entries = append(r.entries, RunInfo{
		RunID:    r.runID,
		Property: property,
		Value:    value,
	})
}
