// Package dut defines the narrow interface through which the harness reaches
// a design under test. The harness never depends on the internal structure
// of a particular design.
package dut

// A DUT is a simulated hardware model driven by the harness.
type DUT interface {
	// Evaluate settles the model once with the current input port values.
	Evaluate()

	// ReadPort returns the value currently on a port.
	ReadPort(name string) uint64

	// WritePort sets the value of an input port. The value is seen by the
	// next Evaluate.
	WritePort(name string, value uint64)

	// Finished returns true once the model has signalled that it is done.
	Finished() bool

	// Finalize runs the model's end-of-simulation cleanup. It is called
	// exactly once.
	Finalize()
}

// SignalInfo describes one internal signal that a model exposes for
// waveform capture. Hierarchical names use dots, e.g. "top.mem.state".
type SignalInfo struct {
	Name  string
	Width int
}

// Depth returns the number of hierarchy levels in the signal name.
func (s SignalInfo) Depth() int {
	depth := 1
	for _, c := range s.Name {
		if c == '.' {
			depth++
		}
	}

	return depth
}

// Traceable is implemented by models that expose internal signals.
type Traceable interface {
	// TraceSignals lists the signals at most depth levels deep.
	TraceSignals(depth int) []SignalInfo

	// SignalValue returns the current value of an internal signal.
	SignalValue(name string) uint64
}

// CoverageSource is implemented by models that count coverage points.
type CoverageSource interface {
	CoverageCounters() map[string]uint64
}

// ArgsAcceptor is implemented by models that consume command-line
// arguments. The harness forwards arguments without interpreting them.
type ArgsAcceptor interface {
	CommandArgs(args PlusArgs)
}
