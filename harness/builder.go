package harness

import (
	"io"
	"log"

	"github.com/sarchlab/busharness/bus"
	"github.com/sarchlab/busharness/coverage"
	"github.com/sarchlab/busharness/datarecording"
	"github.com/sarchlab/busharness/dut"
	"github.com/sarchlab/busharness/signal"
	"github.com/sarchlab/busharness/sim"
	"github.com/sarchlab/busharness/tracing"
	"github.com/sarchlab/busharness/waveform"
)

// DefaultProgramWords is the number of words the default stimulus writes
// to memory and to the PIO block.
const DefaultProgramWords = 10

// Builder can be used to build a harness.
type Builder struct {
	config   Config
	model    dut.DUT
	args     dut.PlusArgs
	seq      bus.Sequence
	recorder datarecording.DataRecorder
	logger   *log.Logger
	sink     waveform.Sink
	runID    string
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config: DefaultConfig(),
	}
}

// WithConfig sets the configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithDUT sets the design under test.
func (b Builder) WithDUT(m dut.DUT) Builder {
	b.model = m
	return b
}

// WithArgs sets the command-line arguments. They are handed to the design
// as they are; only the exact argument +trace is looked at.
func (b Builder) WithArgs(args []string) Builder {
	b.args = dut.PlusArgs(args)
	return b
}

// WithSequence replaces the default program stimulus.
func (b Builder) WithSequence(s bus.Sequence) Builder {
	b.seq = s
	return b
}

// WithRecorder records completed transactions and request tasks.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithRunID names the run. By default a new ID is generated.
func (b Builder) WithRunID(id string) Builder {
	b.runID = id
	return b
}

// WithLogger sets where notices go. By default they are discarded.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// WithWaveformSink replaces the VCD file. It only matters when waveform
// capture is turned on.
func (b Builder) WithWaveformSink(s waveform.Sink) Builder {
	b.sink = s
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.model == nil {
		panic("a design under test is required")
	}
}

func (h *Harness) collectTrace(t tracing.Tracer) {
	tracing.CollectTrace(h.driver, t)
	tracing.CollectTrace(h.correlator, t)
}

// Build validates the configuration and wires the components together.
func (b Builder) Build() (*Harness, error) {
	b.parametersMustBeValid()

	cfg := b.config
	cfg.Trace.Enabled = b.args.Has(TraceFlag)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Clock.MustBeValid()

	if acceptor, ok := b.model.(dut.ArgsAcceptor); ok {
		acceptor.CommandArgs(b.args)
	}

	h := &Harness{
		config:      cfg,
		logger:      b.logger,
		clock:       sim.NewClock(),
		wires:       signal.NewTable(),
		model:       b.model,
		sequencer:   NewResetSequencer(cfg.ReleaseTime),
		termination: NewTerminationPolicy(cfg.Deadline),
		trace:       waveform.NewController(cfg.Trace, cfg.Unit),
		recorder:    b.recorder,
		runID:       b.runID,
		args:        b.args,
	}

	if h.runID == "" {
		h.runID = sim.NewRunID()
	}

	if h.logger == nil {
		h.logger = log.New(io.Discard, "", 0)
	}

	if b.sink != nil {
		h.trace.WithSink(b.sink)
	}

	if cfg.CoverageEnabled || coverage.CompiledIn {
		h.coverage = coverage.NewWriter(cfg.CoveragePath())
	}

	seq := b.seq
	if seq == nil {
		seq = bus.NewRoundRobinTagger(
			bus.NewProgramSequence(DefaultProgramWords), cfg.TagDepth)
	}

	h.correlator = bus.NewCorrelator("correlator", cfg.TagDepth)
	h.driver = bus.NewDriver("driver", seq, h.correlator)
	h.timeTracer = tracing.NewAverageTimeTracer(h.clock, tracing.AllTasks)
	h.stallTracer = tracing.NewStepCountTracer(tracing.AllTasks)
	h.busyTracer = tracing.NewBusyTimeTracer(h.clock, tracing.AllTasks)
	h.collectTrace(h.timeTracer)
	h.collectTrace(h.stallTracer)
	h.collectTrace(h.busyTracer)

	if h.recorder != nil {
		h.recorder.CreateTable(TransactionTableName, TransactionEntry{})
		h.runRecorder = datarecording.NewRunRecorder(h.recorder, h.runID)
		h.tracer = tracing.NewDBTracer(h.clock, h.recorder)
		h.collectTrace(h.tracer)
	}

	h.declareWires()
	h.clock.RegisterEvaluator(h)

	return h, nil
}
