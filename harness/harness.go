// Package harness runs a design under test one step at a time: it sequences
// reset, drives bus stimulus, correlates responses, captures waveforms and
// decides when to stop.
package harness

import (
	"log"
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/busharness/bus"
	"github.com/sarchlab/busharness/coverage"
	"github.com/sarchlab/busharness/datarecording"
	"github.com/sarchlab/busharness/dut"
	"github.com/sarchlab/busharness/signal"
	"github.com/sarchlab/busharness/sim"
	"github.com/sarchlab/busharness/tracing"
	"github.com/sarchlab/busharness/waveform"
)

// Names of the harness-level wires.
const (
	PortClock     = "clk"
	PortInterrupt = "intr_i"
	PortPIO       = "pio"
)

// TraceFlag is the only argument that turns on waveform capture.
const TraceFlag = "+trace"

// TransactionTableName is the recorder table of completed transactions.
const TransactionTableName = "bus_transaction"

// TransactionEntry is one row of the transaction table.
type TransactionEntry struct {
	RequestID   string
	Tag         uint32
	Op          string
	Address     uint64
	WriteData   uint64
	ReadData    uint64
	Ack         bool
	IssuedAt    int64
	CompletedAt int64
}

// Snapshot is a consistent view of a running harness.
type Snapshot struct {
	Now         sim.VTime
	Steps       uint64
	ResetState  string
	Outcome     string
	Paused      bool
	Outstanding []bus.Request
	Completed   int
	Driver      bus.DriverStats
}

// Harness owns all the components of one run. A harness runs once.
type Harness struct {
	config Config
	logger *log.Logger

	clock       *sim.Clock
	wires       *signal.Table
	model       dut.DUT
	sequencer   *ResetSequencer
	driver      *bus.Driver
	correlator  *bus.Correlator
	trace       *waveform.Controller
	termination *TerminationPolicy
	coverage    *coverage.Writer
	recorder    datarecording.DataRecorder
	runRecorder *datarecording.RunRecorder
	runID       string
	args        dut.PlusArgs
	tracer      *tracing.DBTracer
	timeTracer  *tracing.AverageTimeTracer
	stallTracer *tracing.StepCountTracer
	busyTracer  *tracing.BusyTimeTracer

	steps   uint64
	outcome Outcome

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	snapshotLock sync.RWMutex
	snapshot     Snapshot

	runOnce      sync.Once
	shutdownOnce sync.Once
	shutdownErr  error
}

// RunID returns the identifier of the run.
func (h *Harness) RunID() string {
	return h.runID
}

// Config returns the configuration of the run.
func (h *Harness) Config() Config {
	return h.config
}

// Clock returns the simulation clock.
func (h *Harness) Clock() *sim.Clock {
	return h.clock
}

// Wires returns the signal table.
func (h *Harness) Wires() *signal.Table {
	return h.wires
}

// Driver returns the bus stimulus driver.
func (h *Harness) Driver() *bus.Driver {
	return h.driver
}

// Correlator returns the response correlator.
func (h *Harness) Correlator() *bus.Correlator {
	return h.correlator
}

// ResetSequencer returns the reset sequencer.
func (h *Harness) ResetSequencer() *ResetSequencer {
	return h.sequencer
}

// Waveform returns the waveform controller.
func (h *Harness) Waveform() *waveform.Controller {
	return h.trace
}

// Outcome returns the outcome decided so far.
func (h *Harness) Outcome() Outcome {
	return h.outcome
}

func (h *Harness) declareWires() {
	h.wires.Declare(signal.Spec{Name: PortClock, Width: 1})
	h.wires.Declare(signal.Spec{Name: PortResetN, Width: 1})
	h.wires.Declare(signal.Spec{
		Name:        PortInterrupt,
		Width:       1,
		ResetScoped: true,
	})
	h.wires.Declare(signal.Spec{
		Name:      PortPIO,
		Width:     bus.DataWidth,
		Direction: signal.Output,
	})

	bus.DeclarePorts(h.wires, h.config.TagDepth)
}

// Run evaluates at time zero, opens the waveform and steps until the design
// finishes, the deadline passes or a fatal error occurs. The shutdown
// sequence runs on every path.
func (h *Harness) Run() (res Result, err error) {
	ran := false
	h.runOnce.Do(func() { ran = true })

	if !ran {
		log.Panic("harness can only run once")
	}

	defer func() {
		shutdownErr := h.Shutdown()
		if shutdownErr == nil {
			return
		}

		h.outcome = OutcomeAborted
		res.Outcome = OutcomeAborted

		if err == nil {
			err = shutdownErr
			res.Err = err
		}
	}()

	err = h.start()
	for err == nil && h.outcome == OutcomeRunning {
		err = h.clock.Advance(h.config.Quantum)
	}

	if err != nil {
		h.outcome = OutcomeAborted
		err = errors.Wrapf(err, "step %d at %d%s",
			h.steps, h.clock.Now(), h.config.Unit)
		h.logger.Printf("run aborted: %v", err)
	} else if h.outcome == OutcomeTimeout {
		h.logger.Printf("deadline %d%s reached before the design finished",
			h.termination.Deadline(), h.config.Unit)
	}

	h.updateSnapshot(h.clock.Now())

	return h.result(err), err
}

func (h *Harness) start() error {
	if h.runRecorder != nil {
		h.runRecorder.Start(h.args)
	}

	if err := h.clock.EvaluateNow(); err != nil {
		return err
	}

	if !h.trace.Plan().Enabled {
		return nil
	}

	h.logger.Printf("Enabling waves into %s...", h.trace.Plan().SinkPath)

	if err := h.trace.Open(h.wires, h.model); err != nil {
		return errors.Wrap(err, "open waveform")
	}

	return h.trace.Sample(h.clock.Now())
}

func (h *Harness) result(err error) Result {
	stalled := make(map[string]uint64)
	for _, name := range h.stallTracer.GetStepNames() {
		stalled[name] = h.stallTracer.GetTaskCount(name)
	}

	return Result{
		Outcome:         h.outcome,
		EndTime:         h.clock.Now(),
		Steps:           h.steps,
		Completed:       h.correlator.Completed(),
		Driver:          h.driver.Stats(),
		AvgRequestTime:  h.timeTracer.AverageTime(),
		MaxRequestTime:  h.timeTracer.MaxTime(),
		BusyTime:        h.busyTracer.BusyTime(),
		StalledRequests: stalled,
		Err:             err,
	}
}

// Evaluate runs one step. Writers are resolved in a fixed order: the clock,
// then reset, then the driver, then the design.
func (h *Harness) Evaluate(now sim.VTime) error {
	h.pauseLock.Lock()
	defer h.pauseLock.Unlock()
	defer h.updateSnapshot(now)

	h.steps++
	h.wires.BeginStep()

	if err := h.driveInputs(now); err != nil {
		return err
	}

	for _, w := range h.wires.Inputs() {
		h.model.WritePort(w.Name, w.Value())
	}

	h.model.Evaluate()

	for _, w := range h.wires.Outputs() {
		err := h.wires.Drive(w.Name, h.model.ReadPort(w.Name), signal.WriterDUT)
		if err != nil {
			return err
		}
	}

	err := h.handleBus(now)

	if sampleErr := h.trace.Sample(now); err == nil && sampleErr != nil {
		err = errors.Wrap(sampleErr, "sample waveform")
	}

	if err != nil {
		return err
	}

	h.outcome = h.termination.Check(now, h.model)

	return nil
}

func (h *Harness) driveInputs(now sim.VTime) error {
	if h.sequencer.Update(now) {
		h.logger.Printf("reset released at %d%s", now, h.config.Unit)
	}

	err := h.wires.DriveBool(PortClock, h.config.Clock.Level(now),
		signal.WriterClock)
	if err != nil {
		return err
	}

	if err := h.sequencer.Apply(h.wires); err != nil {
		return err
	}

	if !h.sequencer.IsActive() {
		return nil
	}

	if err := h.driver.Drive(h.wires); err != nil {
		return err
	}

	return h.wires.DriveBool(bus.PortRspReady, true, signal.WriterHarness)
}

func (h *Harness) handleBus(now sim.VTime) error {
	if h.sequencer.IsActive() {
		err := h.driver.Observe(now, h.wires.Bool(bus.PortReqReady))
		if err != nil {
			return err
		}
	}

	if !h.wires.Bool(bus.PortRspReady) {
		return nil
	}

	rsp, ok := bus.ReadResponse(h.wires)
	if !ok {
		return nil
	}

	txn, err := h.correlator.Consume(now, rsp)
	if err != nil {
		return err
	}

	h.recordTransaction(txn)

	return nil
}

func (h *Harness) recordTransaction(txn bus.Transaction) {
	if h.recorder == nil {
		return
	}

	h.recorder.InsertData(TransactionTableName, TransactionEntry{
		RequestID:   txn.Request.ID,
		Tag:         uint32(txn.Request.Tag),
		Op:          txn.Request.Op.String(),
		Address:     txn.Request.Address,
		WriteData:   txn.Request.WriteData,
		ReadData:    txn.Response.ReadData,
		Ack:         txn.Response.Ack,
		IssuedAt:    int64(txn.IssuedAt),
		CompletedAt: int64(txn.CompletedAt),
	})
}

// Shutdown finalizes the design, closes the waveform, writes coverage and
// flushes the transaction recorder. Only the first call has an effect.
func (h *Harness) Shutdown() error {
	h.shutdownOnce.Do(func() {
		h.model.Finalize()

		h.keepFirstErr(errors.Wrap(h.trace.Close(), "close waveform"))

		if h.coverage != nil {
			h.keepFirstErr(errors.Wrap(h.coverage.Write(h.model),
				"write coverage"))
		}

		if h.tracer != nil {
			h.tracer.Terminate()
		}

		if h.runRecorder != nil {
			h.runRecorder.End(h.outcome.String())
		}

		if h.recorder != nil {
			h.keepFirstErr(errors.Wrap(h.recorder.Close(),
				"close transaction recorder"))
		}
	})

	return h.shutdownErr
}

func (h *Harness) keepFirstErr(err error) {
	if err == nil {
		return
	}

	if h.shutdownErr == nil {
		h.shutdownErr = err
		return
	}

	h.logger.Printf("shutdown: %v", err)
}

// Pause blocks the step loop before the next step.
func (h *Harness) Pause() {
	h.isPausedLock.Lock()
	defer h.isPausedLock.Unlock()

	if h.isPaused {
		return
	}

	h.pauseLock.Lock()
	h.isPaused = true
	h.setPausedInSnapshot(true)
}

// Continue lets a paused step loop proceed.
func (h *Harness) Continue() {
	h.isPausedLock.Lock()
	defer h.isPausedLock.Unlock()

	if !h.isPaused {
		return
	}

	h.pauseLock.Unlock()
	h.isPaused = false
	h.setPausedInSnapshot(false)
}

func (h *Harness) setPausedInSnapshot(paused bool) {
	h.snapshotLock.Lock()
	h.snapshot.Paused = paused
	h.snapshotLock.Unlock()
}

func (h *Harness) updateSnapshot(now sim.VTime) {
	h.snapshotLock.Lock()
	defer h.snapshotLock.Unlock()

	h.snapshot.Now = now
	h.snapshot.Steps = h.steps
	h.snapshot.ResetState = h.sequencer.State().String()
	h.snapshot.Outcome = h.outcome.String()
	h.snapshot.Outstanding = h.correlator.Table().Pending()
	h.snapshot.Completed = len(h.correlator.Completed())
	h.snapshot.Driver = h.driver.Stats()
}

// Snapshot returns the state as of the end of the last step. It is safe to
// call from another goroutine.
func (h *Harness) Snapshot() Snapshot {
	h.snapshotLock.RLock()
	defer h.snapshotLock.RUnlock()

	s := h.snapshot
	s.Outstanding = append([]bus.Request(nil), h.snapshot.Outstanding...)

	return s
}
