package bus

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/busharness/signal"
	"github.com/sarchlab/busharness/sim"
	"github.com/sarchlab/busharness/tracing"
)

// DriverStats counts what the driver did.
type DriverStats struct {
	Issued             uint64
	BackpressureStalls uint64
	CapacityStalls     uint64
	TagStalls          uint64
}

// A Driver presents one request at a time on the bus. A presented request
// stays unchanged until the receiver accepts it.
type Driver struct {
	sim.HookableBase

	name       string
	seq        Sequence
	correlator *Correlator

	pending   *Request
	started   bool
	asserted  bool
	exhausted bool
	stats     DriverStats
}

// NewDriver creates a driver that issues the requests of seq and records
// accepted requests in correlator.
func NewDriver(name string, seq Sequence, correlator *Correlator) *Driver {
	return &Driver{
		name:       name,
		seq:        seq,
		correlator: correlator,
	}
}

// Name returns the name of the driver.
func (d *Driver) Name() string {
	return d.name
}

// Stats returns the driver counters.
func (d *Driver) Stats() DriverStats {
	return d.stats
}

// Pending returns the request waiting to be accepted, if any.
func (d *Driver) Pending() (Request, bool) {
	if d.pending == nil {
		return Request{}, false
	}

	return *d.pending, true
}

// Asserted tells if the request valid line is high in the current step.
func (d *Driver) Asserted() bool {
	return d.asserted
}

// Done tells if the sequence is exhausted and nothing waits to be accepted.
func (d *Driver) Done() bool {
	return d.exhausted && d.pending == nil
}

// Drive puts the pending request on the bus wires. The request is held back
// when its tag is still outstanding or when the outstanding table is full.
func (d *Driver) Drive(wires *signal.Table) error {
	d.fetch()

	d.asserted = false
	if d.pending == nil {
		return wires.DriveBool(PortReqValid, false, signal.WriterDriver)
	}

	if !d.correlator.InTagSpace(d.pending.Tag) {
		return errors.Wrapf(ErrTagOutOfRange, "request %s has tag %d, %d tags",
			d.pending.ID, d.pending.Tag, d.correlator.Table().Capacity())
	}

	if !d.correlator.CanIssue(d.pending.Tag) {
		d.countIssueStall()
		return wires.DriveBool(PortReqValid, false, signal.WriterDriver)
	}

	return d.assert(wires)
}

func (d *Driver) fetch() {
	if d.pending != nil || d.exhausted {
		return
	}

	req, ok := d.seq.Next()
	if !ok {
		d.exhausted = true
		return
	}

	d.pending = &req
	d.started = false
}

func (d *Driver) countIssueStall() {
	if d.correlator.Table().IsFull() {
		d.stats.CapacityStalls++
		d.addStep("capacity_stall")

		return
	}

	d.stats.TagStalls++
	d.addStep("tag_stall")
}

func (d *Driver) assert(wires *signal.Table) error {
	req := d.pending

	if !d.started {
		tracing.StartTask(req.ID, "", d, "req_"+req.Op.String(),
			req.String(), *req)
		d.started = true
	}

	writes := []struct {
		port  string
		value uint64
	}{
		{PortReqValid, 1},
		{PortReqWrite, boolToUint(req.Op == OpWrite)},
		{PortReqAddr, req.Address},
		{PortReqWData, req.WriteData},
		{PortReqTag, uint64(req.Tag)},
	}

	for _, w := range writes {
		if err := wires.Drive(w.port, w.value, signal.WriterDriver); err != nil {
			return err
		}
	}

	d.asserted = true

	return nil
}

// Observe reports whether the receiver accepted the request presented in the
// current step. An accepted request moves into the outstanding table; a
// rejected one is presented again, unchanged, in the next step.
func (d *Driver) Observe(now sim.VTime, accepted bool) error {
	if !d.asserted {
		return nil
	}

	if !accepted {
		d.stats.BackpressureStalls++
		d.addStep("backpressure")

		return nil
	}

	if err := d.correlator.Issue(now, *d.pending); err != nil {
		return err
	}

	d.pending = nil
	d.stats.Issued++

	return nil
}

func (d *Driver) addStep(what string) {
	if d.pending == nil || !d.started {
		return
	}

	tracing.AddTaskStep(d.pending.ID, d, what)
}

func boolToUint(b bool) uint64 {
	if b {
		return 1
	}

	return 0
}
