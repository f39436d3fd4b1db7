// Package signal provides the binding table between the harness and the
// design under test. Every wire is declared once at setup, carries a single
// value, and accepts at most one write per step.
package signal

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
)

var (
	// ErrUndeclared is returned when a write targets an unknown wire.
	ErrUndeclared = errors.New("wire is not declared")

	// ErrMultipleWriters is returned when a wire is written twice in one
	// step.
	ErrMultipleWriters = errors.New("wire already written in this step")
)

// A Writer identifies who drove a wire.
type Writer int

// Possible writers, in the order they are resolved within a step.
const (
	WriterNone Writer = iota
	WriterClock
	WriterReset
	WriterDriver
	WriterHarness
	WriterDUT
)

func (w Writer) String() string {
	switch w {
	case WriterNone:
		return "none"
	case WriterClock:
		return "clock"
	case WriterReset:
		return "reset"
	case WriterDriver:
		return "driver"
	case WriterHarness:
		return "harness"
	case WriterDUT:
		return "dut"
	default:
		return fmt.Sprintf("Writer(%d)", int(w))
	}
}

// Direction tells which side of the binding owns a wire.
type Direction int

// Input wires are written by the harness and pushed into the DUT. Output
// wires are read back from the DUT after evaluation.
const (
	Input Direction = iota
	Output
)

// Spec describes a wire at declaration time.
type Spec struct {
	Name        string
	Width       int
	Direction   Direction
	ResetScoped bool
	Quiescent   uint64
}

// A Wire is a named value shared between the harness and the DUT.
type Wire struct {
	Spec

	value     uint64
	writer    Writer
	writtenAt uint64
}

// Value returns the current value of the wire.
func (w *Wire) Value() uint64 {
	return w.value
}

func (w *Wire) mask() uint64 {
	if w.Width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << uint(w.Width)) - 1
}

// Table holds all the wires of a run.
type Table struct {
	wires map[string]*Wire
	order []*Wire
	step  uint64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		wires: make(map[string]*Wire),
		step:  1,
	}
}

// Declare adds a wire. The initial value is the quiescent value.
func (t *Table) Declare(spec Spec) *Wire {
	if spec.Name == "" {
		log.Panic("wire name must not be empty")
	}

	if spec.Width <= 0 || spec.Width > 64 {
		log.Panicf("wire %s has invalid width %d", spec.Name, spec.Width)
	}

	if _, found := t.wires[spec.Name]; found {
		log.Panicf("wire %s already declared", spec.Name)
	}

	w := &Wire{Spec: spec}
	w.value = spec.Quiescent & w.mask()

	t.wires[spec.Name] = w
	t.order = append(t.order, w)

	return w
}

// BeginStep opens a new step. Write marks from the previous step are
// dropped; values are kept.
func (t *Table) BeginStep() {
	t.step++
}

// Drive writes a value to a wire. Values wider than the wire are truncated.
func (t *Table) Drive(name string, v uint64, writer Writer) error {
	w, found := t.wires[name]
	if !found {
		return errors.Wrap(ErrUndeclared, name)
	}

	if w.writtenAt == t.step {
		return errors.Wrapf(ErrMultipleWriters, "%s by %s, then by %s",
			name, w.writer, writer)
	}

	w.value = v & w.mask()
	w.writer = writer
	w.writtenAt = t.step

	return nil
}

// DriveBool writes a one-bit value.
func (t *Table) DriveBool(name string, v bool, writer Writer) error {
	if v {
		return t.Drive(name, 1, writer)
	}

	return t.Drive(name, 0, writer)
}

// Lookup returns the named wire.
func (t *Table) Lookup(name string) (*Wire, bool) {
	w, found := t.wires[name]
	return w, found
}

// Value returns the current value of a wire. It panics on unknown wires.
func (t *Table) Value(name string) uint64 {
	return t.mustFind(name).value
}

// Bool returns true if the wire holds a non-zero value.
func (t *Table) Bool(name string) bool {
	return t.Value(name) != 0
}

// WriterOf returns who wrote the wire in the current step, or WriterNone if
// nobody did.
func (t *Table) WriterOf(name string) Writer {
	w := t.mustFind(name)
	if w.writtenAt != t.step {
		return WriterNone
	}

	return w.writer
}

// Wires returns all wires in declaration order.
func (t *Table) Wires() []*Wire {
	return t.order
}

// Inputs returns the wires written by the harness.
func (t *Table) Inputs() []*Wire {
	return t.filter(func(w *Wire) bool { return w.Direction == Input })
}

// Outputs returns the wires read back from the DUT.
func (t *Table) Outputs() []*Wire {
	return t.filter(func(w *Wire) bool { return w.Direction == Output })
}

// ResetScoped returns the wires the reset sequencer must hold quiescent.
func (t *Table) ResetScoped() []*Wire {
	return t.filter(func(w *Wire) bool { return w.ResetScoped })
}

func (t *Table) filter(keep func(w *Wire) bool) []*Wire {
	var wires []*Wire

	for _, w := range t.order {
		if keep(w) {
			wires = append(wires, w)
		}
	}

	return wires
}

func (t *Table) mustFind(name string) *Wire {
	w, found := t.wires[name]
	if !found {
		log.Panicf("wire %s is not declared", name)
	}

	return w
}
