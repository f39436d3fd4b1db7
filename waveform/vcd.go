// Package waveform records the value of every traced signal at every step.
package waveform

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sarchlab/busharness/sim"
)

// A Var is a signal declared in a waveform.
type Var struct {
	// Path is the dotted hierarchical name. All but the last element are
	// scopes.
	Path  string
	Width int
}

// A Sink stores waveform samples.
type Sink interface {
	// Declare writes the header. It is called exactly once, before any
	// sample.
	Declare(vars []Var) error

	// Sample records the values of all declared vars at a time. values is
	// indexed like the vars passed to Declare.
	Sample(now sim.VTime, values []uint64) error

	// Flush pushes buffered samples to the underlying storage.
	Flush() error

	// Close releases the storage.
	Close() error
}

// VCDWriter is a Sink that writes Value Change Dump text.
type VCDWriter struct {
	w      *bufio.Writer
	closer io.Closer
	unit   sim.TimeUnit

	declared bool
	ids      []string
	widths   []int
	last     []uint64
	sampled  bool
	lastTime sim.VTime
}

// NewVCDWriter creates a writer on top of w. If w is an io.Closer, Close
// closes it.
func NewVCDWriter(w io.Writer, unit sim.TimeUnit) *VCDWriter {
	vcd := &VCDWriter{
		w:    bufio.NewWriter(w),
		unit: unit,
	}

	if c, ok := w.(io.Closer); ok {
		vcd.closer = c
	}

	return vcd
}

// identifier returns the short VCD identifier of the n-th var.
func identifier(n int) string {
	const first, span = 33, 94

	var b strings.Builder
	for {
		b.WriteByte(byte(first + n%span))
		n = n/span - 1
		if n < 0 {
			break
		}
	}

	return b.String()
}

type scope struct {
	name     string
	children map[string]*scope
	order    []string
	vars     []int
}

func newScope(name string) *scope {
	return &scope{name: name, children: make(map[string]*scope)}
}

func (s *scope) child(name string) *scope {
	c, ok := s.children[name]
	if !ok {
		c = newScope(name)
		s.children[name] = c
		s.order = append(s.order, name)
	}

	return c
}

// Declare writes the VCD header.
func (v *VCDWriter) Declare(vars []Var) error {
	if v.declared {
		log.Panic("waveform vars already declared")
	}

	v.declared = true

	root := newScope("")
	leaves := make([]string, len(vars))

	for i, variable := range vars {
		parts := strings.Split(variable.Path, ".")
		s := root
		for _, p := range parts[:len(parts)-1] {
			s = s.child(p)
		}

		s.vars = append(s.vars, i)
		leaves[i] = parts[len(parts)-1]

		v.ids = append(v.ids, identifier(i))
		v.widths = append(v.widths, variable.Width)
	}

	v.last = make([]uint64, len(vars))

	fmt.Fprintf(v.w, "$version busharness $end\n")
	fmt.Fprintf(v.w, "$timescale 1%s $end\n", v.unit)

	v.writeScope(root, leaves)

	fmt.Fprintf(v.w, "$enddefinitions $end\n")

	return v.w.Flush()
}

func (v *VCDWriter) writeScope(s *scope, leaves []string) {
	if s.name != "" {
		fmt.Fprintf(v.w, "$scope module %s $end\n", s.name)
	}

	for _, i := range s.vars {
		fmt.Fprintf(v.w, "$var wire %d %s %s $end\n",
			v.widths[i], v.ids[i], leaves[i])
	}

	children := append([]string(nil), s.order...)
	sort.Strings(children)

	for _, name := range children {
		v.writeScope(s.children[name], leaves)
	}

	if s.name != "" {
		fmt.Fprintf(v.w, "$upscope $end\n")
	}
}

// Sample writes the values that changed since the previous sample. The
// first sample dumps every value.
func (v *VCDWriter) Sample(now sim.VTime, values []uint64) error {
	if !v.declared {
		log.Panic("waveform vars must be declared before sampling")
	}

	if len(values) != len(v.ids) {
		return errors.Errorf("got %d values for %d vars", len(values), len(v.ids))
	}

	if v.sampled && now < v.lastTime {
		return errors.Errorf("sample at %d is earlier than %d", now, v.lastTime)
	}

	if !v.sampled {
		fmt.Fprintf(v.w, "#%d\n$dumpvars\n", now)
		for i := range values {
			v.writeValue(i, values[i])
		}
		fmt.Fprintf(v.w, "$end\n")
	} else {
		stamped := false
		for i := range values {
			if values[i] == v.last[i] {
				continue
			}

			if !stamped {
				fmt.Fprintf(v.w, "#%d\n", now)
				stamped = true
			}

			v.writeValue(i, values[i])
		}
	}

	copy(v.last, values)
	v.sampled = true
	v.lastTime = now

	return nil
}

func (v *VCDWriter) writeValue(i int, value uint64) {
	if v.widths[i] == 1 {
		fmt.Fprintf(v.w, "%d%s\n", value&1, v.ids[i])
		return
	}

	fmt.Fprintf(v.w, "b%s %s\n", strconv.FormatUint(value, 2), v.ids[i])
}

// Flush writes buffered text to the underlying writer.
func (v *VCDWriter) Flush() error {
	return v.w.Flush()
}

// Close flushes and closes the underlying writer.
func (v *VCDWriter) Close() error {
	err := v.w.Flush()

	if v.closer != nil {
		if cerr := v.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}
