package waveform

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sarchlab/busharness/dut"
	"github.com/sarchlab/busharness/signal"
	"github.com/sarchlab/busharness/sim"
)

// TopScope is the scope that holds the harness wires.
const TopScope = "top"

// Plan tells whether and where a waveform is captured. It does not change
// once a run starts.
type Plan struct {
	Enabled        bool
	SinkPath       string
	HierarchyDepth int
}

// DefaultPlan returns a disabled plan that would write logs/wave.vcd with 99
// levels of hierarchy.
func DefaultPlan(logDir string) Plan {
	return Plan{
		SinkPath:       filepath.Join(logDir, "wave.vcd"),
		HierarchyDepth: 99,
	}
}

type probe struct {
	v    Var
	read func() uint64
}

// Controller owns the waveform sink of a run. The sink is opened at most once
// and closed exactly once.
type Controller struct {
	plan Plan
	unit sim.TimeUnit
	sink Sink

	probes    []probe
	values    []uint64
	opened    bool
	closeOnce sync.Once
	closeErr  error
}

// NewController creates a controller for the plan.
func NewController(plan Plan, unit sim.TimeUnit) *Controller {
	return &Controller{
		plan: plan,
		unit: unit,
	}
}

// WithSink replaces the VCD file sink. It must be called before Open.
func (c *Controller) WithSink(s Sink) *Controller {
	c.sink = s
	return c
}

// Plan returns the plan of the controller.
func (c *Controller) Plan() Plan {
	return c.plan
}

// IsOpen tells if samples are being recorded.
func (c *Controller) IsOpen() bool {
	return c.opened
}

// Open creates the sink and declares the harness wires and, when the model
// exposes them, its internal signals up to the planned depth. A disabled plan
// opens nothing.
func (c *Controller) Open(wires *signal.Table, model dut.DUT) error {
	if !c.plan.Enabled {
		return nil
	}

	if c.opened {
		log.Panic("waveform already opened")
	}

	if c.sink == nil {
		f, err := createFile(c.plan.SinkPath)
		if err != nil {
			return err
		}

		c.sink = NewVCDWriter(f, c.unit)
	}

	c.registerWires(wires)
	c.registerModel(model)

	vars := make([]Var, len(c.probes))
	for i, p := range c.probes {
		vars[i] = p.v
	}

	c.values = make([]uint64, len(c.probes))
	c.opened = true

	return c.sink.Declare(vars)
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	return os.Create(path)
}

func (c *Controller) registerWires(wires *signal.Table) {
	for _, w := range wires.Wires() {
		w := w
		c.probes = append(c.probes, probe{
			v:    Var{Path: TopScope + "." + w.Name, Width: w.Width},
			read: w.Value,
		})
	}
}

func (c *Controller) registerModel(model dut.DUT) {
	traceable, ok := model.(dut.Traceable)
	if !ok {
		return
	}

	for _, s := range traceable.TraceSignals(c.plan.HierarchyDepth) {
		if s.Depth() > c.plan.HierarchyDepth {
			continue
		}

		name := s.Name
		c.probes = append(c.probes, probe{
			v: Var{Path: TopScope + "." + name, Width: s.Width},
			read: func() uint64 {
				return traceable.SignalValue(name)
			},
		})
	}
}

// Sample records every probe and flushes, so that the waveform on disk is
// complete up to now even if the run stops abnormally.
func (c *Controller) Sample(now sim.VTime) error {
	if !c.opened {
		return nil
	}

	for i, p := range c.probes {
		c.values[i] = p.read()
	}

	if err := c.sink.Sample(now, c.values); err != nil {
		return err
	}

	return c.sink.Flush()
}

// Close closes the sink. Only the first call has an effect.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		if c.opened {
			c.closeErr = c.sink.Close()
		}
	})

	return c.closeErr
}
