// Package memdut provides a reference design under test: a tagged memory
// with a RAM region and a PIO register block. It answers every request after
// a fixed latency and can be told, through plus-arguments, to stall, to
// complete out of order or to misbehave. With +ooo, requests with even tags
// take twice the latency.
package memdut

import (
	"fmt"
	"sort"

	"github.com/sarchlab/busharness/bus"
	"github.com/sarchlab/busharness/dut"
)

// Ports driven by the harness outside of the bus binding.
const (
	PortClock  = "clk"
	PortResetN = "rst_n"
	PortPIO    = "pio"
)

// DefaultFinishAfter is the number of transactions of the default program.
const DefaultFinishAfter = 40

// Internal states, as seen in a waveform.
const (
	StateIdle uint64 = iota
	StateBusy
	StateStall
	StateReset
)

type inflight struct {
	rsp     bus.Response
	readyAt uint64
}

// Comp is the memory model.
type Comp struct {
	Latency     uint64
	StallSteps  uint64
	OutOfOrder  bool
	FinishAfter uint64
	BogusTag    *bus.Tag

	// Seed, when not zero, makes never-written RAM words read as
	// pseudo-random values derived from the address.
	Seed uint64

	inputs  map[string]uint64
	outputs map[string]uint64
	storage map[uint64]uint64
	pio     uint64

	step        uint64
	seenRequest bool
	stallLeft   uint64
	bogusSent   bool
	inflight    []inflight
	completions uint64
	state       uint64
	finished    bool
	finalized   int

	counters map[string]uint64
}

// New creates a model with a latency of one step that finishes after the
// default program.
func New() *Comp {
	return &Comp{
		Latency:     1,
		FinishAfter: DefaultFinishAfter,
		inputs:      make(map[string]uint64),
		outputs:     make(map[string]uint64),
		storage:     make(map[uint64]uint64),
		counters:    make(map[string]uint64),
	}
}

// CommandArgs reads the +stall, +latency, +ooo, +finish_after, +seed and
// +bogus_tag arguments.
func (c *Comp) CommandArgs(args dut.PlusArgs) {
	c.StallSteps = args.Uint("stall", c.StallSteps)
	c.Latency = args.Uint("latency", c.Latency)
	c.FinishAfter = args.Uint("finish_after", c.FinishAfter)
	c.Seed = args.Uint("seed", c.Seed)

	if args.Has("+ooo") {
		c.OutOfOrder = true
	}

	if _, found := args.Value("bogus_tag"); found {
		tag := bus.Tag(args.Uint("bogus_tag", 0))
		c.BogusTag = &tag
	}
}

// WritePort sets an input.
func (c *Comp) WritePort(name string, value uint64) {
	c.inputs[name] = value
}

// ReadPort returns an output, or the last value written to an input.
func (c *Comp) ReadPort(name string) uint64 {
	if v, found := c.outputs[name]; found {
		return v
	}

	return c.inputs[name]
}

// Finished tells if the model has completed FinishAfter transactions. A
// zero FinishAfter never finishes.
func (c *Comp) Finished() bool {
	return c.finished
}

// Finalize marks the model as finalized.
func (c *Comp) Finalize() {
	c.finalized++
}

// FinalizeCount returns how many times Finalize was called.
func (c *Comp) FinalizeCount() int {
	return c.finalized
}

// Peek returns the stored word at addr.
func (c *Comp) Peek(addr uint64) uint64 {
	if addr >= bus.PIOBase {
		return c.pio
	}

	if v, found := c.storage[addr]; found {
		return v
	}

	if c.Seed == 0 {
		return 0
	}

	return scramble(c.Seed^addr) & 0xffffffff
}

// scramble is the splitmix64 finalizer.
func scramble(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb

	return x ^ (x >> 31)
}

// Evaluate settles the model for one step.
func (c *Comp) Evaluate() {
	c.step++

	if c.inputs[PortResetN] == 0 {
		c.reset()
		return
	}

	c.state = StateIdle
	c.outputs[PortPIO] = c.pio

	c.acceptRequest()
	c.respond()
}

func (c *Comp) reset() {
	c.inflight = nil
	c.state = StateReset
	c.counters["memdut.reset"]++

	for _, p := range []string{
		bus.PortReqReady, bus.PortRspValid, bus.PortRspTag,
		bus.PortRspRData, bus.PortRspAck, PortPIO,
	} {
		c.outputs[p] = 0
	}
}

func (c *Comp) acceptRequest() {
	valid := c.inputs[bus.PortReqValid] != 0

	if valid && !c.seenRequest {
		c.seenRequest = true
		c.stallLeft = c.StallSteps
	}

	if c.stallLeft > 0 {
		c.stallLeft--
		c.outputs[bus.PortReqReady] = 0
		c.state = StateStall
		c.counters["memdut.stall"]++

		return
	}

	c.outputs[bus.PortReqReady] = 1

	if !valid {
		return
	}

	c.state = StateBusy

	rsp := c.access()
	latency := c.Latency
	if c.OutOfOrder && rsp.Tag%2 == 0 {
		latency *= 2
	}

	c.inflight = append(c.inflight, inflight{
		rsp:     rsp,
		readyAt: c.step + latency,
	})
}

func (c *Comp) access() bus.Response {
	addr := c.inputs[bus.PortReqAddr]
	write := c.inputs[bus.PortReqWrite] != 0
	rsp := bus.Response{
		Tag: bus.Tag(c.inputs[bus.PortReqTag]),
		Ack: true,
	}

	region := "ram"
	if addr >= bus.PIOBase {
		region = "pio"
	}

	switch {
	case write && region == "pio":
		c.pio = c.inputs[bus.PortReqWData]
	case write:
		c.storage[addr] = c.inputs[bus.PortReqWData]
	default:
		rsp.ReadData = c.Peek(addr)
	}

	op := "read"
	if write {
		op = "write"
	}

	c.counters[fmt.Sprintf("memdut.%s.%s", region, op)]++

	return rsp
}

func (c *Comp) respond() {
	c.outputs[bus.PortRspValid] = 0

	if c.BogusTag != nil && !c.bogusSent {
		c.bogusSent = true
		c.drive(bus.Response{Tag: *c.BogusTag, Ack: true})

		return
	}

	i, found := c.pickReady()
	if !found {
		return
	}

	c.drive(c.inflight[i].rsp)

	if c.inputs[bus.PortRspReady] == 0 {
		return
	}

	if i != 0 {
		c.counters["memdut.rsp.out_of_order"]++
	}

	c.inflight = append(c.inflight[:i], c.inflight[i+1:]...)
	c.completions++

	if c.FinishAfter > 0 && c.completions >= c.FinishAfter {
		c.finished = true
	}
}

func (c *Comp) pickReady() (int, bool) {
	if c.OutOfOrder {
		for i, f := range c.inflight {
			if f.readyAt <= c.step {
				return i, true
			}
		}

		return 0, false
	}

	if len(c.inflight) > 0 && c.inflight[0].readyAt <= c.step {
		return 0, true
	}

	return 0, false
}

func (c *Comp) drive(rsp bus.Response) {
	c.outputs[bus.PortRspValid] = 1
	c.outputs[bus.PortRspTag] = uint64(rsp.Tag)
	c.outputs[bus.PortRspRData] = rsp.ReadData

	c.outputs[bus.PortRspAck] = 0
	if rsp.Ack {
		c.outputs[bus.PortRspAck] = 1
	}
}

// TraceSignals lists the internal signals up to depth levels deep.
func (c *Comp) TraceSignals(depth int) []dut.SignalInfo {
	all := []dut.SignalInfo{
		{Name: "mem.state", Width: 2},
		{Name: "mem.inflight", Width: 8},
		{Name: "mem.completions", Width: 32},
		{Name: "mem.pio.value", Width: 32},
	}

	var signals []dut.SignalInfo
	for _, s := range all {
		if s.Depth() <= depth {
			signals = append(signals, s)
		}
	}

	return signals
}

// SignalValue returns the value of an internal signal.
func (c *Comp) SignalValue(name string) uint64 {
	switch name {
	case "mem.state":
		return c.state
	case "mem.inflight":
		return uint64(len(c.inflight))
	case "mem.completions":
		return c.completions
	case "mem.pio.value":
		return c.pio
	default:
		return 0
	}
}

// CoverageCounters returns a copy of the coverage points hit so far.
func (c *Comp) CoverageCounters() map[string]uint64 {
	counters := make(map[string]uint64, len(c.counters))
	for k, v := range c.counters {
		counters[k] = v
	}

	return counters
}

// CoveragePoints returns the names of the points hit so far, sorted.
func (c *Comp) CoveragePoints() []string {
	points := make([]string, 0, len(c.counters))
	for k := range c.counters {
		points = append(points, k)
	}
	sort.Strings(points)

	return points
}
