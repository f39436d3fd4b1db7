// Package bus implements the split-transaction memory bus seen by the
// harness: tagged requests, tagged responses, the table of outstanding
// requests, and the stimulus driver that respects backpressure.
package bus

import (
	"fmt"

	"github.com/sarchlab/busharness/sim"
)

// Port names of the bus binding.
const (
	PortReqValid = "req_valid"
	PortReqWrite = "req_write"
	PortReqAddr  = "req_addr"
	PortReqWData = "req_wdata"
	PortReqTag   = "req_tag"
	PortReqReady = "req_ready"

	PortRspValid = "rsp_valid"
	PortRspReady = "rsp_ready"
	PortRspTag   = "rsp_tag"
	PortRspRData = "rsp_rdata"
	PortRspAck   = "rsp_ack"
)

// Tag identifies a request while it is outstanding.
type Tag uint32

// Opcode is the kind of access.
type Opcode int

// Supported opcodes.
const (
	OpRead Opcode = iota
	OpWrite
)

func (o Opcode) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("Opcode(%d)", int(o))
	}
}

// A Request is an access issued by the driver.
type Request struct {
	ID        string
	Address   uint64
	Op        Opcode
	WriteData uint64
	Tag       Tag
}

func (r Request) String() string {
	if r.Op == OpWrite {
		return fmt.Sprintf("write[%d] 0x%08x <- 0x%08x",
			r.Tag, r.Address, r.WriteData)
	}

	return fmt.Sprintf("read[%d] 0x%08x", r.Tag, r.Address)
}

// A Response is produced by the DUT and refers to a request by tag.
type Response struct {
	Tag      Tag
	ReadData uint64
	Ack      bool
}

// A Transaction is a request matched with its response.
type Transaction struct {
	Request     Request
	Response    Response
	IssuedAt    sim.VTime
	CompletedAt sim.VTime
}

// Latency returns the time between acceptance and completion.
func (t Transaction) Latency() sim.VTime {
	return t.CompletedAt - t.IssuedAt
}

// RequestBuilder can build requests.
type RequestBuilder struct {
	address   uint64
	op        Opcode
	writeData uint64
	tag       Tag
}

// WithAddress sets the address of the request to build.
func (b RequestBuilder) WithAddress(address uint64) RequestBuilder {
	b.address = address
	return b
}

// WithTag sets the tag of the request to build.
func (b RequestBuilder) WithTag(tag Tag) RequestBuilder {
	b.tag = tag
	return b
}

// AsRead makes the request a read.
func (b RequestBuilder) AsRead() RequestBuilder {
	b.op = OpRead
	b.writeData = 0
	return b
}

// AsWrite makes the request a write of data.
func (b RequestBuilder) AsWrite(data uint64) RequestBuilder {
	b.op = OpWrite
	b.writeData = data
	return b
}

// Build creates a new Request.
func (b RequestBuilder) Build() Request {
	return Request{
		ID:        sim.GetIDGenerator().Generate(),
		Address:   b.address,
		Op:        b.op,
		WriteData: b.writeData,
		Tag:       b.tag,
	}
}
