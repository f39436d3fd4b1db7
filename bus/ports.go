package bus

import (
	"github.com/sarchlab/busharness/signal"
)

// Widths of the bus fields.
const (
	AddrWidth = 32
	DataWidth = 32
)

// TagWidth returns the number of bits needed to carry numTags distinct tags.
func TagWidth(numTags int) int {
	width := 1
	for (1 << uint(width)) < numTags {
		width++
	}

	return width
}

// DeclarePorts declares the bus wires. The request wires and the response
// ready line are reset-scoped and rest at zero.
func DeclarePorts(wires *signal.Table, numTags int) {
	tagWidth := TagWidth(numTags)

	for _, s := range []signal.Spec{
		{Name: PortReqValid, Width: 1, ResetScoped: true},
		{Name: PortReqWrite, Width: 1, ResetScoped: true},
		{Name: PortReqAddr, Width: AddrWidth, ResetScoped: true},
		{Name: PortReqWData, Width: DataWidth, ResetScoped: true},
		{Name: PortReqTag, Width: tagWidth, ResetScoped: true},
		{Name: PortRspReady, Width: 1, ResetScoped: true},
		{Name: PortReqReady, Width: 1, Direction: signal.Output},
		{Name: PortRspValid, Width: 1, Direction: signal.Output},
		{Name: PortRspTag, Width: tagWidth, Direction: signal.Output},
		{Name: PortRspRData, Width: DataWidth, Direction: signal.Output},
		{Name: PortRspAck, Width: 1, Direction: signal.Output},
	} {
		wires.Declare(s)
	}
}

// ReadResponse decodes the response wires. It returns false if no response
// is valid in the current step.
func ReadResponse(wires *signal.Table) (Response, bool) {
	if !wires.Bool(PortRspValid) {
		return Response{}, false
	}

	return Response{
		Tag:      Tag(wires.Value(PortRspTag)),
		ReadData: wires.Value(PortRspRData),
		Ack:      wires.Bool(PortRspAck),
	}, true
}
