package sim

import "fmt"

// VTime is a point in virtual time, counted in the resolution unit of the
// simulation.
type VTime int64

// TimeUnit is the resolution of VTime.
type TimeUnit int

// Supported time resolutions.
const (
	Picosecond TimeUnit = iota
	Nanosecond
	Microsecond
)

// String returns the unit as it appears in a VCD $timescale directive.
func (u TimeUnit) String() string {
	switch u {
	case Picosecond:
		return "ps"
	case Nanosecond:
		return "ns"
	case Microsecond:
		return "us"
	default:
		return fmt.Sprintf("TimeUnit(%d)", int(u))
	}
}

// PerMicrosecond returns how many units make one microsecond.
func (u TimeUnit) PerMicrosecond() VTime {
	switch u {
	case Picosecond:
		return 1000000
	case Nanosecond:
		return 1000
	default:
		return 1
	}
}
