package dut

import (
	"strconv"
	"strings"
)

// PlusArgs holds the raw process arguments handed to a model. Arguments of
// the form "+name" or "+name=value" can be matched by prefix.
type PlusArgs []string

// Match returns the first argument that starts with "+" followed by prefix,
// with the leading "+" kept.
func (a PlusArgs) Match(prefix string) (string, bool) {
	for _, arg := range a {
		if strings.HasPrefix(arg, "+"+prefix) {
			return arg, true
		}
	}

	return "", false
}

// Has tells if the exact argument is present.
func (a PlusArgs) Has(exact string) bool {
	for _, arg := range a {
		if arg == exact {
			return true
		}
	}

	return false
}

// Value returns the value of a "+name=value" argument.
func (a PlusArgs) Value(name string) (string, bool) {
	arg, found := a.Match(name + "=")
	if !found {
		return "", false
	}

	return strings.TrimPrefix(arg, "+"+name+"="), true
}

// Uint returns the value of a "+name=value" argument parsed as an unsigned
// integer. Hexadecimal values need a "0x" prefix.
func (a PlusArgs) Uint(name string, fallback uint64) uint64 {
	s, found := a.Value(name)
	if !found {
		return fallback
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fallback
	}

	return v
}
