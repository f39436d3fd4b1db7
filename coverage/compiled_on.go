//go:build coverage

package coverage

// CompiledIn is true when the binary is built with the coverage tag.
const CompiledIn = true
