// Package safeconv converts between integer types where the source value is
// known to fit, panicking instead of silently wrapping when it does not.
package safeconv

import "math"

// MustUintToInt converts a tree-sitter byte offset to int.
func MustUintToInt(v uint) int {
	if v > math.MaxInt {
		panic("safeconv: uint to int overflow")
	}

	return int(v)
}

// MustIntToUint32 converts an int to uint32, as used by LSP positions.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > math.MaxUint32 {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// ClampToUint64 converts a size to uint64, mapping negative values to zero.
func ClampToUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
