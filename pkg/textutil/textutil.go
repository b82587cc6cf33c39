// Package textutil holds byte-level text checks shared by the scanners.
package textutil

import "bytes"

// BinarySniffLength is the number of leading bytes inspected for a NUL,
// the same heuristic Git uses.
const BinarySniffLength = 8000

// IsBinary reports whether data has a NUL byte in its first
// BinarySniffLength bytes. Empty data is text.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}
