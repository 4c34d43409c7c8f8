// Package rledecode expands resolved run-length-compressed positions
// into literal nucleotides.
package rledecode

import (
	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/resolve"
)

var labelLetter = [predstore.NumBases]byte{predstore.Gap: 0, predstore.BaseA: 'A', predstore.BaseC: 'C', predstore.BaseG: 'G', predstore.BaseT: 'T'}

// Letter returns the nucleotide of a base label, 0 for the gap label or
// an unknown label.
func Letter(base uint8) byte {
	if base >= predstore.NumBases {
		return 0
	}
	return labelLetter[base]
}

// Label maps a nucleotide (either case) or '*' back to its label.
func Label(b byte) (uint8, bool) {
	switch b {
	case '*':
		return predstore.Gap, true
	case 'A', 'a':
		return predstore.BaseA, true
	case 'C', 'c':
		return predstore.BaseC, true
	case 'G', 'g':
		return predstore.BaseG, true
	case 'T', 't':
		return predstore.BaseT, true
	}
	return 0, false
}

// RunLength is the number of letters a position emits: 0 for a gap,
// otherwise the predicted run length with 0 raised to 1.
func RunLength(r resolve.ResolvedPosition) int {
	if Letter(r.Base) == 0 {
		return 0
	}
	if r.RunLength < 1 {
		return 1
	}
	return r.RunLength
}

// DecodedLen is the length of Decode(rs).
func DecodedLen(rs []resolve.ResolvedPosition) (n int) {
	for _, r := range rs {
		n += RunLength(r)
	}
	return n
}

// Decode concatenates the expansion of every position in order.
func Decode(rs []resolve.ResolvedPosition) []byte {
	return AppendDecoded(make([]byte, 0, DecodedLen(rs)), rs)
}

// AppendDecoded appends the expansion of rs to dst.
func AppendDecoded(dst []byte, rs []resolve.ResolvedPosition) []byte {
	for _, r := range rs {
		c := Letter(r.Base)
		for n := RunLength(r); n > 0; n-- {
			dst = append(dst, c)
		}
	}
	return dst
}
