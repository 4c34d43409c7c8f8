package rledecode

import "fmt"

// Encode run-length compresses a nucleotide sequence into base labels
// and run lengths, the coordinate space the predictions live in.
func Encode(seq []byte) (bases []uint8, runs []int, err error) {
	for i := 0; i < len(seq); {
		l, ok := Label(seq[i])
		if !ok || seq[i] == '*' {
			return nil, nil, fmt.Errorf("[Encode] unsupported base %q at %d", seq[i], i)
		}
		j := i + 1
		for j < len(seq) && seq[j]&^0x20 == seq[i]&^0x20 {
			j++
		}
		bases = append(bases, l)
		runs = append(runs, j-i)
		i = j
	}
	return bases, runs, nil
}
