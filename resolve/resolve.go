// Package resolve picks one (base, run length) prediction per position
// of a contig from the overlapping windows that cover it.
//
// The proposal with the highest confidence wins. Confidences within eps
// of the best one are treated as equal and the tie goes to the wider
// window, then the window starting first, then the smaller base label,
// run length and the exact confidence. Distributions are never
// averaged: base identity is categorical.
package resolve

import (
	"fmt"

	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/winindex"
)

// ResolvedPosition is the winning prediction for one position.
type ResolvedPosition struct {
	Pos        int
	Base       uint8
	RunLength  int
	Confidence float64
	Window     int // index into the contig's sorted windows
}

// InternalConsistencyError means a position inside the indexed range has
// no covering window, which a successful winindex.Index rules out.
type InternalConsistencyError struct {
	Contig   string
	Pos      int
	MinStart int
	MaxEnd   int
	Windows  int
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency: contig %s position %d in [%d,%d) is not claimed by any of %d windows",
		e.Contig, e.Pos, e.MinStart, e.MaxEnd, e.Windows)
}

type candidate struct {
	idx int
	p   predstore.Proposal
}

// Resolve sweeps the contig left to right and returns one entry per
// position of [MinStart, MaxEnd).
func Resolve(c *winindex.Contig, eps float64) ([]ResolvedPosition, error) {
	ws := c.Windows
	out := make([]ResolvedPosition, 0, c.Len())
	active := make([]int, 0, 8)
	cands := make([]candidate, 0, 8)
	next := 0
	for pos := c.MinStart; pos < c.MaxEnd; pos++ {
		for next < len(ws) && ws[next].Start <= pos {
			active = append(active, next)
			next++
		}
		n := 0
		for _, i := range active {
			if ws[i].End > pos {
				active[n] = i
				n++
			}
		}
		active = active[:n]
		if len(active) == 0 {
			return nil, &InternalConsistencyError{Contig: c.ID, Pos: pos, MinStart: c.MinStart, MaxEnd: c.MaxEnd, Windows: len(ws)}
		}

		cands = cands[:0]
		best := 0.0
		for k, i := range active {
			p := ws[i].Proposal(pos)
			if k == 0 || p.Confidence > best {
				best = p.Confidence
			}
			cands = append(cands, candidate{idx: i, p: p})
		}
		win := -1
		for k := range cands {
			if best-cands[k].p.Confidence > eps {
				continue
			}
			if win < 0 || preferred(ws, cands[k], cands[win]) {
				win = k
			}
		}
		cw := cands[win]
		out = append(out, ResolvedPosition{Pos: pos, Base: cw.p.Base, RunLength: cw.p.RunLength, Confidence: cw.p.Confidence, Window: cw.idx})
	}
	return out, nil
}

// preferred orders two proposals whose confidences count as equal.
func preferred(ws []predstore.Window, a, b candidate) bool {
	wa, wb := &ws[a.idx], &ws[b.idx]
	if la, lb := wa.Len(), wb.Len(); la != lb {
		return la > lb
	}
	if wa.Start != wb.Start {
		return wa.Start < wb.Start
	}
	if a.p.Base != b.p.Base {
		return a.p.Base < b.p.Base
	}
	if a.p.RunLength != b.p.RunLength {
		return a.p.RunLength < b.p.RunLength
	}
	return a.p.Confidence > b.p.Confidence
}
