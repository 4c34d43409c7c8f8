// Package predstore reads and writes per-window base and run-length
// predictions.
package predstore

import "math"

// Base labels. Label 0 is the gap/deletion symbol.
const (
	Gap uint8 = iota
	BaseA
	BaseC
	BaseG
	BaseT
	NumBases
)

// Window is one sliding-window inference result. Positions are the
// half-open range [Start, End) in run-length-compressed coordinates.
type Window struct {
	Contig     string
	Start, End int
	Bases      [][]float64 // per position, NumBases labels
	RunLengths [][]float64 // per position, label i is run length i

	props []Proposal
}

// Proposal is what a window predicts for a single position.
type Proposal struct {
	Base       uint8
	RunLength  int
	Confidence float64
}

func (w *Window) Len() int { return w.End - w.Start }

// Contains reports whether pos lies in [Start, End).
func (w *Window) Contains(pos int) bool { return pos >= w.Start && pos < w.End }

// Proposal returns the window's prediction for the absolute position pos.
func (w *Window) Proposal(pos int) Proposal {
	i := pos - w.Start
	if w.props != nil {
		return w.props[i]
	}
	return propose(w.Bases[i], w.RunLengths[i])
}

// Confidence is the highest base probability at pos.
func (w *Window) Confidence(pos int) float64 {
	return w.Proposal(pos).Confidence
}

// Compact replaces the distributions by their per-position proposals.
func (w *Window) Compact() {
	if w.props != nil {
		return
	}
	props := make([]Proposal, w.Len())
	for i := range props {
		props[i] = propose(w.Bases[i], w.RunLengths[i])
	}
	w.props = props
	w.Bases, w.RunLengths = nil, nil
}

// Compacted reports whether the distributions have been released.
func (w *Window) Compacted() bool { return w.props != nil }

// NewCompactWindow builds an already compacted window from proposals.
func NewCompactWindow(contig string, start int, props []Proposal) Window {
	return Window{Contig: contig, Start: start, End: start + len(props), props: props}
}

func propose(bases, rls []float64) Proposal {
	b, conf := argmax(bases)
	r, _ := argmax(rls)
	return Proposal{Base: uint8(b), RunLength: r, Confidence: conf}
}

// argmax returns the first index holding the maximum value.
func argmax(v []float64) (idx int, max float64) {
	max = math.Inf(-1)
	for i, x := range v {
		if x > max {
			idx, max = i, x
		}
	}
	return
}
