// Package winindex groups prediction windows per contig, orders them
// and checks that they tile the contig without gaps.
package winindex

import (
	"fmt"
	"sort"

	"github.com/exascience/pargo/parallel"

	"github.com/mudesheng/polish/predstore"
)

// CoverageGapError reports the first range of a contig that no window
// covers.
type CoverageGapError struct {
	Contig     string
	Start, End int
}

func (e *CoverageGapError) Error() string {
	if e.Start == e.End {
		return fmt.Sprintf("contig %s has no prediction windows", e.Contig)
	}
	return fmt.Sprintf("contig %s: positions [%d,%d) are not covered by any window", e.Contig, e.Start, e.End)
}

// Contig is the sorted window list of one contig. It is read only once
// built.
type Contig struct {
	ID       string
	Windows  []predstore.Window
	MinStart int
	MaxEnd   int
}

// Len is the number of positions in [MinStart, MaxEnd).
func (c *Contig) Len() int { return c.MaxEnd - c.MinStart }

// Sort orders windows by start, wider window first on equal starts.
func Sort(ws []predstore.Window) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].Start != ws[j].Start {
			return ws[i].Start < ws[j].Start
		}
		return ws[i].End > ws[j].End
	})
}

// Gaps returns every uncovered range between the first start and the
// last end of sorted windows.
func Gaps(sorted []predstore.Window) (gaps [][2]int) {
	if len(sorted) == 0 {
		return nil
	}
	reach := sorted[0].End
	for _, w := range sorted[1:] {
		if w.Start > reach {
			gaps = append(gaps, [2]int{reach, w.Start})
		}
		if w.End > reach {
			reach = w.End
		}
	}
	return gaps
}

// Index sorts a copy of windows and verifies coverage.
func Index(id string, windows []predstore.Window) (*Contig, error) {
	if len(windows) == 0 {
		return nil, &CoverageGapError{Contig: id}
	}
	ws := make([]predstore.Window, len(windows))
	copy(ws, windows)
	Sort(ws)
	c := &Contig{ID: id, Windows: ws, MinStart: ws[0].Start, MaxEnd: ws[0].End}
	for _, w := range ws[1:] {
		if w.Start > c.MaxEnd {
			return nil, &CoverageGapError{Contig: id, Start: c.MaxEnd, End: w.Start}
		}
		if w.End > c.MaxEnd {
			c.MaxEnd = w.End
		}
	}
	return c, nil
}

// IndexAll indexes every group using up to threads goroutines.
func IndexAll(groups map[string][]predstore.Window, threads int) (map[string]*Contig, map[string]error) {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	contigs := make([]*Contig, len(ids))
	errs := make([]error, len(ids))
	if threads < 1 {
		threads = 1
	}
	if len(ids) > 0 {
		parallel.Range(0, len(ids), threads, func(low, high int) {
			for i := low; i < high; i++ {
				contigs[i], errs[i] = Index(ids[i], groups[ids[i]])
			}
		})
	}
	ok := make(map[string]*Contig, len(ids))
	failed := make(map[string]error)
	for i, id := range ids {
		if errs[i] != nil {
			failed[id] = errs[i]
			continue
		}
		ok[id] = contigs[i]
	}
	return ok, failed
}
