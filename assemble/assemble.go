// Package assemble turns the prediction windows of each contig into a
// polished sequence and runs contigs on a fixed pool of workers.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/resolve"
	"github.com/mudesheng/polish/rledecode"
	"github.com/mudesheng/polish/utils"
	"github.com/mudesheng/polish/winindex"
)

// Polished is the stitched, run-length expanded sequence of one contig.
type Polished struct {
	Contig         string
	Seq            []byte
	Positions      int
	Windows        int
	MeanConfidence float64
}

// Result is the outcome of one contig; exactly one of Polished and Err
// is meaningful.
type Result struct {
	Contig   string
	Polished Polished
	Err      error
}

// Assemble indexes, resolves and decodes the windows of one contig.
func Assemble(contig string, windows []predstore.Window, eps float64) (Polished, error) {
	c, err := winindex.Index(contig, windows)
	if err != nil {
		return Polished{Contig: contig}, err
	}
	return AssembleIndexed(c, eps)
}

// AssembleIndexed resolves and decodes an already indexed contig.
func AssembleIndexed(c *winindex.Contig, eps float64) (Polished, error) {
	rs, err := resolve.Resolve(c, eps)
	if err != nil {
		return Polished{Contig: c.ID}, err
	}
	sum := 0.0
	for _, r := range rs {
		sum += r.Confidence
	}
	p := Polished{Contig: c.ID, Seq: rledecode.Decode(rs), Positions: len(rs), Windows: len(c.Windows)}
	if len(rs) > 0 {
		p.MeanConfidence = sum / float64(len(rs))
	}
	return p, nil
}

type stitchFunc func(contig string, windows []predstore.Window, eps float64) (Polished, error)

// Pool assembles contigs in parallel. Contigs share nothing but the
// read-only window groups.
type Pool struct {
	Threads int     // <= 0 uses every CPU
	Epsilon float64 // confidence tie tolerance

	stitch stitchFunc
}

type job struct {
	idx int
	id  string
}

type done struct {
	idx int
	res Result
}

// Run assembles every group and returns the results in ascending contig
// order, whatever order the workers finish in. Once ctx is done no new
// contig is started; contigs never started fail with ctx.Err().
func (p *Pool) Run(ctx context.Context, groups map[string][]predstore.Window) []Result {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	stitch := p.stitch
	if stitch == nil {
		stitch = Assemble
	}
	numCPU := utils.NumWorkers(p.Threads)
	t0 := time.Now()

	jobs := make(chan job)
	rc := make(chan done, len(ids))
	var wg sync.WaitGroup
	for i := 0; i < numCPU; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				pol, err := stitch(j.id, groups[j.id], p.Epsilon)
				logContig(j.id, pol, err)
				rc <- done{idx: j.idx, res: Result{Contig: j.id, Polished: pol, Err: err}}
			}
		}()
	}

	dispatched := 0
dispatch:
	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- job{idx: i, id: id}:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()
	close(rc)

	results := make([]Result, len(ids))
	for d := range rc {
		results[d.idx] = d.res
	}
	for i := dispatched; i < len(ids); i++ {
		results[i] = Result{Contig: ids[i], Err: fmt.Errorf("contig %s not assembled: %w", ids[i], ctx.Err())}
	}
	log.Infof("[Run] assembled %d of %d contigs with %d workers in %v", dispatched, len(ids), numCPU, time.Since(t0))
	return results
}

func logContig(id string, pol Polished, err error) {
	if err == nil {
		log.Infof("[Run] finished processing %s, polished sequence length: %d", id, len(pol.Seq))
		return
	}
	var ie *resolve.InternalConsistencyError
	if errors.As(err, &ie) {
		log.WithFields(log.Fields{
			"contig":   ie.Contig,
			"pos":      ie.Pos,
			"minStart": ie.MinStart,
			"maxEnd":   ie.MaxEnd,
			"windows":  ie.Windows,
		}).Errorf("[Run] %v", err)
		return
	}
	log.Warnf("[Run] contig %s failed: %v", id, err)
}

// WithFailures adds a failed Result for every contig in failed that is
// not already present and returns all results in ascending contig order.
func WithFailures(results []Result, failed map[string]error) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results)+len(failed))
	for _, r := range results {
		seen[r.Contig] = true
		out = append(out, r)
	}
	for id, err := range failed {
		if !seen[id] {
			out = append(out, Result{Contig: id, Err: err})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contig < out[j].Contig })
	return out
}

// Succeeded returns the polished sequences of successful results in order.
func Succeeded(results []Result) []Polished {
	var ps []Polished
	for _, r := range results {
		if r.Err == nil {
			ps = append(ps, r.Polished)
		}
	}
	return ps
}
