package assemble

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/resolve"
	"github.com/mudesheng/polish/utils"
	"github.com/mudesheng/polish/winindex"
)

func win(contig string, start int, bases string, rls []int, conf []float64) predstore.Window {
	props := make([]predstore.Proposal, len(bases))
	for i := range props {
		var b uint8
		switch bases[i] {
		case 'A':
			b = predstore.BaseA
		case 'C':
			b = predstore.BaseC
		case 'G':
			b = predstore.BaseG
		case 'T':
			b = predstore.BaseT
		}
		props[i] = predstore.Proposal{Base: b, RunLength: rls[i], Confidence: conf[i]}
	}
	return predstore.NewCompactWindow(contig, start, props)
}

func scenario(contig string) []predstore.Window {
	return []predstore.Window{
		win(contig, 2, "TAC", []int{1, 2, 1}, []float64{0.4, 0.8, 0.7}),
		win(contig, 0, "ACG", []int{2, 1, 3}, []float64{0.9, 0.6, 0.95}),
	}
}

func TestAssemble(t *testing.T) {
	p, err := Assemble("ctg1", scenario("ctg1"), 1e-9)
	if err != nil {
		t.Fatal(err)
	}
	if string(p.Seq) != "AACGGGAAC" {
		t.Fatalf("Seq = %q, want AACGGGAAC", p.Seq)
	}
	if p.Contig != "ctg1" || p.Positions != 5 || p.Windows != 2 {
		t.Fatalf("Polished = %+v", p)
	}
	want := (0.9 + 0.6 + 0.95 + 0.8 + 0.7) / 5
	if d := p.MeanConfidence - want; d > 1e-12 || d < -1e-12 {
		t.Fatalf("MeanConfidence = %v, want %v", p.MeanConfidence, want)
	}
}

func TestAssembleGap(t *testing.T) {
	ws := []predstore.Window{
		win("gap", 0, "AAAAAAAAAA", make([]int, 10), make([]float64, 10)),
		win("gap", 15, "CCCCCCCCCC", make([]int, 10), make([]float64, 10)),
	}
	_, err := Assemble("gap", ws, 0)
	var ge *winindex.CoverageGapError
	if !errors.As(err, &ge) || ge.Start != 10 || ge.End != 15 {
		t.Fatalf("Assemble = %v", err)
	}
	if Classify(err) != KindCoverageGap {
		t.Fatalf("Classify = %q", Classify(err))
	}
}

func TestAssembleIndexedInternal(t *testing.T) {
	c := &winindex.Contig{ID: "bad", Windows: []predstore.Window{win("bad", 5, "A", []int{1}, []float64{1})}, MinStart: 0, MaxEnd: 6}
	_, err := AssembleIndexed(c, 0)
	if Classify(err) != KindInternal {
		t.Fatalf("AssembleIndexed = %v", err)
	}
}

func TestRunOrdered(t *testing.T) {
	if utils.NumWorkers(3) < 3 {
		t.Skip("needs three CPUs to hold three contigs in flight")
	}
	cDone, aDone := make(chan struct{}), make(chan struct{})
	var mu sync.Mutex
	var finished []string
	p := &Pool{Threads: 3, stitch: func(id string, ws []predstore.Window, eps float64) (Polished, error) {
		switch id {
		case "chrA":
			<-cDone
			defer close(aDone)
		case "chrB":
			<-aDone
		case "chrC":
			defer close(cDone)
		}
		mu.Lock()
		finished = append(finished, id)
		mu.Unlock()
		return Polished{Contig: id, Seq: []byte(id)}, nil
	}}
	groups := map[string][]predstore.Window{"chrC": nil, "chrA": nil, "chrB": nil}
	results := p.Run(context.Background(), groups)
	if !reflect.DeepEqual(finished, []string{"chrC", "chrA", "chrB"}) {
		t.Fatalf("finish order = %v", finished)
	}
	var got []string
	for _, r := range results {
		if r.Err != nil {
			t.Fatal(r.Err)
		}
		got = append(got, string(r.Polished.Seq))
	}
	if !reflect.DeepEqual(got, []string{"chrA", "chrB", "chrC"}) {
		t.Fatalf("result order = %v", got)
	}
}

func TestRunPartialFailure(t *testing.T) {
	groups := map[string][]predstore.Window{
		"ctg1": scenario("ctg1"),
		"ctg2": {
			win("ctg2", 0, "AAAAAAAAAA", make([]int, 10), make([]float64, 10)),
			win("ctg2", 15, "CCCCCCCCCC", make([]int, 10), make([]float64, 10)),
		},
		"ctg3": scenario("ctg3"),
		"ctg4": nil,
	}
	for _, threads := range []int{1, 2, 8} {
		results := (&Pool{Threads: threads, Epsilon: 1e-9}).Run(context.Background(), groups)
		if len(results) != 4 {
			t.Fatalf("threads %d: %d results", threads, len(results))
		}
		for i, want := range []Kind{KindNone, KindCoverageGap, KindNone, KindCoverageGap} {
			if k := Classify(results[i].Err); k != want {
				t.Fatalf("threads %d: %s kind %q, want %q", threads, results[i].Contig, k, want)
			}
		}
		ps := Succeeded(results)
		if len(ps) != 2 || string(ps[0].Seq) != "AACGGGAAC" || ps[1].Contig != "ctg3" {
			t.Fatalf("threads %d: succeeded %+v", threads, ps)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	groups := map[string][]predstore.Window{"a": scenario("a"), "b": scenario("b")}
	for _, r := range (&Pool{Threads: 2}).Run(ctx, groups) {
		if Classify(r.Err) != KindCanceled {
			t.Fatalf("%s: %v", r.Contig, r.Err)
		}
	}
}

func TestRunCanceledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	groups := map[string][]predstore.Window{}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("c%d", i)
		groups[id] = scenario(id)
	}
	p := &Pool{Threads: 1, stitch: func(id string, ws []predstore.Window, eps float64) (Polished, error) {
		cancel()
		return Assemble(id, ws, eps)
	}}
	results := p.Run(ctx, groups)
	if len(results) != 5 {
		t.Fatalf("%d results", len(results))
	}
	if results[0].Err != nil || string(results[0].Polished.Seq) != "AACGGGAAC" {
		t.Fatalf("in-flight contig: %+v", results[0])
	}
	for i, r := range results {
		if r.Contig != fmt.Sprintf("c%d", i) {
			t.Fatalf("result %d is %s", i, r.Contig)
		}
	}
	if Classify(results[4].Err) != KindCanceled {
		t.Fatalf("last contig: %v", results[4].Err)
	}
}

func TestWithFailuresAndReport(t *testing.T) {
	results := []Result{
		{Contig: "b", Polished: Polished{Contig: "b"}},
		{Contig: "d", Err: &winindex.CoverageGapError{Contig: "d", Start: 1, End: 2}},
	}
	failed := map[string]error{
		"a": &predstore.FormatError{Contig: "a", Reason: "bad"},
		"d": errors.New("ignored, already present"),
		"c": &resolve.InternalConsistencyError{Contig: "c"},
	}
	all := WithFailures(results, failed)
	var ids []string
	for _, r := range all {
		ids = append(ids, r.Contig)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c", "d"}) {
		t.Fatalf("WithFailures = %v", ids)
	}
	rep := NewReport(all, 0)
	if !rep.Failed() || rep.NumFailed() != 3 || !reflect.DeepEqual(rep.Succeeded, []string{"b"}) {
		t.Fatalf("Report = %+v", rep)
	}
	if !reflect.DeepEqual(rep.Failures[KindFormat], []string{"a"}) || !reflect.DeepEqual(rep.Failures[KindInternal], []string{"c"}) {
		t.Fatalf("Failures = %v", rep.Failures)
	}
	rep.Log()

	clean := NewReport([]Result{{Contig: "x"}}, 0)
	if clean.Failed() {
		t.Fatal("clean run reported failure")
	}
	if !NewReport(nil, 2).Failed() {
		t.Fatal("orphan records not reported")
	}
	if Classify(errors.New("boom")) != KindOther {
		t.Fatal("Classify other")
	}
}
