package predstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// peaked returns a distribution of width n with mass p on label i and
// the rest spread evenly over the other labels.
func peaked(n, i int, p float64) []float64 {
	v := make([]float64, n)
	rest := (1 - p) / float64(n-1)
	for j := range v {
		v[j] = rest
	}
	v[i] = p
	return v
}

func testWindow(contig string, start int, bases []uint8, rls []int, conf []float64) Window {
	w := Window{Contig: contig, Start: start, End: start + len(bases)}
	for i := range bases {
		w.Bases = append(w.Bases, peaked(int(NumBases), int(bases[i]), conf[i]))
		w.RunLengths = append(w.RunLengths, peaked(6, rls[i], 0.9))
	}
	return w
}

func readAll(t *testing.T, r *Reader) ([]Window, []error) {
	t.Helper()
	var ws []Window
	var errs []error
	for {
		w, err := r.Read()
		if err == io.EOF {
			return ws, errs
		}
		if err != nil {
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Read: %v", err)
			}
			errs = append(errs, err)
			continue
		}
		ws = append(ws, w)
	}
}

func TestProposal(t *testing.T) {
	w := testWindow("ctg", 10, []uint8{BaseA, Gap, BaseT}, []int{2, 0, 5}, []float64{0.9, 0.6, 0.95})
	want := []Proposal{{BaseA, 2, 0.9}, {Gap, 0, 0.6}, {BaseT, 5, 0.95}}
	for i, p := range want {
		if got := w.Proposal(10 + i); got != p {
			t.Fatalf("Proposal(%d) = %+v, want %+v", 10+i, got, p)
		}
	}
	w.Compact()
	if !w.Compacted() || w.Bases != nil {
		t.Fatal("Compact kept distributions")
	}
	for i, p := range want {
		if got := w.Proposal(10 + i); got != p {
			t.Fatalf("compacted Proposal(%d) = %+v, want %+v", 10+i, got, p)
		}
	}
	if w.Confidence(12) != 0.95 || !w.Contains(12) || w.Contains(13) {
		t.Fatal("Confidence/Contains mismatch")
	}
}

func TestArgmaxTiePicksLowestLabel(t *testing.T) {
	p := propose([]float64{0, 0.4, 0.4, 0.1, 0.1}, []float64{0.5, 0.5})
	if p.Base != BaseA || p.RunLength != 0 {
		t.Fatalf("propose = %+v", p)
	}
}

func TestWriteRead(t *testing.T) {
	in := []Window{
		testWindow("chr2", 0, []uint8{BaseA, BaseC}, []int{1, 3}, []float64{0.7, 0.8}),
		testWindow("chr1", 5, []uint8{BaseG}, []int{4}, []float64{0.99}),
	}
	for _, suffix := range []string{"", ".zst", ".gz", ".br"} {
		t.Run("suffix"+suffix, func(t *testing.T) {
			fn := filepath.Join(t.TempDir(), "pred.tsv"+suffix)
			w, err := Create(fn)
			if err != nil {
				t.Fatal(err)
			}
			if err := w.WriteHeader(); err != nil {
				t.Fatal(err)
			}
			for _, win := range in {
				if err := w.Write(win); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
			for pass := 0; pass < 2; pass++ {
				r, err := Open(fn, Options{})
				if err != nil {
					t.Fatal(err)
				}
				got, errs := readAll(t, r)
				r.Close()
				if len(errs) != 0 {
					t.Fatalf("pass %d: format errors %v", pass, errs)
				}
				if !reflect.DeepEqual(got, in) {
					t.Fatalf("pass %d: read %+v, want %+v", pass, got, in)
				}
				if r.RunLengthClasses() != 6 {
					t.Fatalf("inferred %d run-length classes", r.RunLengthClasses())
				}
			}
		})
	}
}

func TestWriteCompacted(t *testing.T) {
	w := testWindow("c", 0, []uint8{BaseA}, []int{1}, []float64{0.9})
	w.Compact()
	if err := NewWriter(io.Discard).Write(w); err != ErrCompacted {
		t.Fatalf("Write compacted = %v", err)
	}
}

func TestFormatErrors(t *testing.T) {
	good := "0.1,0.6,0.1,0.1,0.1"
	rl := "0,1"
	for _, tc := range []struct {
		name, line, contig string
	}{
		{"no contig", "\t0\t1\t" + good + "\t" + rl, ""},
		{"few fields", "c\t0\t1\t" + good, "c"},
		{"bad start", "c\tx\t1\t" + good + "\t" + rl, "c"},
		{"empty range", "c\t3\t3\t" + good + "\t" + rl, "c"},
		{"negative", "c\t-1\t1\t" + good + "\t" + rl, "c"},
		{"short bases", "c\t0\t2\t" + good + "\t" + rl + ";" + rl, "c"},
		{"long bases", "c\t0\t1\t" + good + ";" + good + "\t" + rl, "c"},
		{"trailing sep", "c\t0\t1\t" + good + ";\t" + rl, "c"},
		{"base width", "c\t0\t1\t0.5,0.5\t" + rl, "c"},
		{"not normalised", "c\t0\t1\t0.2,0.2,0.2,0.2,0.1\t" + rl, "c"},
		{"nan", "c\t0\t1\tNaN,0.6,0.1,0.1,0.1\t" + rl, "c"},
		{"inf", "c\t0\t1\t" + good + "\t+Inf,0", "c"},
		{"negative prob", "c\t0\t1\t-0.1,0.8,0.1,0.1,0.1\t" + rl, "c"},
		{"garbage", "c\t0\t1\t" + good + "\t0,abc", "c"},
		{"rl width", "c\t0\t1\t" + good + "\t0,0.5,0.5", "c"},
		{"huge range", "c\t0\t4000000000000000000\t" + good + "\t" + rl, "c"},
		{"large range", "c\t0\t1000000000\t" + good + "\t" + rl, "c"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tc.line+"\n"), Options{RunLengthClasses: 2})
			_, err := r.Read()
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("Read = %v, want *FormatError", err)
			}
			if fe.Contig != tc.contig || fe.Line != 1 {
				t.Fatalf("FormatError = %+v", fe)
			}
			if _, err := r.Read(); err != io.EOF {
				t.Fatalf("second Read = %v, want EOF", err)
			}
		})
	}
}

func TestInferredWidthMustStayConstant(t *testing.T) {
	in := "#header\n\nc\t0\t1\t1,0,0,0,0\t0,1\r\nd\t0\t1\t1,0,0,0,0\t0,0,1\n"
	r := NewReader(strings.NewReader(in), Options{})
	ws, errs := readAll(t, r)
	if len(ws) != 1 || len(errs) != 1 {
		t.Fatalf("got %d windows, %d errors", len(ws), len(errs))
	}
	var fe *FormatError
	if !errors.As(errs[0], &fe) || fe.Contig != "d" || fe.Line != 4 {
		t.Fatalf("error = %v", errs[0])
	}
}

func TestLongLine(t *testing.T) {
	w := Window{Contig: "long", Start: 0, End: 5000}
	for i := 0; i < w.Len(); i++ {
		w.Bases = append(w.Bases, peaked(int(NumBases), i%int(NumBases), 0.5))
		w.RunLengths = append(w.RunLengths, peaked(11, i%11, 0.5))
	}
	var sb strings.Builder
	sw := NewWriter(&sb)
	if err := sw.Write(w); err != nil {
		t.Fatal(err)
	}
	sw.Close()
	got, errs := readAll(t, NewReader(strings.NewReader(sb.String()), Options{RunLengthClasses: 11}))
	if len(errs) != 0 || len(got) != 1 || !reflect.DeepEqual(got[0], w) {
		t.Fatalf("long line round trip failed: %d windows, errs %v", len(got), errs)
	}
}

func TestCollect(t *testing.T) {
	var sb strings.Builder
	sw := NewWriter(&sb)
	sw.Write(testWindow("b", 0, []uint8{BaseA, BaseC}, []int{1, 1}, []float64{0.9, 0.9}))
	sw.Write(testWindow("a", 2, []uint8{BaseT}, []int{2}, []float64{0.8}))
	sw.Write(testWindow("a", 0, []uint8{BaseT, BaseG}, []int{2, 1}, []float64{0.8, 0.7}))
	sw.Close()
	sb.WriteString("b\t9\t1\t1,0,0,0,0\t" + "0,1,0,0,0,0\n")
	sb.WriteString("b\t4\t5\t1,0,0,0,0\t" + "0,1,0,0,0,0\n")
	sb.WriteString("\tgarbage\n")

	c, err := Collect(NewReader(strings.NewReader(sb.String()), Options{}), true)
	if err != nil {
		t.Fatal(err)
	}
	if c.Records != 6 {
		t.Fatalf("Records = %d", c.Records)
	}
	if len(c.Groups) != 1 || len(c.Groups["a"]) != 2 {
		t.Fatalf("Groups = %v", c.Groups)
	}
	if !c.Groups["a"][0].Compacted() {
		t.Fatal("windows not compacted")
	}
	if _, ok := c.Failed["b"]; !ok || len(c.Failed) != 1 {
		t.Fatalf("Failed = %v", c.Failed)
	}
	if len(c.Orphans) != 1 {
		t.Fatalf("Orphans = %v", c.Orphans)
	}
	if got := c.Contigs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Contigs = %v", got)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zst"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open missing = %v", err)
	}
}

func BenchmarkRead(b *testing.B) {
	w := Window{Contig: "bench", Start: 0, End: 1000}
	for i := 0; i < w.Len(); i++ {
		w.Bases = append(w.Bases, peaked(int(NumBases), i%int(NumBases), 0.8))
		w.RunLengths = append(w.RunLengths, peaked(51, 1, 0.8))
	}
	var sb strings.Builder
	sw := NewWriter(&sb)
	sw.Write(w)
	sw.Close()
	line := sb.String()
	b.SetBytes(int64(len(line)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r := NewReader(strings.NewReader(line), Options{RunLengthClasses: 51})
		if _, err := r.Read(); err != nil {
			b.Fatal(err)
		}
	}
}
