package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/cfg"
	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/rledecode"
	"github.com/mudesheng/polish/utils"
)

// DefaultRunLengthClasses is the run-length label width written by simwin
// when the configuration leaves it to the store.
const DefaultRunLengthClasses = 51

type optionsSimWin struct {
	utils.ArgsOpt
	Input  string
	Output string
	Width  int
	Step   int
	Noise  float64
	Seed   int64
}

func checkArgsSimWin(c cli.Command) (opt optionsSimWin, suc bool) {
	gOpt, err := utils.CheckGlobalArgs(c.Parent())
	if err != nil {
		log.Errorf("[checkArgsSimWin] check global Arguments error: %v", err)
		return opt, false
	}
	opt.ArgsOpt = gOpt
	opt.Input = c.Flag("input").String()
	opt.Output = c.Flag("output").String()
	if opt.Input == "" || opt.Output == "" {
		log.Errorf("[checkArgsSimWin] args 'input' and 'output' must be set")
		return opt, false
	}
	opt.Width = c.Flag("Width").Get().(int)
	opt.Step = c.Flag("Step").Get().(int)
	if opt.Width < 1 || opt.Step < 1 {
		log.Errorf("[checkArgsSimWin] args 'Width': %d and 'Step': %d must be >= 1", opt.Width, opt.Step)
		return opt, false
	}
	opt.Noise = c.Flag("Noise").Get().(float64)
	if opt.Noise < 0 || opt.Noise > 1 {
		log.Errorf("[checkArgsSimWin] args 'Noise': %v must [0 ~ 1]", opt.Noise)
		return opt, false
	}
	opt.Seed = c.Flag("Seed").Get().(int64)
	return opt, true
}

// SimulateWindows is the simwin subcommand. It run-length compresses
// every FASTA record and writes overlapping windows whose distributions
// peak on the true labels, so stitching the store restores the input.
func SimulateWindows(c cli.Command) {
	opt, suc := checkArgsSimWin(c)
	if !suc {
		os.Exit(exitError)
	}
	log.Infof("[SimulateWindows] opt: %+v", opt)
	if err := runSimWin(opt); err != nil {
		log.Errorf("[SimulateWindows] %v", err)
		os.Exit(exitError)
	}
}

func runSimWin(opt optionsSimWin) (err error) {
	ci, err := cfg.ParseCfg(opt.CfgFn)
	if err != nil {
		return err
	}
	classes := ci.RunLengthClasses
	if classes == 0 {
		classes = DefaultRunLengthClasses
	}
	if classes < 2 {
		return fmt.Errorf("[runSimWin] rle_classes: %d must be >= 2", classes)
	}
	in, err := predstore.OpenCompressed(opt.Input)
	if err != nil {
		return fmt.Errorf("[runSimWin] open file: %s failed, err: %w", opt.Input, err)
	}
	defer in.Close()
	w, err := predstore.Create(opt.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	if err = w.WriteHeader(); err != nil {
		return err
	}

	sim := simulator{opt: opt, classes: classes, rng: rand.New(rand.NewSource(opt.Seed))}
	fafp := fasta.NewReader(bufio.NewReader(in), linear.NewSeq("", nil, alphabet.DNA))
	records, windows := 0, 0
	for {
		s, err := fafp.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("[runSimWin] read %s: %w", opt.Input, err)
		}
		l := s.(*linear.Seq)
		seq := make([]byte, len(l.Seq))
		for j, v := range l.Seq {
			seq[j] = byte(v)
		}
		n, err := sim.contig(w, l.Name(), seq)
		if err != nil {
			return err
		}
		records++
		windows += n
	}
	if sim.clamped > 0 {
		log.Warnf("[runSimWin] %d runs longer than %d were clamped", sim.clamped, classes-1)
	}
	log.Infof("[runSimWin] wrote %d windows for %d contigs to %s", windows, records, opt.Output)
	return nil
}

type simulator struct {
	opt     optionsSimWin
	classes int
	rng     *rand.Rand
	clamped int
}

// contig writes the windows of one sequence and returns how many.
func (s *simulator) contig(w *predstore.Writer, id string, seq []byte) (int, error) {
	bases, runs, err := rledecode.Encode(seq)
	if err != nil {
		return 0, fmt.Errorf("[simulator.contig] %s: %w", id, err)
	}
	if len(bases) == 0 {
		log.Warnf("[simulator.contig] %s is empty, skipped", id)
		return 0, nil
	}
	for i, r := range runs {
		if r >= s.classes {
			runs[i] = s.classes - 1
			s.clamped++
		}
	}
	n := 0
	for start := 0; start < len(bases); start += s.opt.Step {
		end := utils.MinInt(start+s.opt.Width, len(bases))
		if err := w.Write(s.window(id, start, end, bases, runs)); err != nil {
			return n, err
		}
		n++
		if end == len(bases) {
			break
		}
	}
	return n, nil
}

func (s *simulator) window(id string, start, end int, bases []uint8, runs []int) predstore.Window {
	win := predstore.Window{Contig: id, Start: start, End: end}
	win.Bases = make([][]float64, 0, end-start)
	win.RunLengths = make([][]float64, 0, end-start)
	for pos := start; pos < end; pos++ {
		b, c := int(bases[pos]), 0.8+0.2*s.rng.Float64()
		if s.rng.Float64() < s.opt.Noise {
			nb := int(predstore.NumBases)
			b = (b + 1 + s.rng.Intn(nb-1)) % nb
			c = 0.4 + 0.2*s.rng.Float64()
		}
		win.Bases = append(win.Bases, peaked(int(predstore.NumBases), b, c))
		win.RunLengths = append(win.RunLengths, peaked(s.classes, runs[pos], 0.8+0.2*s.rng.Float64()))
	}
	return win
}

// peaked returns a distribution of width n with mass c on label peak and
// the rest spread evenly.
func peaked(n, peak int, c float64) []float64 {
	v := make([]float64, n)
	rest := (1 - c) / float64(n-1)
	for i := range v {
		v[i] = rest
	}
	v[peak] = c
	return v
}
