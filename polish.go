package main

import (
	"os"
	"runtime/pprof"

	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"
)

const (
	exitOK     = 0
	exitFailed = 1 // at least one contig was not polished
	exitError  = 2 // the run itself could not complete
)

var app = cli.New("1.0.0", "stitch windowed consensus predictions into polished contigs", func(c cli.Command) {})

func init() {
	app.DefineStringFlag("C", "", "configure file, empty for defaults")
	app.DefineStringFlag("cpuprofile", "", "write cpu profile to file")
	app.DefineStringFlag("p", "polish", "prefix of the output file")
	app.DefineIntFlag("t", 0, "number of CPU used, 0 for all")
	stitch := app.DefineSubCommand("stitch", "stitch prediction windows into polished contigs", Stitch)
	{
		stitch.DefineStringFlag("input", "", "prediction store file[.zst|.gz|.br]")
		stitch.DefineStringFlag("output", "./", "output directory")
		stitch.DefineStringFlag("draft", "", "draft assembly[.fa|.bam|.sam], contigs without predictions are reported")
		stitch.DefineBoolFlag("Graph", false, "output window tiling dot graph file")
	}
	stat := app.DefineSubCommand("stat", "summarise the windows of a prediction store", Stat)
	{
		stat.DefineStringFlag("input", "", "prediction store file[.zst|.gz|.br]")
	}
	simwin := app.DefineSubCommand("simwin", "simulate a prediction store from a fasta file", SimulateWindows)
	{
		simwin.DefineStringFlag("input", "", "input fasta file")
		simwin.DefineStringFlag("output", "sim.pred.zst", "output prediction store file")
		simwin.DefineIntFlag("Width", 1000, "window width in run-length compressed positions")
		simwin.DefineIntFlag("Step", 500, "distance between window starts")
		simwin.DefineFloat64Flag("Noise", 0.0, "probability a window calls a wrong base[0~1]")
		simwin.DefineInt64Flag("Seed", 1, "random seed")
	}
}

// startProfile starts the cpu profile when fn is set; the returned func stops it.
func startProfile(fn string) func() {
	if fn == "" {
		return func() {}
	}
	fp, err := os.Create(fn)
	if err != nil {
		log.Errorf("[startProfile] open cpuprofile file: %v failed: %v", fn, err)
		return func() {}
	}
	if err := pprof.StartCPUProfile(fp); err != nil {
		log.Errorf("[startProfile] %v", err)
		fp.Close()
		return func() {}
	}
	return func() {
		pprof.StopCPUProfile()
		fp.Close()
	}
}

func main() {
	app.Start()
}
