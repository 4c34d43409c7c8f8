package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/assemble"
	"github.com/mudesheng/polish/cfg"
	"github.com/mudesheng/polish/draft"
	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/seqwriter"
	"github.com/mudesheng/polish/utils"
)

type optionsStitch struct {
	utils.ArgsOpt
	Input  string
	Output string
	Draft  string
	Graph  bool
}

func checkArgsStitch(c cli.Command) (opt optionsStitch, suc bool) {
	gOpt, err := utils.CheckGlobalArgs(c.Parent())
	if err != nil {
		log.Errorf("[checkArgsStitch] check global Arguments error: %v", err)
		return opt, false
	}
	opt.ArgsOpt = gOpt
	opt.Input = c.Flag("input").String()
	if opt.Input == "" {
		log.Errorf("[checkArgsStitch] args 'input' not set")
		return opt, false
	}
	opt.Output = c.Flag("output").String()
	if opt.Output == "" {
		log.Errorf("[checkArgsStitch] args 'output' not set")
		return opt, false
	}
	opt.Draft = c.Flag("draft").String()
	var ok bool
	if opt.Graph, ok = c.Flag("Graph").Get().(bool); !ok {
		log.Errorf("[checkArgsStitch] args 'Graph': %v must be true|false", c.Flag("Graph"))
		return opt, false
	}
	return opt, true
}

// outputs names the files written by a stitch run.
type outputs struct {
	Fasta   string
	Summary string
	Graph   string
}

func outputPaths(opt optionsStitch, ci cfg.CfgInfo) outputs {
	base := filepath.Join(opt.Output, opt.Prefix)
	return outputs{
		Fasta:   base + "_consensus.fa" + ci.Suffix(),
		Summary: base + "_consensus.summary.tsv",
		Graph:   base + "_tiling.dot",
	}
}

// Stitch is the stitch subcommand.
func Stitch(c cli.Command) {
	opt, suc := checkArgsStitch(c)
	if !suc {
		os.Exit(exitError)
	}
	log.Infof("[Stitch] opt: %+v", opt)
	stop := startProfile(opt.Cpuprofile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := runStitch(ctx, opt)
	cancel()
	stop()
	if err != nil {
		log.Errorf("[Stitch] %v", err)
	}
	if code != exitOK {
		os.Exit(code)
	}
}

// runStitch polishes every contig of the store and writes the outputs.
// The exit code is exitError whenever err is set.
func runStitch(ctx context.Context, opt optionsStitch) (int, error) {
	t0 := time.Now()
	ci, err := cfg.ParseCfg(opt.CfgFn)
	if err != nil {
		return exitError, err
	}
	if ci.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Debugf("[runStitch] cfg: %+v", ci)
	if err := os.MkdirAll(opt.Output, 0o755); err != nil {
		return exitError, fmt.Errorf("[runStitch] create output dir: %w", err)
	}
	out := outputPaths(opt, ci)

	r, err := predstore.Open(opt.Input, predstore.Options{RunLengthClasses: ci.RunLengthClasses, Tolerance: ci.Tolerance})
	if err != nil {
		return exitError, err
	}
	coll, err := predstore.Collect(r, true)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return exitError, fmt.Errorf("[runStitch] read %s: %w", opt.Input, err)
	}
	log.Infof("[runStitch] read %d records, %d contigs, %d dropped, used: %v", coll.Records, len(coll.Groups), len(coll.Failed), time.Since(t0))

	var missing []string
	if opt.Draft != "" {
		cat, err := draft.Catalog(opt.Draft, opt.NumCPU)
		if err != nil {
			return exitError, err
		}
		seen := make(map[string]bool, len(coll.Groups)+len(coll.Failed))
		for id := range coll.Groups {
			seen[id] = true
		}
		for id := range coll.Failed {
			seen[id] = true
		}
		missing = draft.Missing(cat, seen)
		if len(missing) > 0 {
			log.Warnf("[runStitch] %d of %d draft contigs have no predictions", len(missing), len(cat))
		}
	}

	if opt.Graph {
		if err := seqwriter.WriteTilingGraph(out.Graph, coll.Groups); err != nil {
			return exitError, err
		}
	}

	pool := assemble.Pool{Threads: opt.NumCPU, Epsilon: ci.Epsilon}
	results := assemble.WithFailures(pool.Run(ctx, coll.Groups), coll.Failed)

	if err := seqwriter.WriteFasta(out.Fasta, assemble.Succeeded(results), ci.LineWidth); err != nil {
		return exitError, err
	}
	if err := seqwriter.WriteSummary(out.Summary, results, missing); err != nil {
		return exitError, err
	}

	rep := assemble.NewReport(results, len(coll.Orphans))
	rep.Log()
	log.Infof("[runStitch] wrote %s, total used: %v", out.Fasta, time.Since(t0))
	if rep.Failed() {
		return exitFailed, nil
	}
	return exitOK, nil
}
