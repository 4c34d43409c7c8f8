package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jwaldrip/odin/cli"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/cfg"
	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/utils"
	"github.com/mudesheng/polish/winindex"
)

type optionsStat struct {
	utils.ArgsOpt
	Input string
}

func checkArgsStat(c cli.Command) (opt optionsStat, suc bool) {
	gOpt, err := utils.CheckGlobalArgs(c.Parent())
	if err != nil {
		log.Errorf("[checkArgsStat] check global Arguments error: %v", err)
		return opt, false
	}
	opt.ArgsOpt = gOpt
	opt.Input = c.Flag("input").String()
	if opt.Input == "" {
		log.Errorf("[checkArgsStat] args 'input' not set")
		return opt, false
	}
	return opt, true
}

// Stat is the stat subcommand; it prints one line per contig of the store.
func Stat(c cli.Command) {
	opt, suc := checkArgsStat(c)
	if !suc {
		os.Exit(exitError)
	}
	stop := startProfile(opt.Cpuprofile)
	code, err := runStat(os.Stdout, opt)
	stop()
	if err != nil {
		log.Errorf("[Stat] %v", err)
	}
	if code != exitOK {
		os.Exit(code)
	}
}

func runStat(w io.Writer, opt optionsStat) (int, error) {
	ci, err := cfg.ParseCfg(opt.CfgFn)
	if err != nil {
		return exitError, err
	}
	r, err := predstore.Open(opt.Input, predstore.Options{RunLengthClasses: ci.RunLengthClasses, Tolerance: ci.Tolerance})
	if err != nil {
		return exitError, err
	}
	coll, err := predstore.Collect(r, true)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return exitError, fmt.Errorf("[runStat] read %s: %w", opt.Input, err)
	}
	if err := writeStat(w, coll, opt.NumCPU); err != nil {
		return exitError, err
	}
	if len(coll.Failed) > 0 || len(coll.Orphans) > 0 {
		return exitFailed, nil
	}
	return exitOK, nil
}

// writeStat writes a TSV with the tiling of every contig: window count,
// covered range, gaps and mean per-position confidence. Damaged
// contigs get one format row carrying the error.
func writeStat(w io.Writer, coll *predstore.Collection, threads int) error {
	indexed, gapped := winindex.IndexAll(coll.Groups, threads)
	ids := coll.Contigs()

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#contig\tstatus\twindows\tstart\tend\tgaps\tmean_confidence\tmessage")
	for _, id := range ids {
		if err, ok := coll.Failed[id]; ok {
			msg := strings.NewReplacer("\t", " ", "\n", " ").Replace(err.Error())
			fmt.Fprintf(bw, "%s\tformat\t0\t0\t0\t\t0\t%s\n", id, msg)
			continue
		}
		ws := coll.Groups[id]
		status := "ok"
		c := indexed[id]
		if c == nil {
			status = "coverage-gap"
			ws = append([]predstore.Window(nil), ws...)
			winindex.Sort(ws)
		} else {
			ws = c.Windows
		}
		start, end := ws[0].Start, ws[0].End
		for _, win := range ws {
			end = utils.MaxInt(end, win.End)
		}
		var gaps []byte
		for i, g := range winindex.Gaps(ws) {
			if i > 0 {
				gaps = append(gaps, ',')
			}
			gaps = strconv.AppendInt(gaps, int64(g[0]), 10)
			gaps = append(gaps, '-')
			gaps = strconv.AppendInt(gaps, int64(g[1]), 10)
		}
		if gapped[id] != nil {
			log.Debugf("[writeStat] %v", gapped[id])
		}
		fmt.Fprintf(bw, "%s\t%s\t%d\t%d\t%d\t%s\t%.4f\t\n", id, status, len(ws), start, end, gaps, meanConfidence(ws))
	}
	if len(coll.Orphans) > 0 {
		fmt.Fprintf(bw, "# %d malformed records without a contig id\n", len(coll.Orphans))
	}
	return bw.Flush()
}

func meanConfidence(ws []predstore.Window) float64 {
	var sum float64
	n := 0
	for i := range ws {
		for pos := ws[i].Start; pos < ws[i].End; pos++ {
			sum += ws[i].Confidence(pos)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
