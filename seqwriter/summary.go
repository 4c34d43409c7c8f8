package seqwriter

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/mudesheng/polish/assemble"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusNoPred = "nopred"
)

// SummaryHeader names the columns written by WriteSummary.
var SummaryHeader = []string{"contig", "status", "kind", "length", "positions", "windows", "mean_confidence", "xxhash64", "message"}

// Digest is the xxhash64 of a polished sequence as 16 hex digits.
func Digest(seq []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(seq))
}

type summaryRow struct {
	contig string
	fields []string
}

// WriteSummary writes one TSV row per result and per missing contig, in
// ascending contig order.
func WriteSummary(path string, results []assemble.Result, missing []string) error {
	rows := make([]summaryRow, 0, len(results)+len(missing))
	for _, r := range results {
		if r.Err != nil {
			msg := strings.NewReplacer("\t", " ", "\n", " ").Replace(r.Err.Error())
			rows = append(rows, summaryRow{r.Contig, []string{r.Contig, StatusFailed, string(assemble.Classify(r.Err)), "0", "0", "0", "0", "", msg}})
			continue
		}
		p := r.Polished
		rows = append(rows, summaryRow{r.Contig, []string{
			r.Contig, StatusOK, "",
			strconv.Itoa(len(p.Seq)),
			strconv.Itoa(p.Positions),
			strconv.Itoa(p.Windows),
			strconv.FormatFloat(p.MeanConfidence, 'f', 4, 64),
			Digest(p.Seq),
			"",
		}})
	}
	for _, id := range missing {
		rows = append(rows, summaryRow{id, []string{id, StatusNoPred, "", "0", "0", "0", "0", "", "no prediction windows"}})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].contig < rows[j].contig })

	fp, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[WriteSummary] %w", err)
	}
	bw := bufio.NewWriter(fp)
	bw.WriteString(strings.Join(SummaryHeader, "\t") + "\n")
	for _, r := range rows {
		bw.WriteString(strings.Join(r.fields, "\t") + "\n")
	}
	if err = bw.Flush(); err != nil {
		fp.Close()
		return fmt.Errorf("[WriteSummary] %s: %w", path, err)
	}
	return fp.Close()
}
