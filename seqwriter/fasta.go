// Package seqwriter writes polished contigs, the run summary and the
// window tiling graph.
package seqwriter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/assemble"
	"github.com/mudesheng/polish/predstore"
)

const bufSize = 1 << 20

// WriteFasta writes seqs to path in ascending contig order, width
// letters per line (one line per sequence when width <= 0). The file
// is written under a temporary name and renamed once complete, so a
// failure never leaves a partial record at path.
func WriteFasta(path string, seqs []assemble.Polished, width int) (err error) {
	sorted := make([]assemble.Polished, len(seqs))
	copy(sorted, seqs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Contig < sorted[j].Contig })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Contig == sorted[i-1].Contig {
			return fmt.Errorf("[WriteFasta] contig %s appears twice", sorted[i].Contig)
		}
	}

	fp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("[WriteFasta] %w", err)
	}
	tmp := fp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()
	wc, err := predstore.NewCompressedWriter(fp, path)
	if err != nil {
		fp.Close()
		return fmt.Errorf("[WriteFasta] %s: %w", path, err)
	}
	bw := bufio.NewWriterSize(wc, bufSize)
	fw := fasta.NewWriter(bw, width)
	total := 0
	for _, p := range sorted {
		if width <= 0 {
			fw.Width = len(p.Seq)
			if fw.Width == 0 {
				fw.Width = 1
			}
		}
		s := linear.NewSeq(p.Contig, alphabet.BytesToLetters(p.Seq), alphabet.DNA)
		if _, err = fw.Write(s); err != nil {
			wc.Close()
			return fmt.Errorf("[WriteFasta] write %s: %w", p.Contig, err)
		}
		total += len(p.Seq)
	}
	if err = bw.Flush(); err != nil {
		wc.Close()
		return fmt.Errorf("[WriteFasta] %s: %w", path, err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("[WriteFasta] %s: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("[WriteFasta] %w", err)
	}
	log.Infof("[WriteFasta] %s: %d contigs, %d bases", path, len(sorted), total)
	return nil
}
