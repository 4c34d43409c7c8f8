// Package draft lists the contigs of the draft assembly being polished,
// either from its FASTA file or from the header of reads aligned to it.
package draft

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/mudesheng/polish/predstore"
)

// Contig is a draft contig name and its length in bases.
type Contig struct {
	Name string
	Len  int
}

// Catalog reads the contigs of fn. Files ending in .bam or .sam are read
// through their header; anything else is FASTA, optionally compressed.
func Catalog(fn string, numCPU int) ([]Contig, error) {
	switch {
	case strings.HasSuffix(fn, ".bam"):
		return bamCatalog(fn, numCPU)
	case strings.HasSuffix(fn, ".sam"):
		return samCatalog(fn)
	}
	return fastaCatalog(fn)
}

func fastaCatalog(fn string) ([]Contig, error) {
	rc, err := predstore.OpenCompressed(fn)
	if err != nil {
		return nil, fmt.Errorf("[fastaCatalog] open file: %s failed, err: %w", fn, err)
	}
	defer rc.Close()
	return ReadFasta(rc)
}

// ReadFasta lists the records of a FASTA stream.
func ReadFasta(r io.Reader) ([]Contig, error) {
	var cs []Contig
	fafp := fasta.NewReader(bufio.NewReader(r), linear.NewSeq("", nil, alphabet.DNA))
	for {
		s, err := fafp.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("[ReadFasta] %w", err)
		}
		cs = append(cs, Contig{Name: s.Name(), Len: s.Len()})
	}
	return cs, nil
}

func refContigs(h *sam.Header) []Contig {
	refs := h.Refs()
	cs := make([]Contig, 0, len(refs))
	for _, ref := range refs {
		cs = append(cs, Contig{Name: ref.Name(), Len: ref.Len()})
	}
	return cs
}

func bamCatalog(fn string, numCPU int) ([]Contig, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("[bamCatalog] open file: %s failed, err: %w", fn, err)
	}
	defer fp.Close()
	bamfp, err := bam.NewReader(fp, numCPU/5+1)
	if err != nil {
		return nil, fmt.Errorf("[bamCatalog] create bam.NewReader err: %w", err)
	}
	defer bamfp.Close()
	return refContigs(bamfp.Header()), nil
}

func samCatalog(fn string) ([]Contig, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("[samCatalog] open file: %s failed, err: %w", fn, err)
	}
	defer fp.Close()
	samfp, err := sam.NewReader(bufio.NewReader(fp))
	if err != nil {
		return nil, fmt.Errorf("[samCatalog] create sam.NewReader err: %w", err)
	}
	return refContigs(samfp.Header()), nil
}

// Missing returns, in ascending order, the catalog contigs that are not
// in seen.
func Missing(cat []Contig, seen map[string]bool) []string {
	var ids []string
	for _, c := range cat {
		if !seen[c.Name] {
			ids = append(ids, c.Name)
		}
	}
	sort.Strings(ids)
	return ids
}
