package predstore

import (
	"errors"
	"io"
	"sort"

	log "github.com/sirupsen/logrus"
)

// Collection holds every window of a store grouped by contig.
type Collection struct {
	Groups  map[string][]Window
	Failed  map[string]error // first FormatError of each damaged contig
	Orphans []error          // format errors on records without a contig id
	Records int
}

// Contigs lists every contig seen, valid or damaged, in ascending order.
func (c *Collection) Contigs() []string {
	ids := make([]string, 0, len(c.Groups)+len(c.Failed))
	for id := range c.Groups {
		ids = append(ids, id)
	}
	for id := range c.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Collect drains r. A contig with a malformed record is moved to
// Failed and none of its windows are kept. compact releases the
// distributions of each window once validated.
func Collect(r *Reader, compact bool) (*Collection, error) {
	c := &Collection{Groups: make(map[string][]Window), Failed: make(map[string]error)}
	for {
		w, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var fe *FormatError
			if !errors.As(err, &fe) {
				return nil, err
			}
			c.Records++
			if fe.Contig == "" {
				log.Warnf("[Collect] %v", fe)
				c.Orphans = append(c.Orphans, fe)
				continue
			}
			if c.Failed[fe.Contig] == nil {
				log.Warnf("[Collect] contig %s dropped: %v", fe.Contig, fe)
				c.Failed[fe.Contig] = fe
				delete(c.Groups, fe.Contig)
			}
			continue
		}
		c.Records++
		if c.Failed[w.Contig] != nil {
			continue
		}
		if compact {
			w.Compact()
		}
		c.Groups[w.Contig] = append(c.Groups[w.Contig], w)
	}
	log.Infof("[Collect] %d records, %d contigs, %d damaged", c.Records, len(c.Groups), len(c.Failed))
	return c, nil
}
