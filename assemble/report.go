package assemble

import (
	"context"
	"errors"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/predstore"
	"github.com/mudesheng/polish/resolve"
	"github.com/mudesheng/polish/winindex"
)

// Kind names the class of a per-contig failure.
type Kind string

const (
	KindNone        Kind = ""
	KindFormat      Kind = "format"
	KindCoverageGap Kind = "coverage-gap"
	KindInternal    Kind = "internal"
	KindCanceled    Kind = "canceled"
	KindOther       Kind = "other"
)

// Classify maps a contig error to the failure kind reported in the summary.
func Classify(err error) Kind {
	var (
		fe *predstore.FormatError
		ge *winindex.CoverageGapError
		ie *resolve.InternalConsistencyError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &fe):
		return KindFormat
	case errors.As(err, &ge):
		return KindCoverageGap
	case errors.As(err, &ie):
		return KindInternal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	}
	return KindOther
}

// Report summarises a run.
type Report struct {
	Succeeded []string
	Failures  map[Kind][]string
	Orphans   int // malformed records that name no contig
}

// NewReport groups results by outcome; orphans counts records without a contig id.
func NewReport(results []Result, orphans int) Report {
	rep := Report{Failures: make(map[Kind][]string), Orphans: orphans}
	for _, r := range results {
		if r.Err == nil {
			rep.Succeeded = append(rep.Succeeded, r.Contig)
			continue
		}
		k := Classify(r.Err)
		rep.Failures[k] = append(rep.Failures[k], r.Contig)
	}
	sort.Strings(rep.Succeeded)
	for _, ids := range rep.Failures {
		sort.Strings(ids)
	}
	return rep
}

// Failed reports whether any contig or record failed.
func (rep Report) Failed() bool {
	return len(rep.Failures) > 0 || rep.Orphans > 0
}

// NumFailed counts the failed contigs across all kinds.
func (rep Report) NumFailed() (n int) {
	for _, ids := range rep.Failures {
		n += len(ids)
	}
	return n
}

// Log writes the report at info level and each failure kind at warn level.
func (rep Report) Log() {
	log.Infof("[Report] %d contigs polished, %d failed", len(rep.Succeeded), rep.NumFailed())
	kinds := make([]string, 0, len(rep.Failures))
	for k := range rep.Failures {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		log.Warnf("[Report] %s: %v", k, rep.Failures[Kind(k)])
	}
	if rep.Orphans > 0 {
		log.Warnf("[Report] %d malformed records without a contig id", rep.Orphans)
	}
}
