package predstore

import (
	"errors"
	"fmt"
)

// FormatError reports a malformed prediction record. Contig is empty
// when the record is too damaged to name one.
type FormatError struct {
	Path   string
	Line   int
	Contig string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Contig == "" {
		return fmt.Sprintf("format error %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("format error %s:%d contig %s: %s", e.Path, e.Line, e.Contig, e.Reason)
}

// ErrCompacted is returned when writing a window whose distributions were released.
var ErrCompacted = errors.New("window distributions have been compacted")
