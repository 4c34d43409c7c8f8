package predstore

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/mudesheng/polish/utils"
)

const (
	fieldNum      = 5
	defaultTol    = 1e-3
	readerBufSize = 1 << 16
)

type Options struct {
	// RunLengthClasses is the run-length vector width; 0 takes it from
	// the first valid record.
	RunLengthClasses int
	// Tolerance is the allowed |sum-1| of a probability vector.
	Tolerance float64
}

// Reader iterates over the records of a prediction store. It is not
// safe for concurrent use.
type Reader struct {
	path     string
	rc       io.ReadCloser
	br       *bufio.Reader
	buf      []byte
	line     int
	rleWidth int
	tol      float64
	err      error
}

// Open opens a store file. Opening the same path again yields the same
// record sequence.
func Open(path string, opt Options) (*Reader, error) {
	rc, err := OpenCompressed(path)
	if err != nil {
		return nil, fmt.Errorf("[Open] prediction store %s: %w", path, err)
	}
	r := NewReader(rc, opt)
	r.path = path
	r.rc = rc
	return r, nil
}

// NewReader reads records from in. The caller keeps ownership of in.
func NewReader(in io.Reader, opt Options) *Reader {
	tol := opt.Tolerance
	if tol <= 0 {
		tol = defaultTol
	}
	return &Reader{
		path:     "-",
		br:       bufio.NewReaderSize(in, readerBufSize),
		rleWidth: opt.RunLengthClasses,
		tol:      tol,
	}
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// RunLengthClasses is the run-length vector width in force, 0 until
// it has been inferred.
func (r *Reader) RunLengthClasses() int { return r.rleWidth }

// Read returns the next window, io.EOF after the last one. A malformed
// record returns a *FormatError and the next call continues with the
// following record; any other error is sticky.
func (r *Reader) Read() (Window, error) {
	if r.err != nil {
		return Window{}, r.err
	}
	for {
		line, err := r.readLine()
		if err != nil && err != io.EOF {
			r.err = fmt.Errorf("[Read] %s: %w", r.path, err)
			return Window{}, r.err
		}
		if len(line) == 0 && err == io.EOF {
			r.err = io.EOF
			return Window{}, io.EOF
		}
		r.line++
		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		return r.parseRecord(line)
	}
}

func (r *Reader) readLine() ([]byte, error) {
	r.buf = r.buf[:0]
	for {
		bs, err := r.br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			r.buf = append(r.buf, bs...)
			continue
		}
		if len(r.buf) == 0 {
			return bs, err
		}
		r.buf = append(r.buf, bs...)
		return r.buf, err
	}
}

func (r *Reader) formatErr(contig, format string, args ...interface{}) *FormatError {
	return &FormatError{Path: r.path, Line: r.line, Contig: contig, Reason: fmt.Sprintf(format, args...)}
}

func splitTab(line []byte, fields [][]byte) [][]byte {
	fields = fields[:0]
	for {
		idx := bytes.IndexByte(line, '\t')
		if idx < 0 {
			return append(fields, line)
		}
		fields = append(fields, line[:idx])
		line = line[idx+1:]
	}
}

func (r *Reader) parseRecord(line []byte) (w Window, err error) {
	var arr [fieldNum + 1][]byte
	fields := splitTab(line, arr[:0])
	if len(fields[0]) == 0 {
		return w, r.formatErr("", "missing contig id")
	}
	contig := string(fields[0])
	if len(fields) != fieldNum {
		return w, r.formatErr(contig, "want %d tab-separated fields, got %d", fieldNum, len(fields))
	}
	start, e1 := utils.ByteArrInt(fields[1])
	end, e2 := utils.ByteArrInt(fields[2])
	if e1 != nil || e2 != nil {
		return w, r.formatErr(contig, "bad offsets %q %q", fields[1], fields[2])
	}
	if start >= end {
		return w, r.formatErr(contig, "start %d must be smaller than end %d", start, end)
	}
	n := end - start
	bases, err := r.parseVectors(contig, "base", fields[3], n, int(NumBases))
	if err != nil {
		return w, err
	}
	rleWidth := r.rleWidth
	rls, err := r.parseVectors(contig, "run-length", fields[4], n, rleWidth)
	if err != nil {
		return w, err
	}
	if r.rleWidth == 0 {
		r.rleWidth = len(rls[0])
		log.Debugf("[parseRecord] %s: run-length classes inferred as %d", r.path, r.rleWidth)
	}
	return Window{Contig: contig, Start: start, End: end, Bases: bases, RunLengths: rls}, nil
}

// parseVectors parses n ';'-separated vectors of width values each; a
// width of 0 accepts the width of the first vector.
func (r *Reader) parseVectors(contig, name string, field []byte, n, width int) ([][]float64, error) {
	if got := bytes.Count(field, []byte{';'}) + 1; got != n {
		return nil, r.formatErr(contig, "want %d %s vectors, got %d", n, name, got)
	}
	vs := make([][]float64, 0, n)
	for len(field) > 0 || len(vs) < n {
		if len(vs) == n {
			return nil, r.formatErr(contig, "more than %d %s vectors", n, name)
		}
		var vb []byte
		if idx := bytes.IndexByte(field, ';'); idx >= 0 {
			vb, field = field[:idx], field[idx+1:]
			if len(field) == 0 {
				return nil, r.formatErr(contig, "trailing ';' in %s vectors", name)
			}
		} else {
			vb, field = field, nil
		}
		v, err := r.parseVector(contig, name, len(vs), vb, width)
		if err != nil {
			return nil, err
		}
		if width == 0 {
			width = len(v)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

func (r *Reader) parseVector(contig, name string, i int, vb []byte, width int) ([]float64, error) {
	if len(vb) == 0 {
		return nil, r.formatErr(contig, "empty %s vector %d", name, i)
	}
	v := make([]float64, 0, utils.MaxInt(width, 1))
	sum := 0.0
	for len(vb) > 0 {
		var fb []byte
		if idx := bytes.IndexByte(vb, ','); idx >= 0 {
			fb, vb = vb[:idx], vb[idx+1:]
		} else {
			fb, vb = vb, nil
		}
		x, err := strconv.ParseFloat(utils.Bytes2String(fb), 64)
		if err != nil {
			return nil, r.formatErr(contig, "%s vector %d: bad value %q", name, i, fb)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return nil, r.formatErr(contig, "%s vector %d: value %v out of range", name, i, x)
		}
		sum += x
		v = append(v, x)
	}
	if width > 0 && len(v) != width {
		return nil, r.formatErr(contig, "%s vector %d: want %d values, got %d", name, i, width, len(v))
	}
	if math.Abs(sum-1) > r.tol {
		return nil, r.formatErr(contig, "%s vector %d sums to %g", name, i, sum)
	}
	return v, nil
}
