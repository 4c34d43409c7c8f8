package predstore

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Writer emits windows in the store record format.
type Writer struct {
	bw  *bufio.Writer
	wc  io.WriteCloser
	buf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, readerBufSize)}
}

// Create creates a store file, compressed according to its suffix.
func Create(path string) (*Writer, error) {
	wc, err := CreateCompressed(path)
	if err != nil {
		return nil, fmt.Errorf("[Create] prediction store %s: %w", path, err)
	}
	w := NewWriter(wc)
	w.wc = wc
	return w, nil
}

// WriteHeader writes a comment line naming the columns.
func (w *Writer) WriteHeader() error {
	_, err := w.bw.WriteString("#contig\tstart\tend\tbases\trunlengths\n")
	return err
}

func (w *Writer) Write(win Window) error {
	if win.Compacted() {
		return ErrCompacted
	}
	if len(win.Bases) != win.Len() || len(win.RunLengths) != win.Len() {
		return fmt.Errorf("[Write] window %s:%d-%d has %d base and %d run-length vectors", win.Contig, win.Start, win.End, len(win.Bases), len(win.RunLengths))
	}
	b := w.buf[:0]
	b = append(b, win.Contig...)
	b = append(b, '\t')
	b = strconv.AppendInt(b, int64(win.Start), 10)
	b = append(b, '\t')
	b = strconv.AppendInt(b, int64(win.End), 10)
	b = append(b, '\t')
	b = appendVectors(b, win.Bases)
	b = append(b, '\t')
	b = appendVectors(b, win.RunLengths)
	b = append(b, '\n')
	w.buf = b
	_, err := w.bw.Write(b)
	return err
}

func appendVectors(b []byte, vs [][]float64) []byte {
	for i, v := range vs {
		if i > 0 {
			b = append(b, ';')
		}
		for j, x := range v {
			if j > 0 {
				b = append(b, ',')
			}
			b = strconv.AppendFloat(b, x, 'g', -1, 64)
		}
	}
	return b
}

// Close flushes buffered records and closes the file opened by Create.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.wc != nil {
		if e := w.wc.Close(); err == nil {
			err = e
		}
	}
	return err
}
