package predstore

import (
	"io"
	"os"
	"strings"

	"github.com/google/brotli/go/cbrotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() (err error) {
	for _, c := range rc.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (wc *writeCloser) Close() (err error) {
	for _, c := range wc.closers {
		if e := c(); e != nil && err == nil {
			err = e
		}
	}
	return
}

// OpenCompressed opens fn and decompresses it according to its suffix
// (.zst, .gz, .br); other names are read as is.
func OpenCompressed(fn string) (io.ReadCloser, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(fn, ".zst"):
		zr, err := zstd.NewReader(fp, zstd.WithDecoderConcurrency(1))
		if err != nil {
			fp.Close()
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []func() error{func() error { zr.Close(); return nil }, fp.Close}}, nil
	case strings.HasSuffix(fn, ".gz"):
		gz, err := gzip.NewReader(fp)
		if err != nil {
			fp.Close()
			return nil, err
		}
		return &readCloser{Reader: gz, closers: []func() error{gz.Close, fp.Close}}, nil
	case strings.HasSuffix(fn, ".br"):
		br := cbrotli.NewReader(fp)
		return &readCloser{Reader: br, closers: []func() error{br.Close, fp.Close}}, nil
	}
	return fp, nil
}

// CreateCompressed creates fn, compressing by suffix like OpenCompressed.
// Close flushes the codec before closing the file.
func CreateCompressed(fn string) (io.WriteCloser, error) {
	fp, err := os.Create(fn)
	if err != nil {
		return nil, err
	}
	w, err := NewCompressedWriter(fp, fn)
	if err != nil {
		fp.Close()
		return nil, err
	}
	return w, nil
}

// NewCompressedWriter wraps fp with the codec named by the suffix of fn.
// Closing the result also closes fp.
func NewCompressedWriter(fp *os.File, fn string) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(fn, ".zst"):
		zw, err := zstd.NewWriter(fp, zstd.WithEncoderCRC(false), zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, err
		}
		return &writeCloser{Writer: zw, closers: []func() error{zw.Close, fp.Close}}, nil
	case strings.HasSuffix(fn, ".gz"):
		gz := gzip.NewWriter(fp)
		return &writeCloser{Writer: gz, closers: []func() error{gz.Close, fp.Close}}, nil
	case strings.HasSuffix(fn, ".br"):
		br := cbrotli.NewWriter(fp, cbrotli.WriterOptions{Quality: 1, LGWin: 21})
		return &writeCloser{Writer: br, closers: []func() error{br.Close, fp.Close}}, nil
	}
	return fp, nil
}
