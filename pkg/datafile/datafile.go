// Package datafile opens catalog and request files, decompressing them based
// on their extension.
package datafile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrUnsupportedFormat is returned for files whose extension is not a known
// data format.
var ErrUnsupportedFormat = errors.New("unsupported data file format")

// Compression is the compression applied to a data file.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// Format is the encoding of a data file after decompression.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Detect returns the compression and encoding implied by path, e.g.
// "catalog.yaml.zst" -> (zstd, yaml).
func Detect(path string) (Compression, Format, error) {
	name := strings.ToLower(filepath.Base(path))
	compression := CompressionNone
	switch {
	case strings.HasSuffix(name, ".gz"):
		compression = CompressionGzip
		name = strings.TrimSuffix(name, ".gz")
	case strings.HasSuffix(name, ".zst"):
		compression = CompressionZstd
		name = strings.TrimSuffix(name, ".zst")
	}

	switch filepath.Ext(name) {
	case ".json":
		return compression, FormatJSON, nil
	case ".yaml", ".yml":
		return compression, FormatYAML, nil
	}
	return compression, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Open opens path for reading and wraps it in the decompressor its extension
// calls for. The caller must close the returned reader.
func Open(path string) (io.ReadCloser, Format, error) {
	compression, format, err := Detect(path)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s: %w", path, err)
	}

	r, err := Decompress(f, compression)
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return r, format, nil
}

// Decompress wraps rc so reads return decompressed bytes. Closing the result
// closes rc.
func Decompress(rc io.ReadCloser, compression Compression) (io.ReadCloser, error) {
	switch compression {
	case CompressionNone:
		return rc, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []func() error{zr.Close, rc.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stackedReader{Reader: zr, closers: []func() error{closeZstd(zr), rc.Close}}, nil
	}
	return nil, fmt.Errorf("unknown compression %q", compression)
}

// Compress wraps w so writes are compressed. Closing the result flushes the
// compressor but does not close w.
func Compress(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	}
	return nil, fmt.Errorf("unknown compression %q", compression)
}

func closeZstd(d *zstd.Decoder) func() error {
	return func() error {
		d.Close()
		return nil
	}
}

type stackedReader struct {
	io.Reader
	closers []func() error
}

func (s *stackedReader) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
