package ppm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// Compression selects the stream wrapped around the output file
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionSnappy
)

// CompressionForPath picks the compression from the file extension:
// ".zst" for zstd, ".sz" for snappy framing, anything else is plain text.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		return CompressionZstd
	case ".sz":
		return CompressionSnappy
	default:
		return CompressionNone
	}
}

// Create opens path for writing, wrapped in the compressor its extension asks for.
// Closing the returned writer flushes the compressor and closes the file.
func Create(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	stream, err := wrap(file, CompressionForPath(path))
	if err != nil {
		file.Close()
		return nil, err
	}
	return &fileSink{stream: stream, file: file}, nil
}

// WriteFile encodes the image into path, compressing by extension
func WriteFile(path string, width, height int, sums []core.Vec3, samples int) (err error) {
	sink, err := Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}()
	return Encode(sink, width, height, sums, samples)
}

func wrap(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return enc, nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nopCloser{w}, nil
	}
}

// fileSink closes the compressor before the file underneath it
type fileSink struct {
	stream io.WriteCloser
	file   *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

func (s *fileSink) Close() error {
	return errors.Join(s.stream.Close(), s.file.Close())
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
