package ppm

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

func testImage() []core.Vec3 {
	sums := make([]core.Vec3, 4*3)
	for i := range sums {
		sums[i] = core.NewVec3(float64(i)/12, 0.5, 1)
	}
	return sums
}

func expectedText(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plain.ppm")
	if err := WriteFile(path, 4, 3, testImage(), 1); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return string(data)
}

func TestCompressionForPath(t *testing.T) {
	tests := []struct {
		path     string
		expected Compression
	}{
		{"image.ppm", CompressionNone},
		{"out/image.ppm.zst", CompressionZstd},
		{"IMAGE.PPM.ZST", CompressionZstd},
		{"image.ppm.sz", CompressionSnappy},
		{"image", CompressionNone},
	}

	for _, tt := range tests {
		if got := CompressionForPath(tt.path); got != tt.expected {
			t.Errorf("CompressionForPath(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestWriteFile_Plain(t *testing.T) {
	text := expectedText(t)
	if text[:len("P3\n4 3\n255\n")] != "P3\n4 3\n255\n" {
		t.Errorf("Unexpected header in %q", text)
	}
}

func TestWriteFile_ZstdRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "image.ppm.zst")
	if err := WriteFile(path, 4, 3, testImage(), 1); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer file.Close()

	dec, err := zstd.NewReader(file)
	if err != nil {
		t.Fatalf("zstd.NewReader failed: %v", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if string(data) != expectedText(t) {
		t.Errorf("Decompressed output differs from plain output")
	}
}

func TestWriteFile_SnappyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.ppm.sz")
	if err := WriteFile(path, 4, 3, testImage(), 1); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(snappy.NewReader(file))
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if string(data) != expectedText(t) {
		t.Errorf("Decompressed output differs from plain output")
	}
}

func TestCreate_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(filepath.Join(blocker, "image.ppm")); err == nil {
		t.Error("Expected an error creating a file under a regular file")
	}
}
