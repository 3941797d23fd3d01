package ppm

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// Encode writes a P3 header followed by one "R G B" line per pixel.
// Pixels must already be in output order: top row first, left to right.
func Encode(w io.Writer, width, height int, sums []core.Vec3, samples int) error {
	if samples < 1 {
		return fmt.Errorf("ppm: samples per pixel must be at least 1, got %d", samples)
	}
	if len(sums) != width*height {
		return fmt.Errorf("ppm: have %d pixels for a %dx%d image", len(sums), width, height)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("ppm: write header: %w", err)
	}
	for _, sum := range sums {
		if _, err := fmt.Fprintln(bw, FormatColor(sum, samples)); err != nil {
			return fmt.Errorf("ppm: write pixel: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("ppm: flush: %w", err)
	}
	return nil
}
