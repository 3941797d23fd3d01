// Package ppm encodes rendered pixel sums as ASCII PPM (P3) images.
package ppm

import (
	"fmt"
	"math"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// maxChannel keeps 255.999*c strictly below 256
const maxChannel = 1 - 1e-8

// FormatColor averages a summed color over samples, applies gamma 2 and
// formats the three 8-bit channels as "R G B".
func FormatColor(sum core.Vec3, samples int) string {
	r, g, b := ToRGB(sum, samples)
	return fmt.Sprintf("%d %d %d", r, g, b)
}

// ToRGB converts a summed color over samples into 8-bit channels.
// A non-positive sample count yields black.
func ToRGB(sum core.Vec3, samples int) (r, g, b int) {
	if samples < 1 {
		return 0, 0, 0
	}
	scale := 1.0 / float64(samples)
	return channel(sum.X * scale), channel(sum.Y * scale), channel(sum.Z * scale)
}

// channel maps a linear value to 0..255. Negative and NaN inputs become 0.
func channel(linear float64) int {
	c := math.Sqrt(max(0, linear))
	if math.IsNaN(c) {
		return 0
	}
	c = min(maxChannel, c)
	return int(255.999 * c)
}
