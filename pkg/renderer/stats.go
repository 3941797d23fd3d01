package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels     int           // Total number of pixels rendered
	SamplesPerPixel int           // Samples taken for every pixel
	TotalSamples    int           // Total number of camera rays traced
	Workers         int           // Size of the worker pool
	Elapsed         time.Duration // Wall-clock render time
}

// newRenderStats fills in the counters for a finished render
func newRenderStats(config Config, elapsed time.Duration) RenderStats {
	pixels := config.Sampling.Width * config.Sampling.Height
	return RenderStats{
		TotalPixels:     pixels,
		SamplesPerPixel: config.Sampling.SamplesPerPixel,
		TotalSamples:    pixels * config.Sampling.SamplesPerPixel,
		Workers:         config.workerCount(),
		Elapsed:         elapsed,
	}
}

// SamplesPerSecond returns the camera-ray throughput of the render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Elapsed.Seconds()
}
