package renderer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/integrator"
)

// DefaultWorkers is the worker pool size used when none is configured
const DefaultWorkers = 4

// workerSeedStride spreads per-worker seeds apart so their streams are independent
const workerSeedStride = 7919

// ErrIncompleteRender is returned when a pixel slot was not written exactly once
var ErrIncompleteRender = errors.New("incomplete render")

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width in pixels
	Height          int // Image height in pixels
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           1200,
		Height:          800,
		SamplesPerPixel: 200,
		MaxDepth:        50,
	}
}

// Config contains everything the scheduler needs besides the scene
type Config struct {
	Sampling SamplingConfig
	Workers  int   // Worker pool size; <= 0 selects DefaultWorkers
	Seed     int64 // Base seed; worker i uses Seed + (i+1)*workerSeedStride
}

func (c Config) workerCount() int {
	if c.Workers <= 0 {
		return DefaultWorkers
	}
	return c.Workers
}

// Validate reports configuration values the scheduler cannot work with
func (c Config) Validate() error {
	s := c.Sampling
	if s.Width < 2 || s.Height < 2 {
		return fmt.Errorf("image must be at least 2x2 pixels, got %dx%d", s.Width, s.Height)
	}
	if s.SamplesPerPixel < 1 {
		return fmt.Errorf("samples per pixel must be positive, got %d", s.SamplesPerPixel)
	}
	if s.MaxDepth < 1 {
		return fmt.Errorf("max depth must be positive, got %d", s.MaxDepth)
	}
	return nil
}

// RenderResult holds the summed (not yet averaged) color of every pixel in output order
type RenderResult struct {
	Width           int
	Height          int
	SamplesPerPixel int
	Pixels          []core.Vec3 // Indexed by Task.Index
	Stats           RenderStats

	writes []uint32 // Number of times each slot was stored
}

func newRenderResult(sampling SamplingConfig) *RenderResult {
	n := sampling.Width * sampling.Height
	return &RenderResult{
		Width:           sampling.Width,
		Height:          sampling.Height,
		SamplesPerPixel: sampling.SamplesPerPixel,
		Pixels:          make([]core.Vec3, n),
		writes:          make([]uint32, n),
	}
}

// store writes a pixel sum into its own slot; distinct workers never share a slot
func (r *RenderResult) store(index int, sum core.Vec3) {
	r.Pixels[index] = sum
	atomic.AddUint32(&r.writes[index], 1)
}

// verify checks that every slot was written exactly once
func (r *RenderResult) verify() error {
	missing, duplicated := 0, 0
	for _, n := range r.writes {
		switch {
		case n == 0:
			missing++
		case n > 1:
			duplicated++
		}
	}
	if missing > 0 || duplicated > 0 {
		return fmt.Errorf("%w: %d pixels missing, %d written more than once", ErrIncompleteRender, missing, duplicated)
	}
	return nil
}

// Raytracer runs the parallel per-pixel sampling scheduler
type Raytracer struct {
	world      geometry.Shape
	camera     *Camera
	integrator integrator.Integrator
	config     Config
	logger     core.Logger
}

// NewRaytracer creates a new raytracer using the path tracing integrator
func NewRaytracer(world geometry.Shape, camera *Camera, config Config, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Raytracer{
		world:      world,
		camera:     camera,
		integrator: integrator.NewPathTracingIntegrator(integrator.DefaultBackground()),
		config:     config,
		logger:     logger,
	}
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integratorInst integrator.Integrator) {
	rt.integrator = integratorInst
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config SamplingConfig) {
	rt.config.Sampling = config
}

// Render traces every pixel on a fixed pool of workers and returns the pixel sums in output order.
// A failing or panicking worker stops the pool and its error is returned.
func (rt *Raytracer) Render(ctx context.Context) (*RenderResult, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, err
	}

	sampling := rt.config.Sampling
	workers := rt.config.workerCount()
	tasks := newTaskStack(EnumerateTasks(sampling.Width, sampling.Height))
	result := newRenderResult(sampling)
	progress := newProgressReporter(rt.logger, sampling.Width*sampling.Height)

	rt.logger.Printf("Rendering %dx%d, %d samples per pixel, max depth %d (using %d workers)...\n",
		sampling.Width, sampling.Height, sampling.SamplesPerPixel, sampling.MaxDepth, workers)

	startTime := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < workers; id++ {
		id := id
		g.Go(func() error {
			return rt.runWorker(gctx, id, tasks, result, progress)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if err := result.verify(); err != nil {
		return nil, err
	}

	result.Stats = newRenderStats(rt.config, time.Since(startTime))
	rt.logger.Printf("Render completed in %v (%.0f samples/s)\n",
		result.Stats.Elapsed, result.Stats.SamplesPerSecond())

	return result, nil
}

// workerSeed offsets every worker from the base seed, so no worker replays
// a stream the caller drew from a sampler seeded with the base seed itself.
func workerSeed(base int64, id int) int64 {
	return base + int64(id+1)*workerSeedStride
}

// runWorker drains the task stack with its own sampler until it is empty
func (rt *Raytracer) runWorker(ctx context.Context, id int, tasks *taskStack, result *RenderResult, progress *progressReporter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d panicked: %v", id, r)
		}
	}()

	sampler := core.NewSeededSampler(workerSeed(rt.config.Seed, id))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		task, ok := tasks.pop()
		if !ok {
			return nil
		}
		result.store(task.Index, rt.samplePixel(task, sampler))
		progress.done()
	}
}

// samplePixel sums SamplesPerPixel jittered camera rays through the pixel
func (rt *Raytracer) samplePixel(task Task, sampler core.Sampler) core.Vec3 {
	sampling := rt.config.Sampling
	width := float64(sampling.Width - 1)
	height := float64(sampling.Height - 1)

	var colorAccum core.Vec3
	for sample := 0; sample < sampling.SamplesPerPixel; sample++ {
		u := (float64(task.X) + sampler.Get1D()) / width
		v := (float64(task.Y) + sampler.Get1D()) / height

		ray := rt.camera.GetRay(u, v, sampler)
		colorAccum = colorAccum.Add(rt.integrator.RayColor(ray, rt.world, sampler, sampling.MaxDepth))
	}
	return colorAccum
}
