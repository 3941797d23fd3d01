package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/ppm"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
)

// workersEnv overrides the default worker count when -workers is not given
const workersEnv = "RAYTRACER_WORKERS"

// stdoutPath selects standard output as the image destination
const stdoutPath = "-"

// options holds the parsed command line
type options struct {
	scene   string
	width   int
	samples int
	depth   int
	workers int
	seed    int64
	out     string
	watch   bool
	list    bool
	help    bool
}

func main() {
	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if opts.help {
		printHelp()
		return
	}

	logger := renderer.NewDefaultLogger()

	if opts.list {
		if err := listScenes(os.Stdout, "scenes", logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet declares the command line flags, storing their values in opts
func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.StringVar(&opts.scene, "scene", scene.RandomSceneID, "Scene: 'random', 'default', or a path to a .json scene file")
	fs.IntVar(&opts.width, "width", 0, "Image width in pixels; height follows the camera aspect ratio (0 = scene default)")
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.depth, "depth", 0, "Maximum bounce depth (0 = scene default)")
	fs.IntVar(&opts.workers, "workers", 0, "Number of render workers (0 = $"+workersEnv+" or "+strconv.Itoa(renderer.DefaultWorkers)+")")
	fs.Int64Var(&opts.seed, "seed", 1, "Random seed for scene layout and sampling")
	fs.StringVar(&opts.out, "out", stdoutPath, "Output file; '-' writes to stdout, .zst and .sz compress")
	fs.BoolVar(&opts.watch, "watch", false, "Re-render whenever the scene file changes (.json scenes and an -out file only)")
	fs.BoolVar(&opts.list, "list", false, "List built-in scenes and scene files in ./scenes")
	fs.BoolVar(&opts.help, "help", false, "Show help information")
	return fs
}

// parseOptions reads flags from args; getenv supplies the environment
func parseOptions(args []string, getenv func(string) string) (options, error) {
	var opts options
	if err := newFlagSet(&opts).Parse(args); err != nil {
		return options{}, err
	}

	workers, err := resolveWorkers(opts.workers, getenv(workersEnv))
	if err != nil {
		return options{}, err
	}
	opts.workers = workers

	if opts.watch && !isSceneFile(opts.scene) {
		return options{}, fmt.Errorf("-watch needs a .json scene file, got %q", opts.scene)
	}
	if opts.watch && opts.out == stdoutPath {
		// Each re-render would append another image to the same stream
		return options{}, fmt.Errorf("-watch needs an -out file")
	}
	return opts, nil
}

// resolveWorkers prefers the flag, then the environment, then the renderer default
func resolveWorkers(flagValue int, envValue string) (int, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	if flagValue < 0 {
		return 0, fmt.Errorf("-workers must be positive, got %d", flagValue)
	}
	if envValue == "" {
		return renderer.DefaultWorkers, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(envValue))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", workersEnv, envValue)
	}
	return n, nil
}

func printHelp() {
	fmt.Println("Sphere Path Tracer")
	fmt.Println("Usage: raytracer [options] > image.ppm")
	fmt.Println()
	fmt.Println("Options:")
	fs := newFlagSet(&options{})
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	fmt.Println("  random  - Grid of random small spheres around three large spheres")
	fmt.Println("  default - Diffuse, glass, and metal spheres on a ground sphere")
	fmt.Println("  <file>  - Any .json scene file")
	fmt.Println()
	fmt.Println("Progress is reported on stderr; the PPM image goes to -out.")
}

func isSceneFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}

// listScenes prints the built-in scenes and the scene files found in dir
func listScenes(w io.Writer, dir string, logger core.Logger) error {
	scenes, err := scene.ListAllScenes(dir, logger)
	if err != nil {
		return err
	}
	for _, info := range scenes {
		fmt.Fprintf(w, "  %-24s %s", info.ID, info.Name)
		if info.Description != "" {
			fmt.Fprintf(w, " - %s", info.Description)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// createScene builds the named scene and applies the command line overrides
func createScene(opts options) (*scene.Scene, error) {
	if opts.scene == "" {
		return nil, fmt.Errorf("scene name cannot be empty")
	}
	s, err := scene.Open(opts.scene, core.NewSeededSampler(opts.seed))
	if err != nil {
		return nil, err
	}

	if opts.width > 0 {
		s.SetWidth(opts.width)
	}
	if opts.samples > 0 {
		s.SamplingConfig.SamplesPerPixel = opts.samples
	}
	if opts.depth > 0 {
		s.SamplingConfig.MaxDepth = opts.depth
	}
	return s, nil
}

// run renders once, then again after every scene file change when watching
func run(ctx context.Context, opts options, logger core.Logger) error {
	if err := renderOnce(ctx, opts, logger); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	logger.Printf("Watching %s for changes (Ctrl+C to stop)...\n", opts.scene)
	return scene.Watch(ctx, opts.scene, func() {
		logger.Printf("Scene changed, re-rendering...\n")
		if err := renderOnce(ctx, opts, logger); err != nil {
			// Keep watching so the next save can fix the scene
			logger.Printf("Error: %v\n", err)
		}
	})
}

// renderOnce loads the scene, renders it, and writes the image
func renderOnce(ctx context.Context, opts options, logger core.Logger) error {
	s, err := createScene(opts)
	if err != nil {
		return fmt.Errorf("failed to create scene: %w", err)
	}
	logger.Printf("Scene %q: %d spheres\n", opts.scene, s.World.Len())

	config := renderer.Config{
		Sampling: s.SamplingConfig,
		Workers:  opts.workers,
		Seed:     opts.seed,
	}
	raytracer := renderer.NewRaytracer(s.World, s.NewCamera(), config, logger)

	result, err := raytracer.Render(ctx)
	if err != nil {
		return err
	}

	if err := writeImage(opts.out, result); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	if opts.out != stdoutPath {
		logger.Printf("Render saved as %s\n", opts.out)
	}
	return nil
}

// writeImage encodes the render to stdout or to a file, compressed by extension
func writeImage(out string, result *renderer.RenderResult) error {
	if out == stdoutPath {
		return ppm.Encode(os.Stdout, result.Width, result.Height, result.Pixels, result.SamplesPerPixel)
	}
	return ppm.WriteFile(out, result.Width, result.Height, result.Pixels, result.SamplesPerPixel)
}
