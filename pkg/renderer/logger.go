package renderer

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// DefaultLogger implements core.Logger by writing to a stream (stderr by default)
type DefaultLogger struct {
	out io.Writer
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(dl.out, format, args...)
}

// NewDefaultLogger creates a new default logger writing to stderr
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{out: os.Stderr}
}

// progressReporter logs how many pixels are left, roughly every tenth of the image.
// done is called concurrently by all workers.
type progressReporter struct {
	logger    core.Logger
	total     int64
	step      int64
	completed atomic.Int64
}

func newProgressReporter(logger core.Logger, total int) *progressReporter {
	return &progressReporter{
		logger: logger,
		total:  int64(total),
		step:   max(1, int64(total)/10),
	}
}

func (p *progressReporter) done() {
	n := p.completed.Add(1)
	if n%p.step == 0 || n == p.total {
		p.logger.Printf("Pixels remaining: %d/%d\n", p.total-n, p.total)
	}
}
