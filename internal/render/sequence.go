// ABOUTME: Exports every frame of the audio timeline as numbered images
// ABOUTME: Frames are decoded and written by a bounded worker pool
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// SequenceOptions controls ExportSequence
type SequenceOptions struct {
	FPS    int
	Format ImageFormat
	Frame  FrameOptions

	// Workers bounds concurrent frame writers. Zero uses GOMAXPROCS.
	Workers int

	// Progress is called after each frame with the number done so far.
	// It may be called from several goroutines.
	Progress func(done, total int)
}

// SequenceName returns the file name of frame i in a sequence of total frames
func SequenceName(i, total int, format ImageFormat) string {
	digits := len(strconv.Itoa(total))
	return fmt.Sprintf("%0*d%s", digits, i, format.Ext())
}

// ExportSequence writes FrameCount(fps) frames into dir and returns how
// many were written. It stops at the first error or when ctx is cancelled.
func ExportSequence(ctx context.Context, e *waterfall.Engine, dir string, opts SequenceOptions) (int, error) {
	if opts.FPS <= 0 {
		return 0, fmt.Errorf("fps must be positive, got %d", opts.FPS)
	}
	if opts.Format == "" {
		opts.Format = FormatPNG
	}
	if !e.Loaded() {
		return 0, waterfall.ErrNotLoaded
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := e.FrameCount(opts.FPS)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	logrus.Infof("Exporting %d frames at %d fps to %s", total, opts.FPS, dir)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done atomic.Int64
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ms := e.FrameTimestamp(i, opts.FPS)
			img, err := FrameImage(e, ms, opts.Frame)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			path := filepath.Join(dir, SequenceName(i, total, opts.Format))
			if err := writeImage(path, img, opts.Format, opts.Frame.JPEGQuality); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			n := done.Add(1)
			if opts.Progress != nil {
				opts.Progress(int(n), total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}
	if err := ctx.Err(); err != nil {
		return int(done.Load()), err
	}
	return int(done.Load()), nil
}
