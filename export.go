// ABOUTME: Export mode of the previewer CLI
// ABOUTME: Writes a frame, the audio and an image sequence as requested by flags
package main

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/internal/config"
	"github.com/binary-waterfall/waterfall-go/internal/render"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

type exportJobs struct {
	frame    string
	audio    string
	sequence string
	at       int64
	size     string
}

func runExports(ctx context.Context, e *waterfall.Engine, cfg *config.Config, jobs exportJobs) error {
	frameSize, err := exportSize(jobs.size, e.Settings(), cfg.Player.MaxDim)
	if err != nil {
		return err
	}
	opts := render.FrameOptions{
		Size:        frameSize,
		Playhead:    cfg.Player.PlayheadVisible,
		JPEGQuality: cfg.Export.JPEGQuality,
	}

	if jobs.frame != "" {
		if err := render.ExportFrame(e, jobs.frame, jobs.at, opts); err != nil {
			return err
		}
		logrus.Infof("Wrote frame at %dms to %s", jobs.at, jobs.frame)
	}

	if jobs.audio != "" {
		if err := render.ExportAudio(e, jobs.audio); err != nil {
			return err
		}
		logrus.Infof("Wrote audio to %s", jobs.audio)
	}

	if jobs.sequence != "" {
		n, err := render.ExportSequence(ctx, e, jobs.sequence, render.SequenceOptions{
			FPS:      cfg.Export.FPS,
			Format:   render.ImageFormat(cfg.Export.Format),
			Frame:    opts,
			Workers:  cfg.Export.Workers,
			Progress: progressLogger(),
		})
		if err != nil {
			return err
		}
		logrus.Infof("Wrote %d frames to %s", n, jobs.sequence)
	}

	return nil
}

// exportSize parses WxH. An empty value fits the frame inside a
// maxDim square.
func exportSize(value string, s waterfall.Settings, maxDim int) (image.Point, error) {
	if value == "" {
		g := image.Pt(s.Geometry.Width, s.Geometry.Height)
		fit, _ := render.FitSize(g, image.Pt(maxDim, maxDim))
		return fit, nil
	}

	w, h, ok := strings.Cut(strings.ToLower(value), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("invalid size %q, expected WxH", value)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width < 1 || height < 1 {
		return image.Point{}, fmt.Errorf("invalid size %q, expected positive WxH", value)
	}
	return image.Pt(width, height), nil
}

// progressLogger logs sequence progress in tenths
func progressLogger() func(done, total int) {
	return func(done, total int) {
		step := total / 10
		if step < 1 {
			step = 1
		}
		if done%step == 0 || done == total {
			logrus.Infof("Exported %d/%d frames", done, total)
		}
	}
}
