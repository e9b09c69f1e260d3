// ABOUTME: Writes frames and audio from an engine to files
// ABOUTME: Image format and audio container are chosen by file extension
package render

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"

	"github.com/binary-waterfall/waterfall-go/pkg/audio/encode"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// ErrUnsupportedFormat is returned for export paths with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported export format")

// DefaultJPEGQuality is used when FrameOptions.JPEGQuality is zero
const DefaultJPEGQuality = 90

// ImageFormat is a still image encoding
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatBMP  ImageFormat = "bmp"
)

// ImageFormatForPath picks an image format from a file extension
func ImageFormatForPath(path string) (ImageFormat, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "bmp":
		return FormatBMP, nil
	}
	return "", fmt.Errorf("%w: image extension %q (supported: png, jpg, bmp)", ErrUnsupportedFormat, ext)
}

// Ext returns the file extension for the format, including the dot
func (f ImageFormat) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// FrameOptions controls how a frame is turned into an image
type FrameOptions struct {
	// Size scales the frame to fit these bounds. Zero keeps the native size.
	Size image.Point

	// Playhead marks the row the audio clock points at
	Playhead bool

	// JPEGQuality is 1-100, only used for JPEG output
	JPEGQuality int
}

// FrameImage decodes the frame at timestampMs and applies opts
func FrameImage(e *waterfall.Engine, timestampMs int64, opts FrameOptions) (*image.RGBA, error) {
	snap, err := e.Snapshot(timestampMs)
	if err != nil {
		return nil, err
	}
	g := snap.Geometry

	img, err := ToImage(snap.RGB, g.Width, g.Height)
	if err != nil {
		return nil, err
	}
	if opts.Playhead {
		DrawPlayhead(img, PlayheadRow(g.Height, snap.Alignment, snap.Flip))
	}
	if opts.Size.X > 0 && opts.Size.Y > 0 {
		img = FitToFrame(img, opts.Size)
	}
	return img, nil
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format ImageFormat, quality int) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("PNG encode failed: %w", err)
		}
	case FormatJPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("JPEG encode failed: %w", err)
		}
	case FormatBMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("BMP encode failed: %w", err)
		}
	default:
		return fmt.Errorf("%w: image format %q", ErrUnsupportedFormat, format)
	}
	return nil
}

// ExportFrame writes the frame at timestampMs to path, creating parent
// directories as needed
func ExportFrame(e *waterfall.Engine, path string, timestampMs int64, opts FrameOptions) error {
	format, err := ImageFormatForPath(path)
	if err != nil {
		return err
	}
	img, err := FrameImage(e, timestampMs, opts)
	if err != nil {
		return err
	}
	return writeImage(path, img, format, opts.JPEGQuality)
}

func writeImage(path string, img image.Image, format ImageFormat, quality int) error {
	if err := makeParent(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(file, img, format, quality); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ExportAudio writes the engine's audio to path. .wav copies the artifact
// and .flac re-encodes it.
func ExportAudio(e *waterfall.Engine, path string) error {
	container, err := encode.ContainerForPath(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	art, err := e.Audio()
	if err != nil {
		return err
	}

	if err := makeParent(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	switch container {
	case encode.ContainerWAV:
		_, err = art.WriteTo(file)
	default:
		err = encode.Transcode(art, file, container)
	}
	if err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to export audio: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	logrus.Infof("Exported %s audio to %s", container, path)
	return nil
}

func makeParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
