// ABOUTME: Tests for frame images, fitting, playhead and exports
// ABOUTME: Exercises PNG/JPEG/BMP output, WAV/FLAC audio and sequence export
package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/audio/decode"
	"github.com/binary-waterfall/waterfall-go/pkg/frame"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

func newEngine(t *testing.T, data []byte) *waterfall.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	e, err := waterfall.New()
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	require.NoError(t, e.Load(path))
	return e
}

func ramp(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestToImage(t *testing.T) {
	img, err := ToImage([]byte{1, 2, 3, 4, 5, 6}, 2, 1)
	require.NoError(t, err)
	require.Equal(t, color.RGBA{1, 2, 3, 255}, img.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{4, 5, 6, 255}, img.RGBAAt(1, 0))

	_, err = ToImage([]byte{1, 2}, 2, 1)
	require.Error(t, err)
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		name       string
		content    image.Point
		frame      image.Point
		want       image.Point
		limitWidth bool
	}{
		{"square into square", image.Pt(48, 48), image.Pt(512, 512), image.Pt(512, 512), true},
		{"wide", image.Pt(100, 50), image.Pt(200, 200), image.Pt(200, 100), true},
		{"tall", image.Pt(50, 100), image.Pt(200, 200), image.Pt(100, 200), false},
		{"rounds to nearest", image.Pt(3, 2), image.Pt(5, 10), image.Pt(5, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, limitWidth := FitSize(tt.content, tt.frame)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.limitWidth, limitWidth)
		})
	}
}

func TestFitToFrameCentresOnBlack(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = 0xFF
	}

	out := FitToFrame(src, image.Pt(8, 8))
	require.Equal(t, image.Rect(0, 0, 8, 8), out.Bounds())

	// content is 8x4 with 2 black rows above and below
	require.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{0, 0, 0, 255}, out.RGBAAt(7, 7))
	require.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(0, 2))
	require.Equal(t, color.RGBA{255, 255, 255, 255}, out.RGBAAt(7, 5))
}

func TestShadeFor(t *testing.T) {
	require.Equal(t, uint8(0xFF), ShadeFor(0, 0, 0))
	require.Equal(t, uint8(0x00), ShadeFor(255, 255, 255))
	require.Equal(t, uint8(0xFF), ShadeFor(0, 0, 255))
	require.Equal(t, uint8(0x00), ShadeFor(0, 255, 0))
}

func TestPlayheadRow(t *testing.T) {
	tests := []struct {
		a    address.Alignment
		flip bool
		want int
	}{
		{address.End, false, 0},
		{address.End, true, 47},
		{address.Middle, false, 24},
		{address.Middle, true, 23},
		{address.Start, false, 47},
		{address.Start, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.a.String(), func(t *testing.T) {
			require.Equal(t, tt.want, PlayheadRow(48, tt.a, frame.Flip{Vertical: tt.flip}))
		})
	}
}

func TestDrawPlayhead(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.SetRGBA(0, 1, color.RGBA{250, 250, 250, 255})
	DrawPlayhead(img, 1)

	require.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(0, 1))
	require.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(1, 1))
	require.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))

	DrawPlayhead(img, 9)
}

func TestExportFrameFormats(t *testing.T) {
	e := newEngine(t, ramp(32000))
	dir := t.TempDir()

	for _, name := range []string{"a.png", "b.jpg", "nested/c.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, ExportFrame(e, path, 250, FrameOptions{Size: image.Pt(96, 64)}))

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()
			img, _, err := image.Decode(f)
			require.NoError(t, err)
			require.Equal(t, image.Rect(0, 0, 96, 64), img.Bounds())
		})
	}

	err := ExportFrame(e, filepath.Join(dir, "d.gif"), 0, FrameOptions{})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportFrameMatchesEngine(t *testing.T) {
	e := newEngine(t, ramp(32000))
	path := filepath.Join(t.TempDir(), "frame.bmp")
	require.NoError(t, ExportFrame(e, path, 500, FrameOptions{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := bmp.Decode(f)
	require.NoError(t, err)

	rgb, err := e.Frame(500)
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 7).RGBA()
	i := (7*48 + 5) * 3
	require.Equal(t, []byte{rgb[i], rgb[i+1], rgb[i+2]}, []byte{byte(r >> 8), byte(g >> 8), byte(b >> 8)})
}

func TestExportFrameUnloaded(t *testing.T) {
	e, err := waterfall.New()
	require.NoError(t, err)
	defer e.Close()

	err = ExportFrame(e, filepath.Join(t.TempDir(), "x.png"), 0, FrameOptions{})
	require.ErrorIs(t, err, waterfall.ErrNotLoaded)
}

func TestExportAudioWAV(t *testing.T) {
	e := newEngine(t, ramp(8000))
	path := filepath.Join(t.TempDir(), "out", "audio.wav")
	require.NoError(t, ExportAudio(e, path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	art, err := e.Audio()
	require.NoError(t, err)
	var want bytes.Buffer
	_, err = art.WriteTo(&want)
	require.NoError(t, err)
	require.Equal(t, want.Bytes(), got)
}

func TestExportAudioFLAC(t *testing.T) {
	e := newEngine(t, ramp(8000))
	path := filepath.Join(t.TempDir(), "audio.flac")
	require.NoError(t, ExportAudio(e, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := decode.NewFLAC(f)
	require.NoError(t, err)
	defer dec.Close()
	require.Equal(t, uint64(8000), dec.TotalSamples())
	require.Equal(t, 32000, dec.Format().SampleRate)
}

func TestExportAudioUnsupported(t *testing.T) {
	e := newEngine(t, ramp(100))
	path := filepath.Join(t.TempDir(), "audio.mp3")

	err := ExportAudio(e, path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.NoFileExists(t, path)
}

func TestSequenceName(t *testing.T) {
	require.Equal(t, "0.png", SequenceName(0, 9, FormatPNG))
	require.Equal(t, "07.jpg", SequenceName(7, 30, FormatJPEG))
	require.Equal(t, "042.bmp", SequenceName(42, 100, FormatBMP))
}

func TestExportSequence(t *testing.T) {
	e := newEngine(t, ramp(32000))
	dir := t.TempDir()

	var mu sync.Mutex
	var seen []int
	var totals []int
	n, err := ExportSequence(context.Background(), e, dir, SequenceOptions{
		FPS:     10,
		Format:  FormatBMP,
		Workers: 3,
		Progress: func(done, total int) {
			mu.Lock()
			seen = append(seen, done)
			totals = append(totals, total)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.Equal(t, 10, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	require.Equal(t, []string{"00.bmp", "01.bmp", "02.bmp", "03.bmp", "04.bmp",
		"05.bmp", "06.bmp", "07.bmp", "08.bmp", "09.bmp"}, names)

	sort.Ints(seen)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seen)
	for _, total := range totals {
		require.Equal(t, 10, total)
	}
}

func TestExportSequenceCancelled(t *testing.T) {
	e := newEngine(t, ramp(32000))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := ExportSequence(ctx, e, t.TempDir(), SequenceOptions{FPS: 30})
	require.True(t, errors.Is(err, context.Canceled))
	require.Equal(t, 0, n)
}

func TestExportSequenceRejectsBadFPS(t *testing.T) {
	e := newEngine(t, ramp(100))
	_, err := ExportSequence(context.Background(), e, t.TempDir(), SequenceOptions{})
	require.Error(t, err)
}
