// ABOUTME: Frame decoder turning a byte window into RGB pixels
// ABOUTME: Handles zero padding, channel programs and mirroring
// Package frame decodes a rectangular window of source bytes into a flat,
// row-major RGB buffer of exactly Width*Height*3 bytes.
//
// Decode is a pure function of its inputs and is safe to call from several
// goroutines at once, which is how sequence export parallelises.
package frame

import (
	"fmt"

	"github.com/binary-waterfall/waterfall-go/pkg/colorformat"
	"github.com/binary-waterfall/waterfall-go/pkg/source"
)

// MinDimension is the smallest allowed frame width or height
const MinDimension = 4

// Geometry is the frame size in pixels
type Geometry struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Validate checks both dimensions against MinDimension
func (g Geometry) Validate() error {
	if g.Width < MinDimension {
		return fmt.Errorf("frame width must be at least %d pixels, got %d", MinDimension, g.Width)
	}
	if g.Height < MinDimension {
		return fmt.Errorf("frame height must be at least %d pixels, got %d", MinDimension, g.Height)
	}
	return nil
}

// Pixels returns Width*Height
func (g Geometry) Pixels() int {
	return g.Width * g.Height
}

// RGBSize returns the decoded buffer length
func (g Geometry) RGBSize() int {
	return g.Pixels() * 3
}

// Flip selects mirroring applied after decoding
type Flip struct {
	Vertical   bool `yaml:"vertical" json:"vertical"`
	Horizontal bool `yaml:"horizontal" json:"horizontal"`
}

// Decode reads the window starting at addr from src and converts it to RGB
func Decode(src source.Source, addr int64, g Geometry, spec colorformat.Spec, f Flip) ([]byte, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !spec.Valid() {
		return nil, fmt.Errorf("color format is not initialized")
	}

	window, err := src.ReadRange(addr, g.Pixels()*spec.ColorBytes())
	if err != nil {
		return nil, fmt.Errorf("failed to read frame at %d: %w", addr, err)
	}
	return decodeWindow(window, g, spec, f), nil
}

// DecodeBytes is Decode over an in-memory buffer
func DecodeBytes(buf []byte, addr int64, g Geometry, spec colorformat.Spec, f Flip) ([]byte, error) {
	return Decode(source.NewMemory(buf), addr, g, spec, f)
}

func decodeWindow(window []byte, g Geometry, spec colorformat.Spec, f Flip) []byte {
	out := make([]byte, g.RGBSize())
	cb := spec.ColorBytes()

	pixels := g.Pixels()
	for p := 0; p < pixels; p++ {
		in := p * cb
		if in+cb > len(window) {
			break
		}
		spec.Pixel(window[in:in+cb], out[p*3:p*3+3])
	}

	if f.Vertical {
		flipRows(out, g)
	}
	if f.Horizontal {
		flipColumns(out, g)
	}
	return out
}

func flipRows(rgb []byte, g Geometry) {
	stride := g.Width * 3
	tmp := make([]byte, stride)
	for top, bottom := 0, g.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := rgb[top*stride : (top+1)*stride]
		b := rgb[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

func flipColumns(rgb []byte, g Geometry) {
	stride := g.Width * 3
	for y := 0; y < g.Height; y++ {
		row := rgb[y*stride : (y+1)*stride]
		for l, r := 0, g.Width-1; l < r; l, r = l+1, r-1 {
			li, ri := l*3, r*3
			row[li], row[ri] = row[ri], row[li]
			row[li+1], row[ri+1] = row[ri+1], row[li+1]
			row[li+2], row[ri+2] = row[ri+2], row[li+2]
		}
	}
}
