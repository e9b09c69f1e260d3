// ABOUTME: Converts decoded RGB frames into images
// ABOUTME: Aspect-preserving nearest-neighbour fitting and playhead overlay
package render

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"

	"golang.org/x/image/draw"

	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/frame"
)

// ToImage converts packed RGB bytes (3 bytes/pixel) to an opaque image.RGBA
func ToImage(rgb []byte, width, height int) (*image.RGBA, error) {
	expected := width * height * 3
	if len(rgb) != expected {
		return nil, fmt.Errorf("invalid RGB data size: got %d, expected %d", len(rgb), expected)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		img.Pix[i*4+0] = rgb[i*3+0]
		img.Pix[i*4+1] = rgb[i*3+1]
		img.Pix[i*4+2] = rgb[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}
	return img, nil
}

// FitSize returns the largest size with the content's aspect ratio that
// fits inside frame, and whether the width is the limiting dimension
func FitSize(content, frame image.Point) (fit image.Point, limitWidth bool) {
	if content.X <= 0 || content.Y <= 0 {
		return image.Point{}, true
	}
	heightIfLimitWidth := int(address.RoundDiv(int64(frame.X)*int64(content.Y), int64(content.X)))
	widthIfLimitHeight := int(address.RoundDiv(int64(frame.Y)*int64(content.X), int64(content.Y)))

	if heightIfLimitWidth > frame.Y {
		return image.Pt(widthIfLimitHeight, frame.Y), false
	}
	return image.Pt(frame.X, heightIfLimitWidth), true
}

// FitToFrame scales img to fit size and centres it on a black background
func FitToFrame(img image.Image, size image.Point) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	stddraw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, stddraw.Src)

	b := img.Bounds()
	fit, limitWidth := FitSize(b.Size(), size)

	var offset image.Point
	if limitWidth {
		offset.Y = int(address.RoundDiv(int64(size.Y-fit.Y), 2))
	} else {
		offset.X = int(address.RoundDiv(int64(size.X-fit.X), 2))
	}

	dst := image.Rectangle{Min: offset, Max: offset.Add(fit)}
	draw.NearestNeighbor.Scale(out, dst, img, b, draw.Over, nil)
	return out
}

// PlayheadRow returns the image row holding the block the audio clock
// points at for the given alignment
func PlayheadRow(height int, a address.Alignment, flip frame.Flip) int {
	var row int
	switch a {
	case address.Start:
		row = height - 1
	case address.Middle:
		row = int(address.RoundDiv(int64(height), 2))
	case address.End:
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	if flip.Vertical {
		row = height - 1 - row
	}
	return row
}

// DrawPlayhead replaces each pixel on row with black or white, whichever
// contrasts with it
func DrawPlayhead(img *image.RGBA, row int) {
	b := img.Bounds()
	if row < 0 || row >= b.Dy() {
		return
	}
	y := b.Min.Y + row
	for x := b.Min.X; x < b.Max.X; x++ {
		c := img.RGBAAt(x, y)
		shade := ShadeFor(c.R, c.G, c.B)
		img.SetRGBA(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 0xFF})
	}
}

// ShadeFor returns white for dark colours and black for light ones
func ShadeFor(r, g, b uint8) uint8 {
	// luminance < 0.5 with weights .299/.587/.114, in thousandths
	lum := 299*int(r) + 587*int(g) + 114*int(b)
	if lum*2 < 1000*0xFF {
		return 0xFF
	}
	return 0x00
}
