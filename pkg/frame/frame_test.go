// ABOUTME: Tests for frame decoding
// ABOUTME: Tests padding, channel programs, flips and determinism
package frame

import (
	"bytes"
	"testing"

	"github.com/binary-waterfall/waterfall-go/pkg/colorformat"
)

func filled(n int, v byte) []byte {
	return bytes.Repeat([]byte{v}, n)
}

func TestDecodeAllOnes(t *testing.T) {
	g := Geometry{Width: 48, Height: 48}
	spec := colorformat.MustParse("bgrx")
	buf := filled(48*48*4, 0xFF)

	out, err := DecodeBytes(buf, 0, g, spec, Flip{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(out) != 48*48*3 {
		t.Fatalf("expected %d bytes, got %d", 48*48*3, len(out))
	}
	if !bytes.Equal(out, filled(48*48*3, 0xFF)) {
		t.Error("expected every output byte to be 0xFF")
	}
}

func TestDecodePadding(t *testing.T) {
	g := Geometry{Width: 4, Height: 4}
	spec := colorformat.MustParse("w")
	buf := filled(16, 0x80)

	tests := []struct {
		name      string
		addr      int64
		nonZero   int
		firstZero bool
	}{
		{"exact", 0, 16, false},
		{"last byte", 15, 1, false},
		{"half past end", 8, 8, false},
		{"past end", 16, 0, true},
		{"negative", -4, 12, true},
		{"far negative", -100, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DecodeBytes(buf, tt.addr, g, spec, Flip{})
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if len(out) != g.RGBSize() {
				t.Fatalf("expected %d bytes, got %d", g.RGBSize(), len(out))
			}
			count := 0
			for i := 0; i < len(out); i += 3 {
				if out[i] != 0 {
					count++
				}
			}
			if count != tt.nonZero {
				t.Errorf("expected %d lit pixels, got %d", tt.nonZero, count)
			}
			if (out[0] == 0) != tt.firstZero {
				t.Errorf("unexpected first pixel %d", out[0])
			}
		})
	}
}

func TestDecodeNegativeAddressPrefix(t *testing.T) {
	g := Geometry{Width: 4, Height: 4}
	spec := colorformat.MustParse("rgb")
	buf := make([]byte, 48)
	for i := range buf {
		buf[i] = byte(i + 1)
	}

	out, err := DecodeBytes(buf, -6, g, spec, Flip{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	// Two pixels of padding, then the source starts
	if !bytes.Equal(out[:6], make([]byte, 6)) {
		t.Errorf("expected zero prefix, got %v", out[:6])
	}
	if !bytes.Equal(out[6:9], []byte{1, 2, 3}) {
		t.Errorf("expected first source pixel, got %v", out[6:9])
	}
}

func TestDecodeChannelPrograms(t *testing.T) {
	g := Geometry{Width: 4, Height: 4}
	buf := make([]byte, 16*4)
	for i := 0; i < 16; i++ {
		copy(buf[i*4:], []byte{10, 20, 30, 40})
	}

	tests := []struct {
		format string
		want   []byte
	}{
		{"bgrx", []byte{30, 20, 10}},
		{"rgbx", []byte{10, 20, 30}},
		{"xrgb", []byte{20, 30, 40}},
		{"RGBx", []byte{245, 235, 225}},
		{"xxwx", []byte{30, 30, 30}},
		{"xxxW", []byte{215, 215, 215}},
		{"rxxx", []byte{10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			spec := colorformat.MustParse(tt.format)
			out, err := DecodeBytes(buf[:16*spec.ColorBytes()], 0, g, spec, Flip{})
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			for p := 0; p < 16; p++ {
				if !bytes.Equal(out[p*3:p*3+3], tt.want) {
					t.Fatalf("pixel %d: expected %v, got %v", p, tt.want, out[p*3:p*3+3])
				}
			}
		})
	}
}

func TestDecodeFlips(t *testing.T) {
	g := Geometry{Width: 4, Height: 4}
	spec := colorformat.MustParse("w")
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = byte(i)
	}

	pixel := func(out []byte, x, y int) byte {
		return out[(y*g.Width+x)*3]
	}

	tests := []struct {
		name string
		flip Flip
		// value expected at (0,0) and (3,0)
		topLeft, topRight byte
	}{
		{"none", Flip{}, 0, 3},
		{"vertical", Flip{Vertical: true}, 12, 15},
		{"horizontal", Flip{Horizontal: true}, 3, 0},
		{"both", Flip{Vertical: true, Horizontal: true}, 15, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := DecodeBytes(buf, 0, g, spec, tt.flip)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if got := pixel(out, 0, 0); got != tt.topLeft {
				t.Errorf("top-left: expected %d, got %d", tt.topLeft, got)
			}
			if got := pixel(out, 3, 0); got != tt.topRight {
				t.Errorf("top-right: expected %d, got %d", tt.topRight, got)
			}
		})
	}
}

func TestDecodeDeterministic(t *testing.T) {
	g := Geometry{Width: 7, Height: 5}
	spec := colorformat.MustParse("bGrX")
	buf := make([]byte, 1000)
	for i := range buf {
		buf[i] = byte(i * 31)
	}
	flip := Flip{Vertical: true}

	first, err := DecodeBytes(buf, 13, g, spec, flip)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := DecodeBytes(buf, 13, g, spec, flip)
		if !bytes.Equal(first, again) {
			t.Fatal("decode is not deterministic")
		}
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		g       Geometry
		wantErr bool
	}{
		{Geometry{4, 4}, false},
		{Geometry{48, 48}, false},
		{Geometry{3, 4}, true},
		{Geometry{4, 3}, true},
		{Geometry{0, 0}, true},
	}

	for _, tt := range tests {
		err := tt.g.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%+v: wantErr=%v, got %v", tt.g, tt.wantErr, err)
		}
	}

	if _, err := DecodeBytes(nil, 0, Geometry{2, 2}, colorformat.MustParse("w"), Flip{}); err == nil {
		t.Error("expected error for undersized geometry")
	}
}
