// ABOUTME: Raw little-endian sample conversion and linear gain
// ABOUTME: 8-bit samples are unsigned, wider samples are signed
package audio

import (
	"encoding/binary"
	"math"
)

// SampleRange returns the representable range for a sample width in bytes
func SampleRange(width int) (min, max int) {
	switch width {
	case 1:
		return 0, math.MaxUint8
	case 2:
		return math.MinInt16, math.MaxInt16
	case 3:
		return Min24Bit, Max24Bit
	default:
		return math.MinInt32, math.MaxInt32
	}
}

// DecodeSamples appends the samples contained in raw to dst. Any trailing
// partial sample is ignored.
func DecodeSamples(raw []byte, width int, dst []int) []int {
	n := len(raw) / width
	for i := 0; i < n; i++ {
		b := raw[i*width : (i+1)*width]
		switch width {
		case 1:
			dst = append(dst, int(b[0]))
		case 2:
			dst = append(dst, int(int16(binary.LittleEndian.Uint16(b))))
		case 3:
			dst = append(dst, int(SampleFrom24Bit([3]byte{b[0], b[1], b[2]})))
		case 4:
			dst = append(dst, int(int32(binary.LittleEndian.Uint32(b))))
		}
	}
	return dst
}

// EncodeSamples appends the little-endian encoding of samples to dst
func EncodeSamples(samples []int, width int, dst []byte) []byte {
	for _, s := range samples {
		switch width {
		case 1:
			dst = append(dst, uint8(s))
		case 2:
			dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(s)))
		case 3:
			b := SampleTo24Bit(int32(s))
			dst = append(dst, b[:]...)
		case 4:
			dst = binary.LittleEndian.AppendUint32(dst, uint32(int32(s)))
		}
	}
	return dst
}

// ApplyGain scales samples in place by volume/100, rounding half away from
// zero and clamping to the width's range. 8-bit samples are scaled around
// their 128 midpoint.
func ApplyGain(samples []int, width, volume int) {
	if volume == MaxVolume {
		return
	}
	lo, hi := SampleRange(width)
	mid := 0
	if width == 1 {
		mid = 128
	}

	for i, s := range samples {
		v := int64(s - mid)
		scaled := roundDiv(v*int64(volume), MaxVolume) + int64(mid)
		if scaled < int64(lo) {
			scaled = int64(lo)
		} else if scaled > int64(hi) {
			scaled = int64(hi)
		}
		samples[i] = int(scaled)
	}
}

func roundDiv(n, d int64) int64 {
	if n < 0 {
		return -((-n*2 + d) / (d * 2))
	}
	return (n*2 + d) / (d * 2)
}
