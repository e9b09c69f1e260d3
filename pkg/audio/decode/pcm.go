// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 8, 16, 24 and 32-bit raw PCM to 24-bit range int32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (Decoder, error) {
	switch format.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to int32 samples. Trailing partial samples
// are ignored.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	width := d.bitDepth / 8
	numSamples := len(data) / width
	samples := make([]int32, numSamples)

	switch d.bitDepth {
	case 8:
		// unsigned, as stored in WAV
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.SampleFromUint8(data[i])
		}
	case 16:
		for i := 0; i < numSamples; i++ {
			sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
			samples[i] = audio.SampleFromInt16(sample16)
		}
	case 24:
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
	case 32:
		for i := 0; i < numSamples; i++ {
			samples[i] = audio.SampleFromInt32(int32(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
