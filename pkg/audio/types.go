// ABOUTME: Audio type definitions
// ABOUTME: Defines raw PCM parameters and sample conversion helpers
package audio

import "fmt"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// MaxVolume is the volume at which samples pass through untouched
	MaxVolume = 100
)

// Format describes a PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Params describes how raw source bytes are interpreted as PCM
type Params struct {
	Channels    int `yaml:"channels" json:"channels"`
	SampleWidth int `yaml:"sample_width" json:"sample_width"` // bytes per sample
	SampleRate  int `yaml:"sample_rate" json:"sample_rate"`
	Volume      int `yaml:"volume" json:"volume"` // percent, 0-100
}

// DefaultParams matches the stock waterfall settings
func DefaultParams() Params {
	return Params{
		Channels:    1,
		SampleWidth: 1,
		SampleRate:  32000,
		Volume:      MaxVolume,
	}
}

// Validate checks every field against its allowed range
func (p Params) Validate() error {
	if p.Channels != 1 && p.Channels != 2 {
		return fmt.Errorf("channel count must be 1 or 2, got %d", p.Channels)
	}
	if p.SampleWidth < 1 || p.SampleWidth > 4 {
		return fmt.Errorf("sample width must be 1, 2, 3 or 4 bytes, got %d", p.SampleWidth)
	}
	if p.SampleRate < 1 {
		return fmt.Errorf("sample rate must be at least 1 Hz, got %d", p.SampleRate)
	}
	if p.Volume < 0 || p.Volume > MaxVolume {
		return fmt.Errorf("volume must be between 0 and %d percent, got %d", MaxVolume, p.Volume)
	}
	return nil
}

// BitDepth returns the sample width in bits
func (p Params) BitDepth() int {
	return p.SampleWidth * 8
}

// FrameSize returns the bytes in one interleaved sample frame
func (p Params) FrameSize() int {
	return p.SampleWidth * p.Channels
}

// Format returns the stream format described by p
func (p Params) Format() Format {
	return Format{
		SampleRate: p.SampleRate,
		Channels:   p.Channels,
		BitDepth:   p.BitDepth(),
	}
}

// DurationMs returns the duration of frames sample frames, rounded up
func DurationMs(frames int64, sampleRate int) int64 {
	if frames <= 0 || sampleRate <= 0 {
		return 0
	}
	rate := int64(sampleRate)
	return (frames*1000 + rate - 1) / rate
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromUint8 converts an unsigned 8-bit WAV sample to the 24-bit range
func SampleFromUint8(sample uint8) int32 {
	return (int32(sample) - 128) << 16
}

// SampleFromInt32 converts a full-scale 32-bit sample to the 24-bit range
func SampleFromInt32(sample int32) int32 {
	return sample >> 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
