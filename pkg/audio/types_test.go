// ABOUTME: Tests for audio types
// ABOUTME: Tests params validation, duration rounding and sample conversion
package audio

import (
	"reflect"
	"testing"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906}, // 1000000 >> 8 = 3906
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleTo24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleTo24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"max negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestRoundTrip16Bit(t *testing.T) {
	// Test that 16-bit samples survive round-trip conversion
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}

	for _, original := range samples {
		sample32 := SampleFromInt16(original)
		result := SampleToInt16(sample32)
		if result != original {
			t.Errorf("round-trip failed: %d -> %d -> %d", original, sample32, result)
		}
	}
}

func TestRoundTrip24Bit(t *testing.T) {
	// Test that 24-bit samples survive round-trip conversion
	samples := []int32{0, 100000, -100000, Max24Bit, Min24Bit}

	for _, original := range samples {
		bytes := SampleTo24Bit(original)
		result := SampleFrom24Bit(bytes)
		// Mask to 24-bit for comparison
		expected := original & 0xFFFFFF
		if expected&0x800000 != 0 {
			expected |= ^0xFFFFFF
		}
		if result != expected {
			t.Errorf("round-trip failed: %d -> %v -> %d (expected %d)", original, bytes, result, expected)
		}
	}
}

func TestSampleFromUint8(t *testing.T) {
	tests := []struct {
		input    uint8
		expected int32
	}{
		{128, 0},
		{0, Min24Bit},
		{255, 127 << 16},
	}

	for _, tt := range tests {
		if got := SampleFromUint8(tt.input); got != tt.expected {
			t.Errorf("SampleFromUint8(%d) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"stereo 32-bit", Params{2, 4, 192000, 0}, false},
		{"zero channels", Params{0, 1, 32000, 100}, true},
		{"three channels", Params{3, 1, 32000, 100}, true},
		{"zero width", Params{1, 0, 32000, 100}, true},
		{"five byte width", Params{1, 5, 32000, 100}, true},
		{"zero rate", Params{1, 1, 0, 100}, true},
		{"negative volume", Params{1, 1, 32000, -1}, true},
		{"loud volume", Params{1, 1, 32000, 101}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDurationMs(t *testing.T) {
	tests := []struct {
		frames   int64
		rate     int
		expected int64
	}{
		{0, 32000, 0},
		{1, 32000, 1},
		{32, 32000, 1},
		{33, 32000, 2},
		{48000, 48000, 1000},
		{48001, 48000, 1001},
		{10, 0, 0},
	}

	for _, tt := range tests {
		if got := DurationMs(tt.frames, tt.rate); got != tt.expected {
			t.Errorf("DurationMs(%d, %d) = %d, expected %d", tt.frames, tt.rate, got, tt.expected)
		}
	}
}

func TestSamplesRoundTrip(t *testing.T) {
	for width := 1; width <= 4; width++ {
		raw := make([]byte, width*16)
		for i := range raw {
			raw[i] = byte(i*37 + width)
		}
		samples := DecodeSamples(raw, width, nil)
		back := EncodeSamples(samples, width, nil)
		if !reflect.DeepEqual(raw, back) {
			t.Errorf("width %d: round-trip mismatch", width)
		}
	}
}

func TestApplyGainFullVolumeUntouched(t *testing.T) {
	samples := []int{1, -2, 3}
	ApplyGain(samples, 2, MaxVolume)
	if !reflect.DeepEqual(samples, []int{1, -2, 3}) {
		t.Errorf("full volume changed samples: %v", samples)
	}
}
