// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests 8, 16, 24 and 32-bit PCM decoding
package decode

import (
	"testing"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

func TestNewPCM(t *testing.T) {
	for _, depth := range []int{8, 16, 24, 32} {
		decoder, err := NewPCM(audio.Format{SampleRate: 48000, Channels: 2, BitDepth: depth})
		if err != nil {
			t.Fatalf("failed to create %d-bit decoder: %v", depth, err)
		}
		if decoder == nil {
			t.Fatal("expected decoder to be created")
		}
	}
}

func TestNewPCM_UnsupportedBitDepth(t *testing.T) {
	decoder, err := NewPCM(audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 12})
	if err == nil {
		t.Fatal("expected error for unsupported bit depth, got nil")
	}
	if decoder != nil {
		t.Fatal("expected decoder to be nil for unsupported bit depth")
	}

	expectedError := "unsupported bit depth: 12 (supported: 8, 16, 24, 32)"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestPCMDecode(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		input    []byte
		expected []int32
	}{
		{
			name:     "8-bit unsigned",
			bitDepth: 8,
			input:    []byte{128, 0, 255},
			expected: []int32{0, audio.Min24Bit, 127 << 16},
		},
		{
			// 0x0100 = 256 -> 256<<8, 0x0302 = 770 -> 770<<8
			name:     "16-bit",
			bitDepth: 16,
			input:    []byte{0x00, 0x01, 0x02, 0x03},
			expected: []int32{256 << 8, 770 << 8},
		},
		{
			name:     "24-bit",
			bitDepth: 24,
			input:    []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
			expected: []int32{0x020100, 0x050403},
		},
		{
			name:     "32-bit",
			bitDepth: 32,
			input:    []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x80},
			expected: []int32{0x400000, audio.Min24Bit},
		},
		{
			name:     "partial trailing sample",
			bitDepth: 16,
			input:    []byte{0x00, 0x01, 0x02},
			expected: []int32{256 << 8},
		},
		{
			name:     "empty",
			bitDepth: 16,
			input:    []byte{},
			expected: []int32{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder, err := NewPCM(audio.Format{SampleRate: 48000, Channels: 1, BitDepth: tt.bitDepth})
			if err != nil {
				t.Fatalf("failed to create decoder: %v", err)
			}
			output, err := decoder.Decode(tt.input)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if len(output) != len(tt.expected) {
				t.Fatalf("expected %d samples, got %d", len(tt.expected), len(output))
			}
			for i := range output {
				if output[i] != tt.expected[i] {
					t.Errorf("sample %d: expected %d, got %d", i, tt.expected[i], output[i])
				}
			}
		})
	}
}
