// ABOUTME: WAV container encoder
// ABOUTME: Wraps go-audio/wav for verbatim little-endian PCM output
package encode

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

// WAVEncoder writes PCM WAV
type WAVEncoder struct {
	enc *wav.Encoder
	buf *goaudio.IntBuffer
}

// NewWAV creates a WAV encoder. 8-bit samples are unsigned.
func NewWAV(w io.WriteSeeker, format audio.Format) (Encoder, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	if format.BitDepth != 8 && format.BitDepth != 16 && format.BitDepth != 24 && format.BitDepth != 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", format.BitDepth)
	}

	return &WAVEncoder{
		enc: wav.NewEncoder(w, format.SampleRate, format.BitDepth, format.Channels, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

// Write appends samples
func (e *WAVEncoder) Write(samples []int) error {
	e.buf.Data = samples
	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("wav encode error: %w", err)
	}
	return nil
}

// Close patches the RIFF sizes
func (e *WAVEncoder) Close() error {
	// Ensure a header exists even when nothing was written
	if err := e.Write(nil); err != nil {
		return err
	}
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

func checkFormat(format audio.Format) error {
	if format.Channels < 1 || format.Channels > 2 {
		return fmt.Errorf("unsupported channel count: %d", format.Channels)
	}
	if format.SampleRate < 1 {
		return fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	return nil
}
