// ABOUTME: FLAC container encoder
// ABOUTME: Writes lossless verbatim FLAC frames with mewkiz/flac
package encode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

const (
	flacBlockSize     = 4096
	flacMaxSampleRate = 655350
)

// FLACEncoder writes FLAC using verbatim subframes so every sample is
// stored exactly
type FLACEncoder struct {
	enc      *flac.Encoder
	format   audio.Format
	unsigned bool

	pending []int
	frameNo uint64
}

// noCloser hides the writer's Close so the caller keeps ownership
type noCloser struct {
	io.Writer
}

type noCloseSeeker struct {
	io.WriteSeeker
}

// NewFLAC creates a FLAC encoder. Input samples use the same convention as
// WAV (8-bit unsigned), and are stored signed as FLAC requires.
func NewFLAC(w io.Writer, format audio.Format) (Encoder, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	if format.BitDepth != 8 && format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth for flac: %d (supported: 8, 16, 24)", format.BitDepth)
	}
	if format.SampleRate > flacMaxSampleRate {
		return nil, fmt.Errorf("sample rate %d exceeds flac maximum of %d", format.SampleRate, flacMaxSampleRate)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(format.SampleRate),
		NChannels:     uint8(format.Channels),
		BitsPerSample: uint8(format.BitDepth),
	}

	var out io.Writer = noCloser{w}
	if ws, ok := w.(io.WriteSeeker); ok {
		out = noCloseSeeker{ws}
	}
	enc, err := flac.NewEncoder(out, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create flac encoder: %w", err)
	}

	return &FLACEncoder{
		enc:      enc,
		format:   format,
		unsigned: format.BitDepth == 8,
	}, nil
}

// Write buffers samples and emits every complete block
func (e *FLACEncoder) Write(samples []int) error {
	e.pending = append(e.pending, samples...)
	blockSamples := flacBlockSize * e.format.Channels
	for len(e.pending) >= blockSamples {
		if err := e.writeFrame(e.pending[:blockSamples]); err != nil {
			return err
		}
		e.pending = e.pending[blockSamples:]
	}
	return nil
}

// Close writes the final short block and updates the stream info
func (e *FLACEncoder) Close() error {
	whole := len(e.pending) / e.format.Channels * e.format.Channels
	if whole > 0 {
		if err := e.writeFrame(e.pending[:whole]); err != nil {
			return err
		}
	}
	e.pending = nil
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize flac: %w", err)
	}
	return nil
}

func (e *FLACEncoder) writeFrame(interleaved []int) error {
	channels := e.format.Channels
	n := len(interleaved) / channels

	subframes := make([]*frame.Subframe, channels)
	for ch := 0; ch < channels; ch++ {
		samples := make([]int32, n)
		for i := 0; i < n; i++ {
			v := interleaved[i*channels+ch]
			if e.unsigned {
				v -= 128
			}
			samples[i] = int32(v)
		}
		subframes[ch] = &frame.Subframe{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  n,
		}
	}

	layout := frame.ChannelsMono
	if channels == 2 {
		layout = frame.ChannelsLR
	}

	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(n),
			SampleRate:        uint32(e.format.SampleRate),
			Channels:          layout,
			BitsPerSample:     uint8(e.format.BitDepth),
			Num:               e.frameNo,
		},
		Subframes: subframes,
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("flac encode error: %w", err)
	}
	e.frameNo++
	return nil
}
