// ABOUTME: FLAC audio decoder
// ABOUTME: Reads complete FLAC streams with mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

// FLACReader reads a FLAC stream frame by frame
type FLACReader struct {
	stream *flac.Stream
	format audio.Format
}

// NewFLAC parses the stream header from r
func NewFLAC(r io.Reader) (*FLACReader, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flac stream: %w", err)
	}

	return &FLACReader{
		stream: stream,
		format: audio.Format{
			SampleRate: int(stream.Info.SampleRate),
			Channels:   int(stream.Info.NChannels),
			BitDepth:   int(stream.Info.BitsPerSample),
		},
	}, nil
}

// Format returns the stream format
func (d *FLACReader) Format() audio.Format {
	return d.format
}

// TotalSamples returns the per-channel sample count from the stream info
func (d *FLACReader) TotalSamples() uint64 {
	return d.stream.Info.NSamples
}

// ReadAll decodes every remaining frame into interleaved samples at the
// stream's native bit depth
func (d *FLACReader) ReadAll() ([]int32, error) {
	var out []int32
	for {
		f, err := d.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		n := f.Subframes[0].NSamples
		for i := 0; i < n; i++ {
			for _, sub := range f.Subframes {
				out = append(out, sub.Samples[i])
			}
		}
	}
}

// Close releases decoder resources
func (d *FLACReader) Close() error {
	return d.stream.Close()
}
