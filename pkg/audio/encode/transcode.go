// ABOUTME: Streams a materialized artifact into an export container
// ABOUTME: Reads PCM in chunks so large artifacts are not held twice
package encode

import (
	"errors"
	"fmt"
	"io"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

const transcodeChunk = 256 * 1024

// New returns an encoder for the container
func New(c Container, w io.WriteSeeker, format audio.Format) (Encoder, error) {
	switch c {
	case ContainerWAV:
		return NewWAV(w, format)
	case ContainerFLAC:
		return NewFLAC(w, format)
	}
	return nil, fmt.Errorf("%w %q", ErrUnsupportedContainer, c)
}

// Transcode writes the artifact's samples to w in the given container
func Transcode(art *audio.Artifact, w io.WriteSeeker, c Container) error {
	p := art.Params()
	enc, err := New(c, w, p.Format())
	if err != nil {
		return err
	}

	r, err := art.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	if _, err := r.Seek(audio.HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to pcm data: %w", err)
	}

	frameSize := p.FrameSize()
	chunk := make([]byte, transcodeChunk/frameSize*frameSize)
	remaining := art.Frames() * int64(frameSize)
	var samples []int

	for remaining > 0 {
		want := int64(len(chunk))
		if remaining < want {
			want = remaining
		}
		n, err := io.ReadFull(r, chunk[:want])
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("failed to read pcm data: %w", err)
		}
		if n == 0 {
			break
		}
		samples = audio.DecodeSamples(chunk[:n], p.SampleWidth, samples[:0])
		if err := enc.Write(samples); err != nil {
			return err
		}
		remaining -= int64(n)
	}

	return enc.Close()
}
