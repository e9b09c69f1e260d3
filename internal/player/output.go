// ABOUTME: Streams the engine's audio artifact to an output device
// ABOUTME: Decodes PCM, upmixes to stereo and resamples to the device rate
package player

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
	"github.com/binary-waterfall/waterfall-go/pkg/audio/decode"
	"github.com/binary-waterfall/waterfall-go/pkg/audio/output"
	"github.com/binary-waterfall/waterfall-go/pkg/audio/resample"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

const (
	// the device is always opened in stereo so mono and stereo files can
	// share one output
	deviceChannels = 2

	chunkMs = 20
)

// audioFeed writes artifact audio from a start position until stopped
type audioFeed struct {
	engine *waterfall.Engine
	out    output.Output

	mu     sync.Mutex
	opened bool
	cancel context.CancelFunc
	done   chan struct{}

	// decoded PCM is cached per artifact
	cached *audio.Artifact
	pcm    []byte
}

func newAudioFeed(engine *waterfall.Engine, out output.Output) *audioFeed {
	return &audioFeed{engine: engine, out: out}
}

// start begins streaming from fromMs. Any running stream is stopped first.
func (f *audioFeed) start(fromMs int64) error {
	f.stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	art, err := f.engine.Audio()
	if err != nil {
		return err
	}
	if art != f.cached {
		pcm, err := art.PCM()
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}
		f.cached = art
		f.pcm = pcm
	}

	if !f.opened {
		if err := f.out.Open(output.DeviceRate, deviceChannels); err != nil {
			return err
		}
		f.opened = true
	}

	p := art.Params()
	dec, err := decode.NewPCM(p.Format())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	f.cancel = cancel
	f.done = done

	go f.run(ctx, done, f.pcm, p, dec, fromMs)
	return nil
}

func (f *audioFeed) run(ctx context.Context, done chan struct{}, pcm []byte, p audio.Params, dec decode.Decoder, fromMs int64) {
	defer close(done)
	defer dec.Close()

	rs := resample.New(p.SampleRate, output.DeviceRate, deviceChannels)
	frameSize := p.FrameSize()
	chunkFrames := p.SampleRate * chunkMs / 1000
	if chunkFrames < 1 {
		chunkFrames = 1
	}

	offset := int(fromMs*int64(p.SampleRate)/1000) * frameSize
	buf := make([]int32, 0)
	for offset < len(pcm) {
		select {
		case <-ctx.Done():
			return
		default:
		}

		end := offset + chunkFrames*frameSize
		if end > len(pcm) {
			end = len(pcm)
		}
		samples, err := dec.Decode(pcm[offset:end])
		if err != nil {
			logrus.Warnf("Audio decode failed: %v", err)
			return
		}
		offset = end

		stereo := toStereo(samples, p.Channels)
		need := rs.OutputSamplesNeeded(len(stereo))
		if cap(buf) < need {
			buf = make([]int32, need)
		}
		n := rs.Resample(stereo, buf[:need])
		if err := f.out.Write(buf[:n]); err != nil {
			logrus.Warnf("Audio write failed: %v", err)
			return
		}
	}
}

// stop cancels the running stream and waits for it to exit
func (f *audioFeed) stop() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (f *audioFeed) close() error {
	f.stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = nil
	f.pcm = nil
	if !f.opened {
		return nil
	}
	f.opened = false
	return f.out.Close()
}

// toStereo duplicates mono samples into both channels
func toStereo(samples []int32, channels int) []int32 {
	if channels == deviceChannels {
		return samples
	}
	out := make([]int32, len(samples)*2)
	for i, s := range samples {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}
