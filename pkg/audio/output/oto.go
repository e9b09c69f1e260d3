// ABOUTME: Oto-based audio output implementation
// ABOUTME: Handles PCM playback with software volume control using oto library
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/pkg/audio"
)

// DeviceRate is the rate the shared oto context is opened at. Streams at
// other rates are resampled before they reach Write.
const DeviceRate = 48000

var (
	// oto allows only one context per process
	sharedCtx     *oto.Context
	sharedCtxErr  error
	sharedCtxOnce sync.Once
	sharedChans   int
)

func otoContext(sampleRate, channels int) (*oto.Context, error) {
	sharedCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			sharedCtxErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan
		sharedCtx = ctx
		sharedChans = channels
	})
	if sharedCtxErr == nil && sharedChans != channels {
		return nil, fmt.Errorf("oto context already open with %d channels, cannot switch to %d", sharedChans, channels)
	}
	return sharedCtx, sharedCtxErr
}

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{
		volume: 100,
	}
}

// Open initializes the output device. Reopening an open output is a no-op.
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ready {
		if o.sampleRate != sampleRate || o.channels != channels {
			logrus.Warnf("Output already open at %dHz %dch, ignoring request for %dHz %dch",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		return nil
	}

	ctx, err := otoContext(sampleRate, channels)
	if err != nil {
		return err
	}

	o.sampleRate = sampleRate
	o.channels = channels

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	logrus.Infof("Audio output initialized: %dHz, %d channels", sampleRate, channels)
	return nil
}

// Write outputs audio samples, blocking until the device has taken them
func (o *Oto) Write(samples []int32) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return fmt.Errorf("output not initialized")
	}
	gain, w := o.gain(), o.pipeWriter
	o.mu.Unlock()

	if _, err := w.Write(pcm16(samples, gain)); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Close releases the player. The shared context stays alive for reuse.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	o.ready = false
	return nil
}

// SetVolume sets the playback volume (0-100)
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
	logrus.Debugf("Playback volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
}

// gain is the current sample multiplier. Callers hold o.mu.
func (o *Oto) gain() float64 {
	if o.muted {
		return 0
	}
	return float64(o.volume) / audio.MaxVolume
}

// pcm16 scales 24-bit range samples by gain, clips them and packs them as
// the little-endian 16-bit stream oto plays
func pcm16(samples []int32, gain float64) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := int64(float64(s) * gain)
		v = min(max(v, audio.Min24Bit), audio.Max24Bit)
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(audio.SampleToInt16(int32(v))))
	}
	return buf
}
