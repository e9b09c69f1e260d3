// ABOUTME: Playback transport driving frames from a monotonic clock
// ABOUTME: Play, pause, seek and frame stepping over a loaded engine
package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/pkg/audio/output"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

const (
	MinFPS = 1
	MaxFPS = 120

	// DefaultJumpMs is the Forward/Back step
	DefaultJumpMs = 5000
)

// Config holds player configuration
type Config struct {
	// FPS is the preview frame rate, clamped to 1-120 (default: 120)
	FPS int

	// Output plays the audio alongside the frames. Nil plays silently.
	Output output.Output

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// State is a snapshot of the transport
type State struct {
	Playing    bool
	PositionMs int64
	DurationMs int64
	FPS        int
	FrameMs    int64
	Muted      bool
}

// Player is a transport over an engine's audio timeline
type Player struct {
	engine *waterfall.Engine
	now    func() time.Time

	mu        sync.Mutex
	playing   bool
	base      int64 // position when playback last started or seeked
	startedAt time.Time
	fps       int
	frameMs   int64
	muted     bool

	feed *audioFeed
}

// New creates a paused player at position 0
func New(engine *waterfall.Engine, config Config) *Player {
	if config.FPS == 0 {
		config.FPS = MaxFPS
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	p := &Player{
		engine: engine,
		now:    config.Now,
	}
	if config.Output != nil {
		p.feed = newAudioFeed(engine, config.Output)
	}
	p.setFPS(config.FPS)
	return p
}

// SetFPS sets the preview rate, clamped to 1-120
func (p *Player) SetFPS(fps int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setFPS(fps)
}

func (p *Player) setFPS(fps int) {
	if fps < MinFPS {
		fps = MinFPS
	}
	if fps > MaxFPS {
		fps = MaxFPS
	}
	p.fps = fps
	p.frameMs = int64(1000 / fps)
}

// FrameInterval returns the wall time between ticks
func (p *Player) FrameInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.frameMs) * time.Millisecond
}

func (p *Player) duration() int64 {
	ms, _ := p.engine.DurationMs()
	return ms
}

// position must be called with the lock held
func (p *Player) position() int64 {
	pos := p.base
	if p.playing {
		pos += p.now().Sub(p.startedAt).Milliseconds()
	}
	if d := p.duration(); pos > d {
		pos = d
	}
	return pos
}

// Position returns the current timeline position in milliseconds
func (p *Player) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position()
}

// State returns the transport state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Playing:    p.playing,
		PositionMs: p.position(),
		DurationMs: p.duration(),
		FPS:        p.fps,
		FrameMs:    p.frameMs,
		Muted:      p.muted,
	}
}

// Playing reports whether the clock is running
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Play starts the clock. Playing from the end starts over.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.engine.Loaded() {
		return waterfall.ErrNotLoaded
	}
	if p.playing {
		return nil
	}
	if p.base >= p.duration() {
		p.base = 0
	}
	p.playing = true
	p.startedAt = p.now()

	if p.feed != nil {
		if err := p.feed.start(p.base); err != nil {
			logrus.Warnf("Audio playback unavailable: %v", err)
		}
	}
	logrus.Debugf("Playing from %dms", p.base)
	return nil
}

// Pause stops the clock at the current position
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pause()
}

func (p *Player) pause() {
	if !p.playing {
		return
	}
	p.base = p.position()
	p.playing = false
	if p.feed != nil {
		p.feed.stop()
	}
	logrus.Debugf("Paused at %dms", p.base)
}

// Toggle switches between playing and paused
func (p *Player) Toggle() error {
	if p.Playing() {
		p.Pause()
		return nil
	}
	return p.Play()
}

// SeekTo moves to ms, clamped to the timeline. Seeking to the end pauses.
func (p *Player) SeekTo(ms int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(ms)
}

func (p *Player) seek(ms int64) {
	d := p.duration()
	if ms < 0 {
		ms = 0
	}
	if ms > d {
		ms = d
	}

	p.base = ms
	p.startedAt = p.now()

	if ms == d {
		p.pause()
		return
	}
	if p.playing && p.feed != nil {
		p.feed.stop()
		if err := p.feed.start(ms); err != nil {
			logrus.Warnf("Audio playback unavailable: %v", err)
		}
	}
}

// Forward jumps ahead by ms
func (p *Player) Forward(ms int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(p.position() + ms)
}

// Back jumps back by ms
func (p *Player) Back(ms int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(p.position() - ms)
}

// StepForward advances one frame period
func (p *Player) StepForward() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(p.position() + p.frameMs)
}

// StepBack goes back one frame period
func (p *Player) StepBack() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seek(p.position() - p.frameMs)
}

// Restart returns to the beginning without changing the play state
func (p *Player) Restart() {
	p.SeekTo(0)
}

// Tick returns the frame at the current position, pausing once playback
// reaches the end
func (p *Player) Tick() (waterfall.Snapshot, error) {
	p.mu.Lock()
	pos := p.position()
	if p.playing && pos >= p.duration() {
		p.pause()
	}
	p.mu.Unlock()

	snap, err := p.engine.Snapshot(pos)
	if err != nil {
		return waterfall.Snapshot{}, fmt.Errorf("failed to render frame: %w", err)
	}
	return snap, nil
}

// ToggleMute silences or restores the audio output. It reports the new
// state and is a no-op for outputs that cannot mute.
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.feed == nil {
		return false
	}
	m, ok := p.feed.out.(output.Muter)
	if !ok {
		return false
	}
	p.muted = !p.muted
	m.SetMuted(p.muted)
	return p.muted
}

// Close stops playback and releases the audio output
func (p *Player) Close() error {
	p.Pause()
	if p.feed != nil {
		return p.feed.close()
	}
	return nil
}
