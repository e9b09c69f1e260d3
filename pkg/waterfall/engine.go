// ABOUTME: Engine facade tying source, audio, address mapping and decoding together
// ABOUTME: Owns the loaded source and its audio artifact for their whole lifetime
package waterfall

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/audio"
	"github.com/binary-waterfall/waterfall-go/pkg/colorformat"
	"github.com/binary-waterfall/waterfall-go/pkg/frame"
	"github.com/binary-waterfall/waterfall-go/pkg/source"
)

// ErrClosed is returned by Load after Close
var ErrClosed = errors.New("engine closed")

// Snapshot is one decoded frame together with where it came from
type Snapshot struct {
	TimestampMs int64
	Address     int64
	Geometry    frame.Geometry
	Alignment   address.Alignment
	Flip        frame.Flip
	RGB         []byte
}

// Engine maps a loaded file to audio and frames. Mutators take the write
// lock and queries the read lock, so an Engine may be shared between
// goroutines.
type Engine struct {
	mu sync.RWMutex

	settings Settings
	spec     colorformat.Spec

	streaming bool
	store     audio.Store
	scratch   string

	path     string
	src      source.Source
	artifact *audio.Artifact
	closed   bool
}

// New creates an unloaded engine
func New(opts ...Option) (*Engine, error) {
	o := options{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}

	spec, err := o.settings.parse()
	if err != nil {
		return nil, err
	}
	o.settings.ColorFormat = spec.String()

	e := &Engine{
		settings:  o.settings,
		spec:      spec,
		streaming: o.streaming,
		store:     audio.MemoryStore{},
	}

	if o.diskAudio {
		dir, err := os.MkdirTemp(o.scratch, "waterfall-")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
		e.scratch = dir
		e.store = audio.DiskStore{Dir: dir}
	}

	return e, nil
}

// Load replaces the current source with the file at path and rebuilds the
// audio artifact. On failure the previous state is kept.
func (e *Engine) Load(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	src, err := source.Load(path, e.streaming)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFileNotFound, path, err)
	}

	art, err := audio.Materialize(src, e.settings.Audio, e.store)
	if err != nil {
		src.Close()
		return fmt.Errorf("failed to build audio for %s: %w", path, err)
	}

	e.release()
	e.path = path
	e.src = src
	e.artifact = art

	logrus.Infof("Loaded %s: %d bytes, %dms of audio", path, src.Len(), art.DurationMs())
	return nil
}

// Unload releases the source and artifact. It is a no-op when nothing is loaded.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.src != nil {
		logrus.Debugf("Unloading %s", e.path)
	}
	e.release()
}

// Close unloads and removes the scratch directory. The engine cannot be
// reloaded afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.release()

	if e.scratch != "" {
		if err := os.RemoveAll(e.scratch); err != nil {
			return fmt.Errorf("failed to remove scratch directory: %w", err)
		}
	}
	return nil
}

// release must be called with the write lock held
func (e *Engine) release() {
	if e.artifact != nil {
		if err := e.artifact.Close(); err != nil {
			logrus.Warnf("Failed to release audio artifact: %v", err)
		}
		e.artifact = nil
	}
	if e.src != nil {
		if err := e.src.Close(); err != nil {
			logrus.Warnf("Failed to close source: %v", err)
		}
		e.src = nil
	}
	e.path = ""
}

// SetGeometry sets the frame size
func (e *Engine) SetGeometry(width, height int) error {
	g := frame.Geometry{Width: width, Height: height}
	if err := g.Validate(); err != nil {
		return invalid("geometry", err)
	}

	e.mu.Lock()
	e.settings.Geometry = g
	e.mu.Unlock()
	return nil
}

// SetColorFormat parses and installs a color format string
func (e *Engine) SetColorFormat(format string) error {
	spec, err := colorformat.Parse(format)
	if err != nil {
		return invalid("color format", err)
	}

	e.mu.Lock()
	e.spec = spec
	e.settings.ColorFormat = spec.String()
	e.mu.Unlock()
	return nil
}

// ValidateColorFormat reports whether format parses, with the reason if not
func (e *Engine) ValidateColorFormat(format string) (bool, string) {
	return colorformat.Validate(format)
}

// SetAudioParams changes how source bytes are read as PCM. When a file is
// loaded the artifact is rebuilt before the new params are committed.
func (e *Engine) SetAudioParams(p audio.Params) error {
	if err := p.Validate(); err != nil {
		return invalid("audio params", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.applyAudio(p)
}

// applyAudio must be called with the write lock held
func (e *Engine) applyAudio(p audio.Params) error {
	if p == e.settings.Audio {
		return nil
	}
	if e.src != nil {
		art, err := audio.Materialize(e.src, p, e.store)
		if err != nil {
			return fmt.Errorf("failed to rebuild audio: %w", err)
		}
		if err := e.artifact.Close(); err != nil {
			logrus.Warnf("Failed to release audio artifact: %v", err)
		}
		e.artifact = art
	}
	e.settings.Audio = p
	return nil
}

// SetAlignment sets where the current block sits in the frame
func (e *Engine) SetAlignment(a address.Alignment) error {
	if !a.Valid() {
		return invalid("alignment", fmt.Errorf("unknown alignment %d", int(a)))
	}

	e.mu.Lock()
	e.settings.Alignment = a
	e.mu.Unlock()
	return nil
}

// SetFlip sets frame mirroring
func (e *Engine) SetFlip(f frame.Flip) error {
	e.mu.Lock()
	e.settings.Flip = f
	e.mu.Unlock()
	return nil
}

// Apply replaces all settings at once. Nothing changes if any field is invalid.
func (e *Engine) Apply(s Settings) error {
	spec, err := s.parse()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.applyAudio(s.Audio); err != nil {
		return err
	}
	s.ColorFormat = spec.String()
	e.settings = s
	e.spec = spec
	return nil
}

// Settings returns the current settings with the color format in canonical form
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// Loaded reports whether a source is loaded
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.src != nil
}

// Path returns the loaded file path, or "" when unloaded
func (e *Engine) Path() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.path
}

// Size returns the loaded source length in bytes
func (e *Engine) Size() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.src == nil {
		return 0
	}
	return e.src.Len()
}

// DurationMs returns the audio duration. ok is false when nothing is loaded.
func (e *Engine) DurationMs() (ms int64, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.artifact == nil {
		return 0, false
	}
	return e.artifact.DurationMs(), true
}

// Audio returns the current artifact. It stays owned by the engine and is
// closed on the next load, unload or audio change.
func (e *Engine) Audio() (*audio.Artifact, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.artifact == nil {
		return nil, ErrNotLoaded
	}
	return e.artifact, nil
}

// AddressAt returns the byte offset of the frame at timestampMs
func (e *Engine) AddressAt(timestampMs int64) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.src == nil {
		return 0, ErrNotLoaded
	}
	return e.address(e.clamp(timestampMs)), nil
}

// Frame decodes the RGB frame at timestampMs
func (e *Engine) Frame(timestampMs int64) ([]byte, error) {
	snap, err := e.Snapshot(timestampMs)
	if err != nil {
		return nil, err
	}
	return snap.RGB, nil
}

// Snapshot decodes the frame at timestampMs and reports its clamped
// timestamp, address and geometry from a single consistent view of the settings
func (e *Engine) Snapshot(timestampMs int64) (Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.src == nil {
		return Snapshot{}, ErrNotLoaded
	}

	t := e.clamp(timestampMs)
	addr := e.address(t)
	rgb, err := frame.Decode(e.src, addr, e.settings.Geometry, e.spec, e.settings.Flip)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode frame at %dms: %w", t, err)
	}
	return Snapshot{
		TimestampMs: t,
		Address:     addr,
		Geometry:    e.settings.Geometry,
		Alignment:   e.settings.Alignment,
		Flip:        e.settings.Flip,
		RGB:         rgb,
	}, nil
}

// FrameCount returns how many frames a sequence at fps covers
func (e *Engine) FrameCount(fps int) int {
	ms, ok := e.DurationMs()
	if !ok || fps <= 0 {
		return 0
	}
	return int(address.RoundDiv(ms*int64(fps), 1000))
}

// FrameTimestamp returns the timestamp of frame i in a sequence at fps
func (e *Engine) FrameTimestamp(i, fps int) int64 {
	if fps <= 0 {
		return 0
	}
	return address.RoundDiv(int64(i)*1000, int64(fps))
}

func (e *Engine) clamp(t int64) int64 {
	d := e.artifact.DurationMs()
	if t < 0 {
		return 0
	}
	if t > d {
		return d
	}
	return t
}

func (e *Engine) address(t int64) int64 {
	g := e.settings.Geometry
	return address.For(t, e.artifact.DurationMs(), e.src.Len(), g.Width, g.Height, e.spec.ColorBytes(), e.settings.Alignment)
}
