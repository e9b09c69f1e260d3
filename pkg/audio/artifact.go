// ABOUTME: WAV artifact materialized from raw source bytes
// ABOUTME: Handles gain, duration and memory or temp-file backing storage
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/pkg/source"
)

const (
	// HeaderSize is the length of the canonical PCM WAV header written
	// ahead of the data chunk
	HeaderSize = 44

	wavFormatPCM = 1

	// sample frames converted per source read
	chunkFrames = 64 * 1024
)

// ErrArtifactClosed is returned when reading a released artifact
var ErrArtifactClosed = errors.New("audio artifact closed")

// Store selects where an artifact's WAV bytes live
type Store interface {
	create() (sink, error)
}

type sink interface {
	io.WriteSeeker
	finish() (data []byte, path string, err error)
	abort()
}

// MemoryStore keeps the WAV container in memory
type MemoryStore struct{}

func (MemoryStore) create() (sink, error) {
	return &memSink{}, nil
}

// DiskStore writes the WAV container to a temp file in Dir
// (os.TempDir when empty)
type DiskStore struct {
	Dir string
}

func (d DiskStore) create() (sink, error) {
	f, err := os.CreateTemp(d.Dir, "waterfall-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create audio temp file: %w", err)
	}
	return &fileSink{File: f}, nil
}

// memSink is an in-memory io.WriteSeeker
type memSink struct {
	buf []byte
	pos int
}

func (m *memSink) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, len(m.buf), end+len(p))
			copy(grown, m.buf)
			m.buf = grown
		}
		m.buf = m.buf[:end]
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memSink) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, errors.New("negative seek position")
	}
	m.pos = int(pos)
	return pos, nil
}

func (m *memSink) finish() ([]byte, string, error) {
	return m.buf, "", nil
}

func (m *memSink) abort() {
	m.buf = nil
}

type fileSink struct {
	*os.File
}

func (f *fileSink) finish() ([]byte, string, error) {
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name())
		return nil, "", fmt.Errorf("failed to close audio temp file: %w", err)
	}
	return nil, f.Name(), nil
}

func (f *fileSink) abort() {
	f.File.Close()
	os.Remove(f.Name())
}

// Artifact is a materialized WAV stream. Close releases its storage.
type Artifact struct {
	params     Params
	frames     int64
	durationMs int64

	mu     sync.RWMutex
	data   []byte
	path   string
	closed bool
}

// Materialize reads every whole sample frame from src, applies the volume
// gain and writes a WAV container into store. Trailing bytes that do not
// fill a sample frame are dropped.
func Materialize(src source.Source, p Params, store Store) (*Artifact, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio params: %w", err)
	}
	if store == nil {
		store = MemoryStore{}
	}

	frameSize := int64(p.FrameSize())
	totalFrames := src.Len() / frameSize

	out, err := store.create()
	if err != nil {
		return nil, err
	}

	enc := wav.NewEncoder(out, p.SampleRate, p.BitDepth(), p.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: p.Channels, SampleRate: p.SampleRate},
		SourceBitDepth: p.BitDepth(),
	}

	var done int64
	for {
		n := totalFrames - done
		if n > chunkFrames {
			n = chunkFrames
		}
		raw, err := src.ReadRange(done*frameSize, int(n*frameSize))
		if err != nil {
			out.abort()
			return nil, fmt.Errorf("failed to read audio source: %w", err)
		}
		buf.Data = DecodeSamples(raw, p.SampleWidth, buf.Data[:0])
		if p.Volume != MaxVolume {
			ApplyGain(buf.Data, p.SampleWidth, p.Volume)
		}
		// Write is called at least once so the header is always emitted
		if err := enc.Write(buf); err != nil {
			out.abort()
			return nil, fmt.Errorf("failed to write wav data: %w", err)
		}
		done += n
		if done >= totalFrames {
			break
		}
	}

	if err := enc.Close(); err != nil {
		out.abort()
		return nil, fmt.Errorf("failed to finalize wav: %w", err)
	}
	data, path, err := out.finish()
	if err != nil {
		return nil, err
	}

	art := &Artifact{
		params:     p,
		frames:     totalFrames,
		durationMs: DurationMs(totalFrames, p.SampleRate),
		data:       data,
		path:       path,
	}
	logrus.Debugf("Materialized audio: %d frames, %dms (%dch %d-bit %dHz, volume %d%%)",
		art.frames, art.durationMs, p.Channels, p.BitDepth(), p.SampleRate, p.Volume)
	return art, nil
}

// Params returns the parameters the artifact was built with
func (a *Artifact) Params() Params {
	return a.params
}

// Frames returns the number of sample frames
func (a *Artifact) Frames() int64 {
	return a.frames
}

// DurationMs returns the duration rounded up to the next millisecond
func (a *Artifact) DurationMs() int64 {
	return a.durationMs
}

// Size returns the full WAV container length in bytes
func (a *Artifact) Size() int64 {
	return HeaderSize + a.frames*int64(a.params.FrameSize())
}

// Path returns the temp file path for disk-backed artifacts, or ""
func (a *Artifact) Path() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.path
}

type readSeekCloser struct {
	*bytes.Reader
}

func (readSeekCloser) Close() error { return nil }

// Open returns a reader over the complete WAV container
func (a *Artifact) Open() (io.ReadSeekCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrArtifactClosed
	}
	if a.path != "" {
		f, err := os.Open(a.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio artifact: %w", err)
		}
		return f, nil
	}
	return readSeekCloser{bytes.NewReader(a.data)}, nil
}

// PCM returns the raw data chunk
func (a *Artifact) PCM() ([]byte, error) {
	r, err := a.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if _, err := r.Seek(HeaderSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to pcm data: %w", err)
	}
	pcm := make([]byte, a.frames*int64(a.params.FrameSize()))
	if _, err := io.ReadFull(r, pcm); err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}
	return pcm, nil
}

// WriteTo copies the WAV container to w
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	r, err := a.Open()
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return io.Copy(w, r)
}

// Close releases the backing storage. Safe to call more than once.
func (a *Artifact) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.data = nil
	if a.path != "" {
		path := a.path
		a.path = ""
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove audio artifact: %w", err)
		}
	}
	return nil
}
