// ABOUTME: Byte source abstraction over memory buffers and open files
// ABOUTME: Range reads are zero padded outside the source bounds
// Package source provides read-only byte sources with zero-padded range reads.
//
// Reads before offset 0 or past the end of the source return zero bytes,
// so callers never need to bounds-check addresses themselves.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrClosed is returned by reads on a closed source
var ErrClosed = errors.New("source closed")

// Source is an immutable byte sequence
type Source interface {
	// Len returns the number of bytes in the source
	Len() int64

	// ReadRange returns length bytes starting at offset. Bytes outside
	// [0, Len()) are zero. offset may be negative.
	ReadRange(offset int64, length int) ([]byte, error)

	// Close releases any underlying resources
	Close() error
}

// window computes the overlap of [offset, offset+length) with [0, total).
// It returns the source range and the destination index of its first byte.
// ok is false when there is no overlap.
func window(offset int64, length int, total int64) (start, end int64, dst int, ok bool) {
	start = offset
	end = offset + int64(length)
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start >= end {
		return 0, 0, 0, false
	}
	return start, end, int(start - offset), true
}

// Memory is a Source backed by a byte slice
type Memory struct {
	data []byte
}

// NewMemory wraps data. The slice must not be modified afterwards.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

// Len returns the buffer length
func (m *Memory) Len() int64 {
	return int64(len(m.data))
}

// ReadRange copies the requested window, zero padded
func (m *Memory) ReadRange(offset int64, length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative read length: %d", length)
	}
	out := make([]byte, length)
	if start, end, dst, ok := window(offset, length, int64(len(m.data))); ok {
		copy(out[dst:], m.data[start:end])
	}
	return out, nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

// File is a Source that reads from an open file handle on demand
type File struct {
	f    *os.File
	size int64

	mu     sync.RWMutex
	closed bool
}

// OpenFile opens path for streaming reads
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	return &File{f: f, size: info.Size()}, nil
}

// Len returns the file size captured at open time
func (s *File) Len() int64 {
	return s.size
}

// ReadRange reads the requested window with ReadAt, zero padded.
// Safe for concurrent use.
func (s *File) ReadRange(offset int64, length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("negative read length: %d", length)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	out := make([]byte, length)
	start, end, dst, ok := window(offset, length, s.size)
	if !ok {
		return out, nil
	}
	n, err := s.f.ReadAt(out[dst:dst+int(end-start)], start)
	if err != nil && !(errors.Is(err, io.EOF) && int64(n) == end-start) {
		return nil, fmt.Errorf("failed to read source at %d: %w", start, err)
	}
	return out, nil
}

// Close closes the file handle
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}

// Load opens path either fully into memory or as a streaming file handle
func Load(path string, streaming bool) (Source, error) {
	if streaming {
		return OpenFile(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return NewMemory(data), nil
}
