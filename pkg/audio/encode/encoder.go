// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for audio container encoders
package encode

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedContainer is returned for file extensions with no encoder
var ErrUnsupportedContainer = errors.New("unsupported audio container")

// Encoder writes interleaved integer samples into a container
type Encoder interface {
	// Write appends interleaved samples at the stream's bit depth
	Write(samples []int) error

	// Close flushes the container. It does not close the underlying writer.
	Close() error
}

// Container identifies an audio export format
type Container string

const (
	ContainerWAV  Container = "wav"
	ContainerFLAC Container = "flac"
)

// ContainerForPath picks a container from a file extension
func ContainerForPath(path string) (Container, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch Container(ext) {
	case ContainerWAV, ContainerFLAC:
		return Container(ext), nil
	case "wave":
		return ContainerWAV, nil
	}
	return "", fmt.Errorf("%w %q (supported: wav, flac)", ErrUnsupportedContainer, ext)
}
