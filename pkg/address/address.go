// ABOUTME: Maps audio timestamps to byte offsets in the source
// ABOUTME: Pure integer arithmetic with round-half-away-from-zero
// Package address converts a position on the audio timeline into the byte
// offset of the frame shown at that instant.
//
// The source is divided into blocks of one frame row each
// (width * colorBytes bytes). The timestamp selects a block proportionally,
// and the alignment shifts the read window so the selected block lands at
// the start, middle or end of the frame.
package address

import (
	"fmt"
	"strings"
)

// Alignment selects where the current block sits inside the frame window
type Alignment int

const (
	Start Alignment = iota
	Middle
	End
)

func (a Alignment) String() string {
	switch a {
	case Start:
		return "start"
	case Middle:
		return "middle"
	case End:
		return "end"
	}
	return fmt.Sprintf("Alignment(%d)", int(a))
}

// Valid reports whether a is one of the defined alignments
func (a Alignment) Valid() bool {
	return a == Start || a == Middle || a == End
}

// ParseAlignment accepts "start", "middle" or "end" in any case
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start":
		return Start, nil
	case "middle":
		return Middle, nil
	case "end":
		return End, nil
	}
	return 0, fmt.Errorf("unknown alignment %q (expected start, middle or end)", s)
}

// MarshalText implements encoding.TextMarshaler
func (a Alignment) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid alignment %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Alignment) UnmarshalText(text []byte) error {
	parsed, err := ParseAlignment(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Blocks returns the row size in bytes and the number of rows needed to
// cover totalBytes
func Blocks(totalBytes int64, width, colorBytes int) (blockSize, totalBlocks int64) {
	blockSize = int64(width) * int64(colorBytes)
	if blockSize <= 0 {
		return 0, 0
	}
	return blockSize, (totalBytes + blockSize - 1) / blockSize
}

// For returns the byte offset of the frame for timestampMs.
// The result may be negative or past the end of the source; readers
// are expected to zero pad. A non-positive durationMs yields 0.
func For(timestampMs, durationMs, totalBytes int64, width, height, colorBytes int, a Alignment) int64 {
	if durationMs <= 0 {
		return 0
	}
	blockSize, totalBlocks := Blocks(totalBytes, width, colorBytes)
	if blockSize == 0 {
		return 0
	}

	index := RoundDiv(totalBlocks*timestampMs, durationMs)
	switch a {
	case Start:
		index -= int64(height)
	case Middle:
		index -= RoundDiv(int64(height), 2)
	}

	return index * blockSize
}

// RoundDiv returns n/d rounded half away from zero. d must be positive.
func RoundDiv(n, d int64) int64 {
	if n < 0 {
		return -((-n*2 + d) / (d * 2))
	}
	return (n*2 + d) / (d * 2)
}
