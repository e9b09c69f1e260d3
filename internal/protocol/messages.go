// ABOUTME: Waterfall frame service message type definitions
// ABOUTME: Defines JSON control messages and the binary frame layout
package protocol

import (
	"encoding/binary"
	"errors"

	"github.com/binary-waterfall/waterfall-go/pkg/address"
	"github.com/binary-waterfall/waterfall-go/pkg/audio"
	"github.com/binary-waterfall/waterfall-go/pkg/frame"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// Version is the protocol version sent in hello messages
const Version = 1

// Message types
const (
	TypeClientHello    = "client/hello"
	TypeServerHello    = "server/hello"
	TypeFrameRequest   = "frame/request"
	TypeSettingsUpdate = "settings/update"
	TypeSettingsAck    = "settings/ack"
	TypeStreamStart    = "stream/start"
	TypeStreamStop     = "stream/stop"
	TypeStreamEnd      = "stream/end"
	TypeServerError    = "server/error"
)

const (
	// FrameMessageType is the binary message type ID for frames
	FrameMessageType = 1

	// FrameHeaderSize is type byte + timestamp + address
	FrameHeaderSize = 1 + 8 + 8
)

// ErrShortFrame is returned for binary messages smaller than the header
var ErrShortFrame = errors.New("frame message too short")

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID   string             `json:"server_id"`
	Name       string             `json:"name"`
	Version    int                `json:"version"`
	Software   string             `json:"software,omitempty"`
	File       string             `json:"file,omitempty"`
	DurationMs int64              `json:"duration_ms"`
	Settings   waterfall.Settings `json:"settings"`
}

// FrameRequest asks for the frame at a timestamp
type FrameRequest struct {
	TimestampMs int64 `json:"timestamp_ms"`
}

// SettingsUpdate changes engine settings. Nil fields are left unchanged.
type SettingsUpdate struct {
	Geometry    *frame.Geometry    `json:"geometry,omitempty"`
	ColorFormat *string            `json:"color_format,omitempty"`
	Audio       *audio.Params      `json:"audio,omitempty"`
	Alignment   *address.Alignment `json:"alignment,omitempty"`
	Flip        *frame.Flip        `json:"flip,omitempty"`
}

// Merge applies the non-nil fields of the update to s
func (u SettingsUpdate) Merge(s waterfall.Settings) waterfall.Settings {
	if u.Geometry != nil {
		s.Geometry = *u.Geometry
	}
	if u.ColorFormat != nil {
		s.ColorFormat = *u.ColorFormat
	}
	if u.Audio != nil {
		s.Audio = *u.Audio
	}
	if u.Alignment != nil {
		s.Alignment = *u.Alignment
	}
	if u.Flip != nil {
		s.Flip = *u.Flip
	}
	return s
}

// SettingsAck confirms applied settings
type SettingsAck struct {
	Settings   waterfall.Settings `json:"settings"`
	DurationMs int64              `json:"duration_ms"`
}

// StreamStart asks the server to push frames at a fixed rate
type StreamStart struct {
	FromMs int64 `json:"from_ms"`
	FPS    int   `json:"fps"`
}

// StreamEnd reports that a pushed stream reached the end of the audio
type StreamEnd struct {
	TimestampMs int64 `json:"timestamp_ms"`
}

// ServerError reports a rejected request
type ServerError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Frame is a decoded binary frame message
type Frame struct {
	TimestampMs int64
	Address     int64
	RGB         []byte
}

// EncodeFrame creates a binary frame message
// Format: [type:1][timestamp:8 BE][address:8 BE][rgb...]
func EncodeFrame(timestampMs, addr int64, rgb []byte) []byte {
	msg := make([]byte, FrameHeaderSize+len(rgb))
	msg[0] = FrameMessageType
	binary.BigEndian.PutUint64(msg[1:9], uint64(timestampMs))
	binary.BigEndian.PutUint64(msg[9:17], uint64(addr))
	copy(msg[FrameHeaderSize:], rgb)
	return msg
}

// DecodeFrame parses a binary frame message
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < FrameHeaderSize {
		return Frame{}, ErrShortFrame
	}
	if data[0] != FrameMessageType {
		return Frame{}, errors.New("unknown binary message type")
	}
	return Frame{
		TimestampMs: int64(binary.BigEndian.Uint64(data[1:9])),
		Address:     int64(binary.BigEndian.Uint64(data[9:17])),
		RGB:         data[FrameHeaderSize:],
	}, nil
}
