// ABOUTME: WebSocket client for the waterfall frame service
// ABOUTME: Handles connection, handshake, and message routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	Path       string
	ClientID   string
	Name       string
}

// Client represents a WebSocket client
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex
	hello  ServerHello

	// Message channels
	Frames      chan Frame
	SettingsAck chan SettingsAck
	StreamEnd   chan StreamEnd
	Errors      chan ServerError

	// State
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = "/waterfall"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:      config,
		Frames:      make(chan Frame, 64),
		SettingsAck: make(chan SettingsAck, 4),
		StreamEnd:   make(chan StreamEnd, 1),
		Errors:      make(chan ServerError, 4),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect establishes WebSocket connection and performs handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	logrus.Debugf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake sends client/hello and waits for server/hello
func (c *Client) handshake() error {
	msg := Message{
		Type: TypeClientHello,
		Payload: ClientHello{
			ClientID: c.config.ClientID,
			Name:     c.config.Name,
			Version:  Version,
		},
	}
	if err := c.sendJSON(msg); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}

	switch envelope.Type {
	case TypeServerHello:
	case TypeServerError:
		var serverErr ServerError
		json.Unmarshal(envelope.Payload, &serverErr)
		return fmt.Errorf("server rejected hello: %s", serverErr.Message)
	default:
		return fmt.Errorf("expected server/hello, got %s", envelope.Type)
	}

	var hello ServerHello
	if err := json.Unmarshal(envelope.Payload, &hello); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	c.mu.Lock()
	c.hello = hello
	c.mu.Unlock()

	logrus.Debugf("Handshake complete with server %s", hello.Name)
	return nil
}

// ServerHello returns the hello received during the handshake
func (c *Client) ServerHello() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// sendJSON sends a JSON message
func (c *Client) sendJSON(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.Close()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				logrus.Debugf("Read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

func (c *Client) handleBinaryMessage(data []byte) {
	f, err := DecodeFrame(data)
	if err != nil {
		logrus.Warnf("Invalid binary message: %v", err)
		return
	}

	select {
	case c.Frames <- f:
	case <-c.ctx.Done():
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		logrus.Warnf("Failed to parse JSON message: %v", err)
		return
	}

	switch envelope.Type {
	case TypeSettingsAck:
		var ack SettingsAck
		if err := json.Unmarshal(envelope.Payload, &ack); err != nil {
			logrus.Warnf("Failed to parse settings/ack: %v", err)
			return
		}
		select {
		case c.SettingsAck <- ack:
		case <-c.ctx.Done():
		}

	case TypeStreamEnd:
		var end StreamEnd
		if err := json.Unmarshal(envelope.Payload, &end); err != nil {
			logrus.Warnf("Failed to parse stream/end: %v", err)
			return
		}
		select {
		case c.StreamEnd <- end:
		case <-c.ctx.Done():
		}

	case TypeServerError:
		var serverErr ServerError
		if err := json.Unmarshal(envelope.Payload, &serverErr); err != nil {
			logrus.Warnf("Failed to parse server/error: %v", err)
			return
		}
		select {
		case c.Errors <- serverErr:
		case <-c.ctx.Done():
		}

	default:
		logrus.Debugf("Unknown message type: %s", envelope.Type)
	}
}

// RequestFrame asks for the frame at timestampMs. The reply arrives on Frames.
func (c *Client) RequestFrame(timestampMs int64) error {
	return c.sendJSON(Message{
		Type:    TypeFrameRequest,
		Payload: FrameRequest{TimestampMs: timestampMs},
	})
}

// UpdateSettings sends a settings/update. The reply arrives on SettingsAck or Errors.
func (c *Client) UpdateSettings(update SettingsUpdate) error {
	return c.sendJSON(Message{
		Type:    TypeSettingsUpdate,
		Payload: update,
	})
}

// StartStream asks the server to push frames from fromMs at fps
func (c *Client) StartStream(fromMs int64, fps int) error {
	return c.sendJSON(Message{
		Type:    TypeStreamStart,
		Payload: StreamStart{FromMs: fromMs, FPS: fps},
	})
}

// StopStream stops a pushed stream
func (c *Client) StopStream() error {
	return c.sendJSON(Message{Type: TypeStreamStop, Payload: struct{}{}})
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
