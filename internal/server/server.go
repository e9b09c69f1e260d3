// ABOUTME: Main server implementation for the waterfall frame service
// ABOUTME: Manages WebSocket connections, client state, and frame delivery
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/internal/discovery"
	"github.com/binary-waterfall/waterfall-go/internal/protocol"
	"github.com/binary-waterfall/waterfall-go/internal/version"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// WebSocketPath is where the frame protocol is served
const WebSocketPath = "/waterfall"

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	UseTUI     bool
}

// Server serves frames and audio from one engine
type Server struct {
	config   Config
	serverID string
	engine   *waterfall.Engine

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Client management
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// mDNS discovery
	mdnsManager *discovery.Manager

	// TUI
	tui       *ServerTUI
	startTime time.Time

	// Control
	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// Client represents a connected client
type Client struct {
	ID   string
	Name string
	Conn *websocket.Conn

	framesSent atomic.Int64

	// pushed frame stream, nil when idle
	streamCancel context.CancelFunc
	streamDone   chan struct{}

	// Output channel for messages
	sendChan chan interface{}

	mu sync.Mutex
}

// New creates a new server instance
func New(config Config, engine *waterfall.Engine) *Server {
	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		engine:   engine,
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// local network service, browser viewers are welcome
				if origin := r.Header.Get("Origin"); origin != "" {
					logrus.Debugf("Accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		clients:   make(map[string]*Client),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}

	s.mux.HandleFunc("GET /audio.wav", s.handleAudio)
	s.mux.HandleFunc("GET /frame", s.handleFrame)
	s.mux.HandleFunc(WebSocketPath, s.handleWebSocket)

	return s
}

// ID returns the server id advertised in hello messages and mDNS
func (s *Server) ID() string {
	return s.serverID
}

// Handler returns the HTTP handler serving all endpoints
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the server until Stop is called, the TUI quits, or the
// listener fails
func (s *Server) Start() error {
	if s.config.UseTUI {
		s.tui = NewServerTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.config.Name, s.config.Port); err != nil {
				logrus.Errorf("TUI error: %v", err)
			}
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.statusLoop()
		}()
	}

	logrus.Infof("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        WebSocketPath,
			ServerID:    s.serverID,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			logrus.Warnf("Failed to start mDNS advertisement: %v", err)
		} else {
			logrus.Info("mDNS advertisement started")
		}
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	logrus.Infof("Frame server listening on %s", addr)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	var serverErr error
	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	select {
	case <-s.stopChan:
		logrus.Info("Server shutting down...")
	case <-tuiQuitChan:
		logrus.Info("TUI quit requested, shutting down...")
		s.Stop()
	case err := <-errChan:
		logrus.Errorf("HTTP server error: %v", err)
		serverErr = err
		s.Stop()
	}

	// Reject new connections from here on
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logrus.Warnf("HTTP server shutdown error: %v", err)
	}

	// hijacked websocket connections are not closed by Shutdown
	s.closeClients()

	s.wg.Wait()
	logrus.Info("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	logrus.Debugf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection manages a client connection
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		logrus.Debug("Rejecting connection during shutdown")
		return
	}
	s.shutdownMu.RUnlock()

	// Wait for client/hello
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		logrus.Debugf("Error reading hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logrus.Debugf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != protocol.TypeClientHello {
		logrus.Debugf("Expected client/hello, got %s", msg.Type)
		writeError(conn, "handshake_required", "first message must be client/hello")
		return
	}

	var hello protocol.ClientHello
	if err := decodePayload(msg.Payload, &hello); err != nil {
		logrus.Debugf("Error unmarshaling client hello: %v", err)
		return
	}

	if hello.ClientID == "" || hello.Name == "" {
		writeError(conn, "invalid_hello", "client_id and name are required")
		return
	}

	logrus.Infof("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	client := &Client{
		ID:       hello.ClientID,
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	// Check for duplicate client ID and register atomically
	s.clientsMu.Lock()
	if existing, exists := s.clients[hello.ClientID]; exists {
		s.clientsMu.Unlock()
		logrus.Warnf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.Name)
		writeError(conn, "duplicate_client_id", "Client ID already connected")
		return
	}
	s.clients[client.ID] = client
	s.clientsMu.Unlock()

	s.updateTUI()

	defer func() {
		s.stopStream(client)

		s.clientsMu.Lock()
		delete(s.clients, client.ID)
		s.clientsMu.Unlock()
		close(client.sendChan)
		logrus.Infof("Client disconnected: %s", client.Name)

		s.updateTUI()
	}()

	if err := s.sendMessage(client, protocol.TypeServerHello, s.hello()); err != nil {
		logrus.Warnf("Error sending server hello: %v", err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(client)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Debugf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(client, data)
	}
}

// hello builds server/hello from the engine's current state
func (s *Server) hello() protocol.ServerHello {
	durationMs, _ := s.engine.DurationMs()
	hello := protocol.ServerHello{
		ServerID:   s.serverID,
		Name:       s.config.Name,
		Version:    protocol.Version,
		Software:   version.String(),
		DurationMs: durationMs,
		Settings:   s.engine.Settings(),
	}
	if path := s.engine.Path(); path != "" {
		hello.File = filepath.Base(path)
	}
	return hello
}

// clientWriter sends messages to the client
func (s *Server) clientWriter(client *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-client.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					logrus.Debugf("Error writing binary message: %v", err)
					client.Conn.Close()
					drain(client.sendChan)
					return
				}
				client.framesSent.Add(1)
			default:
				data, err := json.Marshal(v)
				if err != nil {
					logrus.Warnf("Error marshaling message: %v", err)
					continue
				}
				client.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
					logrus.Debugf("Error writing text message: %v", err)
					client.Conn.Close()
					drain(client.sendChan)
					return
				}
			}

		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				client.Conn.Close()
				drain(client.sendChan)
				return
			}
		}
	}
}

// drain discards queued messages until the channel is closed
func drain(ch <-chan interface{}) {
	for range ch {
	}
}

// handleClientMessage processes messages from clients
func (s *Server) handleClientMessage(client *Client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logrus.Debugf("Error unmarshaling message: %v", err)
		s.sendError(client, "invalid_message", "message is not valid JSON")
		return
	}

	switch msg.Type {
	case protocol.TypeFrameRequest:
		s.handleFrameRequest(client, msg.Payload)
	case protocol.TypeSettingsUpdate:
		s.handleSettingsUpdate(client, msg.Payload)
	case protocol.TypeStreamStart:
		s.handleStreamStart(client, msg.Payload)
	case protocol.TypeStreamStop:
		s.stopStream(client)
	default:
		logrus.Debugf("Unknown message type: %s", msg.Type)
		s.sendError(client, "unknown_message", fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// handleFrameRequest replies with the binary frame at the requested time
func (s *Server) handleFrameRequest(client *Client, payload interface{}) {
	var req protocol.FrameRequest
	if err := decodePayload(payload, &req); err != nil {
		s.sendError(client, "invalid_message", err.Error())
		return
	}

	if err := s.sendFrame(client, req.TimestampMs); err != nil {
		logrus.Debugf("Frame request from %s failed: %v", client.Name, err)
	}
}

// sendFrame queues the frame at timestampMs. Engine errors are reported to
// the client as server/error.
func (s *Server) sendFrame(client *Client, timestampMs int64) error {
	snap, err := s.engine.Snapshot(timestampMs)
	if err != nil {
		s.sendEngineError(client, err)
		return err
	}
	return s.sendBinary(client, protocol.EncodeFrame(snap.TimestampMs, snap.Address, snap.RGB))
}

// handleSettingsUpdate applies a partial settings change atomically
func (s *Server) handleSettingsUpdate(client *Client, payload interface{}) {
	var update protocol.SettingsUpdate
	if err := decodePayload(payload, &update); err != nil {
		s.sendError(client, "invalid_settings", err.Error())
		return
	}

	if err := s.engine.Apply(update.Merge(s.engine.Settings())); err != nil {
		s.sendEngineError(client, err)
		return
	}

	durationMs, _ := s.engine.DurationMs()
	ack := protocol.SettingsAck{
		Settings:   s.engine.Settings(),
		DurationMs: durationMs,
	}
	if err := s.sendMessage(client, protocol.TypeSettingsAck, ack); err != nil {
		logrus.Warnf("Error sending settings ack: %v", err)
	}
	logrus.Infof("Client %s updated settings", client.Name)
	s.updateTUI()
}

// sendEngineError maps engine errors onto protocol error codes
func (s *Server) sendEngineError(client *Client, err error) {
	var verr *waterfall.ValidationError
	switch {
	case errors.Is(err, waterfall.ErrNotLoaded):
		s.sendError(client, "not_loaded", "no file is loaded")
	case errors.As(err, &verr):
		s.sendError(client, "invalid_settings", verr.Error())
	default:
		s.sendError(client, "internal_error", err.Error())
	}
}

func (s *Server) sendError(client *Client, code, message string) {
	if err := s.sendMessage(client, protocol.TypeServerError, protocol.ServerError{Error: code, Message: message}); err != nil {
		logrus.Warnf("Error sending error to %s: %v", client.Name, err)
	}
}

// sendMessage sends a JSON message to a client
func (s *Server) sendMessage(client *Client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case client.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// sendBinary sends binary data to a client
func (s *Server) sendBinary(client *Client, data []byte) error {
	select {
	case client.sendChan <- data:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// decodePayload converts a generic JSON payload into v
func decodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}
	return nil
}

// writeError writes server/error directly, before a client is registered
func writeError(conn *websocket.Conn, code, message string) {
	msg := protocol.Message{
		Type:    protocol.TypeServerError,
		Payload: protocol.ServerError{Error: code, Message: message},
	}
	if data, err := json.Marshal(msg); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
