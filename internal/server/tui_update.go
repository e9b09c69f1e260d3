// ABOUTME: TUI update helpers for server
// ABOUTME: Functions to send server state updates to TUI
package server

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// status collects the current server state
func (s *Server) status() ServerStatus {
	s.clientsMu.RLock()
	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, ClientInfo{
			Name:      client.Name,
			ID:        client.ID,
			Frames:    client.framesSent.Load(),
			Streaming: client.streaming(),
		})
	}
	s.clientsMu.RUnlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })

	settings := s.engine.Settings()
	status := ServerStatus{
		Name:    s.config.Name,
		Port:    s.config.Port,
		Clients: clients,
		Format: fmt.Sprintf("%dx%d %s %s", settings.Geometry.Width, settings.Geometry.Height,
			settings.ColorFormat, settings.Alignment),
	}
	if path := s.engine.Path(); path != "" {
		status.File = filepath.Base(path)
	}
	status.DurationMs, _ = s.engine.DurationMs()
	return status
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	// the TUI update channel is closed during shutdown
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	if s.isShutdown {
		return
	}

	s.tui.Update(s.status())
}

// statusLoop refreshes frame counters once a second
func (s *Server) statusLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateTUI()
		case <-s.stopChan:
			return
		}
	}
}
