// ABOUTME: Pushed frame streams for connected clients
// ABOUTME: Sends frames at a fixed rate following the wall clock until the audio ends
package server

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/internal/config"
	"github.com/binary-waterfall/waterfall-go/internal/protocol"
)

// handleStreamStart replaces any running stream for the client
func (s *Server) handleStreamStart(client *Client, payload interface{}) {
	var req protocol.StreamStart
	if err := decodePayload(payload, &req); err != nil {
		s.sendError(client, "invalid_message", err.Error())
		return
	}
	if _, ok := s.engine.DurationMs(); !ok {
		s.sendError(client, "not_loaded", "no file is loaded")
		return
	}

	s.stopStream(client)

	fps := config.ClampFPS(req.FPS)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	client.mu.Lock()
	client.streamCancel = cancel
	client.streamDone = done
	client.mu.Unlock()

	logrus.Debugf("Stream for %s: from %dms at %d fps", client.Name, req.FromMs, fps)

	go func() {
		defer close(done)
		s.runStream(ctx, client, req.FromMs, fps)
	}()
}

// stopStream cancels the client's stream and waits for it to exit
func (s *Server) stopStream(client *Client) {
	client.mu.Lock()
	cancel, done := client.streamCancel, client.streamDone
	client.streamCancel, client.streamDone = nil, nil
	client.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// streaming reports whether the client has a running stream
func (c *Client) streaming() bool {
	c.mu.Lock()
	done := c.streamDone
	c.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

func (s *Server) runStream(ctx context.Context, client *Client, fromMs int64, fps int) {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	started := time.Now()
	for {
		durationMs, ok := s.engine.DurationMs()
		if !ok {
			s.sendError(client, "not_loaded", "no file is loaded")
			return
		}

		ts := fromMs + time.Since(started).Milliseconds()
		if ts > durationMs {
			ts = durationMs
		}

		if err := s.sendFrame(client, ts); err != nil {
			// a slow client drops frames rather than stalling the stream
			logrus.Debugf("Dropped frame for %s: %v", client.Name, err)
		}

		if ts >= durationMs {
			if err := s.sendMessage(client, protocol.TypeStreamEnd, protocol.StreamEnd{TimestampMs: ts}); err != nil {
				logrus.Debugf("Error sending stream end to %s: %v", client.Name, err)
			}
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		}
	}
}
