// ABOUTME: Plain HTTP endpoints of the frame server
// ABOUTME: Serves the audio artifact and single frames as images or raw RGB
package server

import (
	"bytes"
	"errors"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binary-waterfall/waterfall-go/internal/render"
	"github.com/binary-waterfall/waterfall-go/pkg/waterfall"
)

// maxImageDim bounds the w and h query parameters
const maxImageDim = 4096

var contentTypes = map[render.ImageFormat]string{
	render.FormatPNG:  "image/png",
	render.FormatJPEG: "image/jpeg",
	render.FormatBMP:  "image/bmp",
}

// handleAudio serves the WAV artifact with range support
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	art, err := s.engine.Audio()
	if err != nil {
		httpEngineError(w, err)
		return
	}

	rd, err := art.Open()
	if err != nil {
		httpEngineError(w, err)
		return
	}
	defer rd.Close()

	w.Header().Set("Content-Type", "audio/wav")
	http.ServeContent(w, r, "audio.wav", time.Time{}, rd)
}

// handleFrame serves GET /frame?t=<ms>&format=png|jpeg|bmp|raw
// with optional w, h and playhead for image formats
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var ts int64
	if v := q.Get("t"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "t must be an integer number of milliseconds", http.StatusBadRequest)
			return
		}
		ts = parsed
	}

	format := q.Get("format")
	if format == "" {
		format = string(render.FormatPNG)
	}
	if format == "jpg" {
		format = string(render.FormatJPEG)
	}

	if format == "raw" {
		s.serveRawFrame(w, ts)
		return
	}

	contentType, ok := contentTypes[render.ImageFormat(format)]
	if !ok {
		http.Error(w, "format must be png, jpeg, bmp or raw", http.StatusBadRequest)
		return
	}

	opts := render.FrameOptions{Playhead: q.Get("playhead") == "1" || q.Get("playhead") == "true"}
	if q.Get("w") != "" || q.Get("h") != "" {
		width, errW := strconv.Atoi(q.Get("w"))
		height, errH := strconv.Atoi(q.Get("h"))
		if errW != nil || errH != nil || width < 1 || height < 1 || width > maxImageDim || height > maxImageDim {
			http.Error(w, "w and h must both be between 1 and 4096", http.StatusBadRequest)
			return
		}
		opts.Size = image.Pt(width, height)
	}

	img, err := render.FrameImage(s.engine, ts, opts)
	if err != nil {
		httpEngineError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, img, render.ImageFormat(format), render.DefaultJPEGQuality); err != nil {
		logrus.Errorf("Failed to encode frame: %v", err)
		http.Error(w, "failed to encode frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// serveRawFrame writes packed RGB with the frame layout in headers
func (s *Server) serveRawFrame(w http.ResponseWriter, ts int64) {
	snap, err := s.engine.Snapshot(ts)
	if err != nil {
		httpEngineError(w, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Length", strconv.Itoa(len(snap.RGB)))
	h.Set("X-Waterfall-Width", strconv.Itoa(snap.Geometry.Width))
	h.Set("X-Waterfall-Height", strconv.Itoa(snap.Geometry.Height))
	h.Set("X-Waterfall-Timestamp", strconv.FormatInt(snap.TimestampMs, 10))
	h.Set("X-Waterfall-Address", strconv.FormatInt(snap.Address, 10))
	w.Write(snap.RGB)
}

func httpEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, waterfall.ErrNotLoaded) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	logrus.Errorf("Frame server error: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
