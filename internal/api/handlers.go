// SPDX-License-Identifier: MIT

package api

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ManuGH/memed/internal/config"
	"github.com/ManuGH/memed/internal/events"
	"github.com/ManuGH/memed/internal/gallery"
	"github.com/ManuGH/memed/internal/log"
	"github.com/ManuGH/memed/internal/meme"
	"github.com/ManuGH/memed/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

const maxMemeFormBytes = 8 << 20 // rendered meme comes back base64-encoded

// indexData feeds the index page template.
type indexData struct {
	Images []string
	Shared []string
}

// memeData feeds the meme fragment template. DataURI is assembled here and
// passed as template.URL so the base64 payload is not percent-escaped by the
// URL context inside src.
type memeData struct {
	File          string
	TopText       string
	BottomText    string
	EncodedString string
	DataURI       template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	images, err := gallery.ListImages(s.cfg.TemplatePath())
	if err != nil {
		logger.Error().Err(err).Str(log.FieldPath, s.cfg.TemplatePath()).Msg("failed to list templates")
		writeServerError(w)
		return
	}
	shared, err := gallery.ListImages(s.cfg.SharedPath())
	if err != nil {
		logger.Error().Err(err).Str(log.FieldPath, s.cfg.SharedPath()).Msg("failed to list shared memes")
		writeServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", indexData{Images: images, Shared: shared}); err != nil {
		logger.Error().Err(err).Str(log.FieldTemplate, "index.html").Msg("failed to render template")
	}
}

func (s *Server) handleMeme(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	r.Body = http.MaxBytesReader(w, r.Body, maxMemeFormBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, fmt.Errorf("parse form: %w", err))
		return
	}

	if r.PostFormValue("share") == "true" {
		s.handleShare(w, r)
		return
	}

	file := r.PostFormValue("file")
	topText := r.PostFormValue("top_text")
	bottomText := r.PostFormValue("bottom_text")

	if file == "" {
		// Submitting the composer without picking a template is a normal
		// first interaction; answer with the empty fragment.
		s.renderMemeFragment(w, r, memeData{})
		return
	}
	if file != filepath.Base(file) {
		writeError(w, fmt.Errorf("invalid template name"))
		return
	}
	format, ok := meme.FormatForFile(file)
	if !ok {
		writeError(w, fmt.Errorf("unsupported template %q", file))
		return
	}

	start := time.Now()
	encoded, cacheHit, err := s.renderCached(file, topText, bottomText)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Template vanished between page load and submit; show the
			// empty composer rather than an error page.
			logger.Warn().Str(log.FieldFile, file).Msg("template not found")
			s.renderMemeFragment(w, r, memeData{})
			return
		}
		logger.Error().Err(err).Str(log.FieldFile, file).Msg("render failed")
		writeServerError(w)
		return
	}
	duration := time.Since(start)
	recordRender(duration, cacheHit)

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(telemetry.RenderAttributes(file, string(format), cacheHit, duration.Milliseconds())...)

	logger.Debug().
		Str(log.FieldFile, file).
		Str(log.FieldFormat, string(format)).
		Bool("cache_hit", cacheHit).
		Dur("duration", duration).
		Msg("meme rendered")

	s.renderMemeFragment(w, r, memeData{
		File:          file,
		TopText:       topText,
		BottomText:    bottomText,
		EncodedString: encoded,
		DataURI:       template.URL("data:image/" + string(format) + ";base64," + encoded),
	})
}

// renderCached renders a meme, consulting the cache first. The returned
// string is the base64-encoded image.
func (s *Server) renderCached(file, topText, bottomText string) (string, bool, error) {
	key := renderCacheKey(file, topText, bottomText, s.cfg.BaseImageWidth)
	if data, ok := s.cache.Get(key); ok {
		return base64.StdEncoding.EncodeToString(data), true, nil
	}

	template, err := os.ReadFile(filepath.Join(s.cfg.TemplatePath(), file))
	if err != nil {
		return "", false, fmt.Errorf("read template: %w", err)
	}

	data, err := meme.Render(template, file, topText, bottomText, s.cfg.BaseImageWidth, s.fnt)
	if err != nil {
		return "", false, err
	}
	s.cache.Set(key, data, s.cfg.CacheTTL)

	return base64.StdEncoding.EncodeToString(data), false, nil
}

func renderCacheKey(file, topText, bottomText string, width int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", file, topText, bottomText, width)
	return "render:" + hex.EncodeToString(h.Sum(nil))
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api")

	file := r.PostFormValue("file")
	topText := r.PostFormValue("top_text")
	bottomText := r.PostFormValue("bottom_text")
	encoded := r.PostFormValue("encoded_string")

	if encoded == "" {
		writeError(w, fmt.Errorf("nothing to share"))
		return
	}
	if _, ok := meme.FormatForFile(file); !ok {
		writeError(w, fmt.Errorf("unsupported template %q", file))
		return
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		writeError(w, fmt.Errorf("decode image: %w", err))
		return
	}

	name := gallery.ShareName(time.Now(), file)
	if s.suppress != nil {
		// This server announces its own shares; keep the watcher from
		// announcing the same file twice.
		s.suppress(name)
	}
	if err := s.share.Save(r.Context(), name, data, topText, bottomText); err != nil {
		logger.Error().Err(err).Str(log.FieldFile, name).Msg("share failed")
		writeServerError(w)
		return
	}
	recordShare()

	s.broker.Broadcast(events.FormatSSE(sharedImageTag(name), "message"))

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(telemetry.ShareAttributes(name, s.broker.SubscriberCount())...)

	logger.Info().
		Str(log.FieldFile, name).
		Int("subscribers", s.broker.SubscriberCount()).
		Msg("meme shared")

	w.Header().Set("HX-Trigger", "new_picture")
	s.renderMemeFragment(w, r, memeData{})
}

// sharedImageTag is the HTML snippet broadcast to gallery subscribers.
func sharedImageTag(name string) string {
	return fmt.Sprintf(`<img src="static/%s/%s" alt="">`, config.SharedDir, name)
}

func (s *Server) renderMemeFragment(w http.ResponseWriter, r *http.Request, data memeData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "meme.html", data); err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldTemplate, "meme.html").Msg("failed to render template")
	}
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api.sse")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeServerError(w)
		return
	}

	sub := s.broker.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logger.Debug().Int("subscribers", s.broker.SubscriberCount()).Msg("subscriber connected")

	keepalive := time.NewTicker(s.cfg.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Msg("subscriber disconnected")
			return
		case msg, open := <-sub.C():
			if !open {
				return
			}
			if _, err := fmt.Fprint(w, msg); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, events.KeepaliveFrame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleAPIImages(w http.ResponseWriter, r *http.Request) {
	s.writeImageListing(w, r, s.cfg.TemplatePath())
}

func (s *Server) handleAPIShared(w http.ResponseWriter, r *http.Request) {
	s.writeImageListing(w, r, s.cfg.SharedPath())
}

func (s *Server) writeImageListing(w http.ResponseWriter, r *http.Request, dir string) {
	images, err := gallery.ListImages(dir)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Str(log.FieldPath, dir).Msg("failed to list images")
		writeServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"entries": []gallery.Entry{}})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("failed to read share history")
		writeServerError(w)
		return
	}
	if entries == nil {
		entries = []gallery.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
