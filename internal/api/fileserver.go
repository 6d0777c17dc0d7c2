// SPDX-License-Identifier: MIT

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/memed/internal/config"
	"github.com/ManuGH/memed/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// Only template and shared images are ever served; everything else under
// the data directory (fonts, history database) stays private.
var allowedImageDirs = map[string]bool{
	config.TemplateDir: true,
	config.SharedDir:   true,
}

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

var (
	errFileNotFound  = errors.New("file not found")
	errPathEscape    = errors.New("path escapes data directory")
	errDirectoryPath = errors.New("path resolves to a directory")
)

// secureFileServer serves image files from the data directory with checks
// against path traversal, symlink escapes, and directory listing.
func (s *Server) secureFileServer() http.Handler {
	dataDir := s.cfg.DataDir

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api.files")

		path, ok := validateFileRequest(w, r, logger)
		if !ok {
			return
		}

		realPath, err := resolveFilePath(dataDir, path)
		if err != nil {
			handleFileResolveError(w, path, dataDir, realPath, err, logger)
			return
		}

		if err := serveFileContent(w, r, realPath, path, logger); err != nil {
			logger.Error().Err(err).Str("event", "file_req.internal_error").Str(log.FieldPath, realPath).Msg("could not serve file")
			recordFileRequestDenied("internal_error")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	})
}

func validateFileRequest(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, r.URL.Path).Str("reason", "method_not_allowed").Msg("method not allowed")
		recordFileRequestDenied("method_not_allowed")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	path := r.URL.Path

	if isPathTraversal(path) {
		logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, path).Str("reason", "path_escape").Msg("detected traversal sequence")
		recordFileRequestDenied("path_escape")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}
	if strings.HasSuffix(path, "/") || path == "" || path == "/" {
		logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, path).Str("reason", "directory_listing").Msg("directory listing forbidden")
		recordFileRequestDenied("directory_listing")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}

	clean := filepath.ToSlash(filepath.Clean(strings.TrimPrefix(path, "/")))
	parts := strings.SplitN(clean, "/", 2)
	if len(parts) != 2 || !allowedImageDirs[parts[0]] {
		logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, path).Str("reason", "forbidden_dir").Msg("directory not served")
		recordFileRequestDenied("forbidden_dir")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}
	if !allowedImageExtensions[strings.ToLower(filepath.Ext(clean))] {
		logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, path).Str("reason", "forbidden_extension").Msg("extension not served")
		recordFileRequestDenied("forbidden_extension")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}

	return clean, true
}

func resolveFilePath(dataDir, requestPath string) (string, error) {
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}

	fullPath := filepath.Join(absDataDir, requestPath)
	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fullPath, fmt.Errorf("%w: %s", errFileNotFound, fullPath)
		}
		return fullPath, fmt.Errorf("eval symlinks for request path: %w", err)
	}

	realDataDir, err := filepath.EvalSymlinks(absDataDir)
	if err != nil {
		return realPath, fmt.Errorf("eval symlinks for data dir: %w", err)
	}

	relPath, err := filepath.Rel(realDataDir, realPath)
	if err != nil || strings.HasPrefix(relPath, "..") || filepath.IsAbs(relPath) {
		return realPath, fmt.Errorf("%w: %s", errPathEscape, realPath)
	}

	info, err := os.Stat(realPath)
	if err != nil {
		if os.IsNotExist(err) {
			return realPath, fmt.Errorf("%w: %s", errFileNotFound, realPath)
		}
		return realPath, fmt.Errorf("stat resolved path: %w", err)
	}
	if info.IsDir() {
		return realPath, fmt.Errorf("%w: %s", errDirectoryPath, realPath)
	}

	return realPath, nil
}

func handleFileResolveError(w http.ResponseWriter, requestPath, dataDir, resolvedPath string, err error, logger zerolog.Logger) {
	switch {
	case errors.Is(err, errFileNotFound):
		logger.Info().Str("event", "file_req.not_found").Str(log.FieldPath, resolvedPath).Msg("file not found")
		recordFileRequestDenied("not_found")
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, errPathEscape):
		logger.Warn().
			Str("event", "file_req.denied").
			Str(log.FieldPath, requestPath).
			Str("resolved_path", resolvedPath).
			Str(log.FieldDataDir, dataDir).
			Str("reason", "path_escape").
			Msg("path escapes data directory")
		recordFileRequestDenied("path_escape")
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, errDirectoryPath):
		logger.Warn().Str("event", "file_req.denied").Str(log.FieldPath, requestPath).Str("reason", "directory_listing").Msg("resolved path is a directory")
		recordFileRequestDenied("directory_listing")
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		logger.Error().Err(err).Str("event", "file_req.internal_error").Str(log.FieldPath, resolvedPath).Msg("could not resolve path")
		recordFileRequestDenied("internal_error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func serveFileContent(w http.ResponseWriter, r *http.Request, realPath, requestPath string, logger zerolog.Logger) error {
	f, err := os.Open(realPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("open resolved path: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logger.Warn().Err(closeErr).Str(log.FieldPath, realPath).Msg("failed to close file")
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat opened file: %w", err)
	}

	etag := fmt.Sprintf(`W/"%x-%x"`, info.ModTime().UnixNano(), info.Size())
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		recordFileCacheHit()
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	logger.Debug().Str("event", "file_req.allowed").Str(log.FieldPath, requestPath).Msg("serving file")
	recordFileRequestAllowed()
	recordFileCacheMiss()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

// isPathTraversal decodes the input multiple times to catch double-encoding,
// applies Unicode normalization, and searches for dangerous sequences
// including NULs.
func isPathTraversal(p string) bool {
	// Encoded patterns like overlong-UTF-8 dots only exist in percent form,
	// so every decode stage is scanned: the raw path first, then each pass,
	// otherwise a later decode erases the evidence.
	if containsDangerSequence(p) {
		return true
	}

	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
		if containsDangerSequence(decoded) {
			return true
		}
	}
	if strings.IndexByte(decoded, 0x00) >= 0 {
		return true
	}

	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..") || strings.Contains(normalized, "..\\")
}

var dangerSubstrings = []string{
	"..",
	"..\\",
	"%00",
	"\x00",
	"%c0%ae",
	"%e0%80%ae",
}

func containsDangerSequence(p string) bool {
	lower := strings.ToLower(p)
	for _, pat := range dangerSubstrings {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}
