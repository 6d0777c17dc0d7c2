// SPDX-License-Identifier: MIT

package gallery

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ManuGH/memed/internal/log"
	"github.com/google/renameio/v2"
)

// safeShareName rejects anything but a flat image filename.
var safeShareName = regexp.MustCompile(`^[0-9]+\.(png|jpg|jpeg)$`)

// Share owns the shared meme directory: atomic persistence plus the optional
// history store.
type Share struct {
	dir     string
	history *HistoryStore // nil disables history
}

// NewShare creates a Share over dir. history may be nil.
func NewShare(dir string, history *HistoryStore) *Share {
	return &Share{dir: dir, history: history}
}

// Dir returns the shared directory path.
func (s *Share) Dir() string { return s.dir }

// ShareName builds a timestamped filename carrying ext forward. Nanosecond
// resolution keeps concurrent shares from colliding.
func ShareName(now time.Time, originalName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	return fmt.Sprintf("%d.%s", now.UnixNano(), ext)
}

// Save writes image bytes into the shared directory under name, atomically
// and durably: the file is fsynced and renamed into place, so the file
// server never observes a partial meme. The share is recorded in history
// when a store is configured.
func (s *Share) Save(ctx context.Context, name string, data []byte, topText, bottomText string) error {
	if !safeShareName.MatchString(name) {
		return fmt.Errorf("invalid share name %q", name)
	}

	path := filepath.Join(s.dir, name)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write shared meme: %w", err)
	}

	if s.history != nil {
		if err := s.history.Record(ctx, Entry{
			FileName:   name,
			TopText:    topText,
			BottomText: bottomText,
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
			// The image is already live; history is best effort.
			log.FromContext(ctx).Warn().Err(err).
				Str(log.FieldFile, name).
				Msg("failed to record share history")
		}
	}
	return nil
}
