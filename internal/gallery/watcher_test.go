// SPDX-License-Identifier: MIT

package gallery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitForNotify(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for notification %q", want)
		}
	}
}

func TestWatcher_AnnouncesNewImages(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	notifications := make(chan string, 16)

	w, err := NewWatcher(dir, func(name string) { notifications <- name })
	require.NoError(t, err)
	defer func() { _ = w.Close(context.Background()) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "12345.png"), []byte("image bytes"), 0o644))

	waitForNotify(t, notifications, "12345.png")
}

func TestWatcher_IgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	notifications := make(chan string, 16)

	w, err := NewWatcher(dir, func(name string) { notifications <- name })
	require.NoError(t, err)
	defer func() { _ = w.Close(context.Background()) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.png"), []byte("image"), 0o644))

	// Only the image arrives; the text file was filtered out.
	waitForNotify(t, notifications, "real.png")
	select {
	case got := <-notifications:
		t.Fatalf("unexpected notification %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_SuppressedNamesStayQuiet(t *testing.T) {
	dir := t.TempDir()
	notifications := make(chan string, 16)

	w, err := NewWatcher(dir, func(name string) { notifications <- name })
	require.NoError(t, err)
	defer func() { _ = w.Close(context.Background()) }()

	w.Suppress("999.png")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "999.png"), []byte("image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "111.png"), []byte("image"), 0o644))

	waitForNotify(t, notifications, "111.png")
	select {
	case got := <-notifications:
		t.Fatalf("suppressed file was announced: %q", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_SuppressPrunesExpiredEntries(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, func(string) {})
	require.NoError(t, err)
	defer func() { _ = w.Close(context.Background()) }()

	w.mu.Lock()
	w.announced["old.png"] = time.Now().Add(-2 * announceSuppression)
	w.announced["fresh.png"] = time.Now()
	w.mu.Unlock()

	w.Suppress("new.png")

	w.mu.Lock()
	defer w.mu.Unlock()
	require.NotContains(t, w.announced, "old.png")
	require.Contains(t, w.announced, "fresh.png")
	require.Contains(t, w.announced, "new.png")
}

func TestWatcher_CloseIsBounded(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(string) {})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))
}
