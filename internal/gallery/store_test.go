// SPDX-License-Identifier: MIT

package gallery

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistoryStore_RecordAndRecent(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, h.Record(ctx, Entry{
			FileName:   ShareName(base.Add(time.Duration(i)*time.Second), "cat.png"),
			TopText:    "top",
			BottomText: "bottom",
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.True(t, entries[0].CreatedAt.After(entries[2].CreatedAt))
	assert.Equal(t, "top", entries[0].TopText)
	assert.Equal(t, "bottom", entries[0].BottomText)
	assert.NotZero(t, entries[0].ID)
}

func TestHistoryStore_RecentLimit(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Record(ctx, Entry{
			FileName:  ShareName(now.Add(time.Duration(i)*time.Millisecond), "x.png"),
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}))
	}

	entries, err := h.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// Out-of-range limits fall back to the default rather than erroring.
	entries, err = h.Recent(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = h.Recent(ctx, 100000)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestHistoryStore_RecentEmpty(t *testing.T) {
	h := openTestHistory(t)

	entries, err := h.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryStore_Ping(t *testing.T) {
	h := openTestHistory(t)
	require.NoError(t, h.Ping(context.Background()))
}

func TestHistoryStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := context.Background()

	h, err := OpenHistory(path)
	require.NoError(t, err)
	require.NoError(t, h.Record(ctx, Entry{FileName: "1.png", CreatedAt: time.Now().UTC()}))
	require.NoError(t, h.Close())

	h2, err := OpenHistory(path)
	require.NoError(t, err)
	defer func() { _ = h2.Close() }()

	entries, err := h2.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1.png", entries[0].FileName)
}
