// SPDX-License-Identifier: MIT

package gallery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"meme.png", true},
		{"meme.jpg", true},
		{"MEME.PNG", true},
		{"notes.txt", false},
		{"meme.jpeg", false},
		{"impact.ttf", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsImageName(tt.name))
		})
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"100.png", "300.jpg", "200.png", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.png"), 0o755))

	images, err := ListImages(dir)
	require.NoError(t, err)

	// Reverse-lexicographic: timestamped names come back newest first.
	assert.Equal(t, []string{"300.jpg", "200.png", "100.png"}, images)
}

func TestListImages_EmptyDir(t *testing.T) {
	images, err := ListImages(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestListImages_MissingDir(t *testing.T) {
	_, err := ListImages(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
