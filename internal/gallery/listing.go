// SPDX-License-Identifier: MIT

// Package gallery manages the static image tree: template listings, the
// shared meme directory, its persistence and its change feed.
package gallery

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// IsImageName reports whether name looks like a gallery image.
func IsImageName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg")
}

// ListImages returns image filenames from dir, sorted reverse-
// lexicographically. Shared memes carry timestamp names, so this yields
// newest first.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsImageName(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}
