// SPDX-License-Identifier: MIT

// Package meme renders auto-wrapped, auto-sized captions onto template images.
package meme

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Font wraps a parsed TrueType/OpenType caption font. A Font is immutable and
// safe for concurrent use; faces derived from it are per-render.
type Font struct {
	sfnt *sfnt.Font
}

// LoadFont reads and parses a font file (e.g. impact.ttf).
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from validated config
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return ParseFont(data)
}

// ParseFont parses font bytes.
func ParseFont(data []byte) (*Font, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Font{sfnt: f}, nil
}

// face creates a rendering face at the given pixel size.
func (f *Font) face(sizePx int) (font.Face, error) {
	return opentype.NewFace(f.sfnt, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     72, // size in points == pixels at 72 DPI
		Hinting: font.HintingFull,
	})
}
