// SPDX-License-Identifier: MIT

package meme

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	textFillColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textStrokeColor = color.RGBA{A: 255}
)

// Layout ratios for caption placement. Each text block (top / bottom) lives
// in a zone that is a fraction of the image height; the font is shrunk until
// the wrapped block fits its zone.
const (
	horizontalPaddingRatio = 0.05
	verticalPaddingRatio   = 0.04
	textZoneRatio          = 0.35
	maxFontHeightRatio     = 0.14
	minFontSize            = 10
)

// TextRenderer draws outlined captions onto a single destination image.
// It is not safe for concurrent use; each render owns its renderer.
type TextRenderer struct {
	dst    *image.RGBA
	fnt    *Font
	width  int
	height int
}

// NewTextRenderer wraps dst for caption drawing.
func NewTextRenderer(dst *image.RGBA, fnt *Font) *TextRenderer {
	b := dst.Bounds()
	return &TextRenderer{
		dst:    dst,
		fnt:    fnt,
		width:  b.Dx(),
		height: b.Dy(),
	}
}

// wrapText word-wraps text so every line fits within maxWidth pixels, using
// actual pixel measurements of candidate lines.
func wrapText(text string, face font.Face, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	lines := make([]string, 0, 4)
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			current = candidate
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}

// blockHeight measures the pixel height of a wrapped block at the face's
// line metrics: one ink line plus the line advance for each following line.
func blockHeight(face font.Face, lineCount int) int {
	if lineCount == 0 {
		return 0
	}
	m := face.Metrics()
	h := m.Ascent + m.Descent + fixed.I(lineCount-1).Mul(m.Height)
	return h.Ceil()
}

// fitText returns the largest face plus wrapped lines that fit the given box.
// The search walks the size down from the zone maximum to minFontSize.
func (r *TextRenderer) fitText(text string, maxWidth, maxHeight int) (font.Face, []string, int, error) {
	maxSize := int(float64(r.height) * maxFontHeightRatio)
	if maxSize < minFontSize {
		maxSize = minFontSize
	}

	for size := maxSize; size >= minFontSize; size-- {
		face, err := r.fnt.face(size)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("face at %dpx: %w", size, err)
		}
		lines := wrapText(text, face, maxWidth)
		if blockHeight(face, len(lines)) <= maxHeight {
			return face, lines, size, nil
		}
		_ = face.Close()
	}

	face, err := r.fnt.face(minFontSize)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("face at %dpx: %w", minFontSize, err)
	}
	return face, wrapText(text, face, maxWidth), minFontSize, nil
}

// textZone returns (maxWidth, maxHeight, verticalPadding) for a caption zone.
func (r *TextRenderer) textZone() (int, int, int) {
	hPad := int(float64(r.width) * horizontalPaddingRatio)
	vPad := int(float64(r.height) * verticalPaddingRatio)
	maxWidth := r.width - 2*hPad
	maxHeight := int(float64(r.height) * textZoneRatio)
	return maxWidth, maxHeight, vPad
}

// drawOutlined draws the wrapped lines centred horizontally with a
// proportional outline stroke. firstBaseline is the baseline of line 0.
func (r *TextRenderer) drawOutlined(lines []string, face font.Face, sizePx int, firstBaseline fixed.Int26_6) {
	stroke := sizePx / 12
	if stroke < 1 {
		stroke = 1
	}

	m := face.Metrics()
	centerX := fixed.I(r.width / 2)

	baseline := firstBaseline
	for _, line := range lines {
		lineWidth := font.MeasureString(face, line)
		x := centerX - lineWidth/2

		// Stroke pass: stamp the line at every offset within the stroke
		// radius, then the fill on top.
		d := font.Drawer{Dst: r.dst, Face: face}
		d.Src = image.NewUniform(textStrokeColor)
		for dy := -stroke; dy <= stroke; dy++ {
			for dx := -stroke; dx <= stroke; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if dx*dx+dy*dy > stroke*stroke {
					continue
				}
				d.Dot = fixed.Point26_6{X: x + fixed.I(dx), Y: baseline + fixed.I(dy)}
				d.DrawString(line)
			}
		}

		d.Src = image.NewUniform(textFillColor)
		d.Dot = fixed.Point26_6{X: x, Y: baseline}
		d.DrawString(line)

		baseline += m.Height
	}
}

// DrawTopText draws text at the top of the image, centred and auto-sized.
// Empty text is a no-op.
func (r *TextRenderer) DrawTopText(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	maxWidth, maxHeight, vPad := r.textZone()
	face, lines, size, err := r.fitText(text, maxWidth, maxHeight)
	if err != nil {
		return err
	}
	defer func() { _ = face.Close() }()

	// Anchor the top of the first line's ascender at the vertical padding.
	firstBaseline := fixed.I(vPad) + face.Metrics().Ascent
	r.drawOutlined(lines, face, size, firstBaseline)
	return nil
}

// DrawBottomText draws text at the bottom of the image, centred and auto-sized.
// Empty text is a no-op.
func (r *TextRenderer) DrawBottomText(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	maxWidth, maxHeight, vPad := r.textZone()
	face, lines, size, err := r.fitText(text, maxWidth, maxHeight)
	if err != nil {
		return err
	}
	defer func() { _ = face.Close() }()

	// Anchor the bottom of the last line's descender at height - padding.
	m := face.Metrics()
	lastBaseline := fixed.I(r.height-vPad) - m.Descent
	firstBaseline := lastBaseline - fixed.I(len(lines)-1).Mul(m.Height)
	r.drawOutlined(lines, face, size, firstBaseline)
	return nil
}
