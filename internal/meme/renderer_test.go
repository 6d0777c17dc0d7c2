// SPDX-License-Identifier: MIT

package meme

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

func testFont(t *testing.T) *Font {
	t.Helper()
	fnt, err := ParseFont(goregular.TTF)
	require.NoError(t, err)
	return fnt
}

func testFace(t *testing.T, fnt *Font, size int) font.Face {
	t.Helper()
	face, err := fnt.face(size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = face.Close() })
	return face
}

func TestParseFont_Invalid(t *testing.T) {
	_, err := ParseFont([]byte("not a font"))
	require.Error(t, err)
}

func TestWrapText(t *testing.T) {
	fnt := testFont(t)
	face := testFace(t, fnt, 16)

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, wrapText("", face, 200))
		assert.Nil(t, wrapText("   ", face, 200))
	})

	t.Run("single short word", func(t *testing.T) {
		assert.Equal(t, []string{"hi"}, wrapText("hi", face, 200))
	})

	t.Run("wraps long text", func(t *testing.T) {
		text := "when the build is green but you know it should not be"
		maxWidth := 120

		lines := wrapText(text, face, maxWidth)
		require.Greater(t, len(lines), 1)

		for _, line := range lines {
			assert.LessOrEqual(t, font.MeasureString(face, line).Ceil(), maxWidth,
				"line %q exceeds max width", line)
		}
	})

	t.Run("oversized word stays on its own line", func(t *testing.T) {
		lines := wrapText("short incomprehensibilities short", face, 40)
		require.NotEmpty(t, lines)
		assert.Contains(t, lines, "incomprehensibilities")
	})
}

func TestBlockHeight(t *testing.T) {
	fnt := testFont(t)
	face := testFace(t, fnt, 20)

	assert.Equal(t, 0, blockHeight(face, 0))

	one := blockHeight(face, 1)
	three := blockHeight(face, 3)
	assert.Greater(t, one, 0)
	assert.Greater(t, three, one)
}

func TestFitText_ShrinksToFit(t *testing.T) {
	fnt := testFont(t)
	dst := image.NewRGBA(image.Rect(0, 0, 300, 200))
	r := NewTextRenderer(dst, fnt)

	maxWidth, maxHeight, _ := r.textZone()

	face, lines, size, err := r.fitText("a caption that needs wrapping to fit inside the zone", maxWidth, maxHeight)
	require.NoError(t, err)
	defer func() { _ = face.Close() }()

	require.NotEmpty(t, lines)
	assert.GreaterOrEqual(t, size, minFontSize)
	assert.LessOrEqual(t, blockHeight(face, len(lines)), maxHeight)
	for _, line := range lines {
		assert.LessOrEqual(t, font.MeasureString(face, line).Ceil(), maxWidth)
	}
}

func TestFitText_NeverGoesBelowMinimum(t *testing.T) {
	fnt := testFont(t)
	// A tiny image forces the walk all the way down.
	dst := image.NewRGBA(image.Rect(0, 0, 60, 40))
	r := NewTextRenderer(dst, fnt)

	face, lines, size, err := r.fitText("an unreasonably long caption for such a small image", 50, 10)
	require.NoError(t, err)
	defer func() { _ = face.Close() }()

	assert.Equal(t, minFontSize, size)
	assert.NotEmpty(t, lines)
}

func countNonBlack(img *image.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != 0 || g != 0 || bl != 0 {
				n++
			}
		}
	}
	return n
}

func TestDrawTopAndBottomText(t *testing.T) {
	fnt := testFont(t)
	dst := image.NewRGBA(image.Rect(0, 0, 300, 200))
	// Black canvas so any caption ink is visible.
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			dst.Set(x, y, color.Black)
		}
	}

	r := NewTextRenderer(dst, fnt)
	require.NoError(t, r.DrawTopText("TOP TEXT"))
	require.NoError(t, r.DrawBottomText("BOTTOM TEXT"))

	assert.Greater(t, countNonBlack(dst), 0, "captions left no visible ink")

	// Top caption ink lands in the upper zone, bottom in the lower zone.
	topZone := dst.SubImage(image.Rect(0, 0, 300, 100)).(*image.RGBA)
	bottomZone := dst.SubImage(image.Rect(0, 100, 300, 200)).(*image.RGBA)
	assert.Greater(t, countNonBlack(topZone), 0)
	assert.Greater(t, countNonBlack(bottomZone), 0)
}

func TestDrawText_EmptyIsNoop(t *testing.T) {
	fnt := testFont(t)
	dst := image.NewRGBA(image.Rect(0, 0, 300, 200))

	r := NewTextRenderer(dst, fnt)
	require.NoError(t, r.DrawTopText(""))
	require.NoError(t, r.DrawBottomText("  "))

	assert.Equal(t, 0, countNonBlack(dst))
}
