// SPDX-License-Identifier: MIT

package meme

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// formatExt maps file extensions to output formats. Anything else is rejected.
var formatExt = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
}

// FormatForFile resolves the output format from a file name.
func FormatForFile(name string) (Format, bool) {
	f, ok := formatExt[strings.ToLower(filepath.Ext(name))]
	return f, ok
}

// Decode reads a png or jpeg image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Encode writes img in the given format. JPEG uses the default quality.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(w, img, nil); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// ResizeToWidth scales img to the given width, preserving aspect ratio, with
// a Catmull-Rom kernel for quality comparable to Lanczos resampling.
func ResizeToWidth(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, 0))
	}
	height := int(float64(b.Dy()) * float64(width) / float64(b.Dx()))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// Render produces a captioned meme from template bytes: resize to baseWidth,
// draw top/bottom captions, encode in the template's own format.
func Render(template []byte, name, topText, bottomText string, baseWidth int, fnt *Font) ([]byte, error) {
	format, ok := FormatForFile(name)
	if !ok {
		return nil, fmt.Errorf("unsupported template extension %q", filepath.Ext(name))
	}

	src, err := Decode(bytes.NewReader(template))
	if err != nil {
		return nil, err
	}

	dst := ResizeToWidth(src, baseWidth)
	r := NewTextRenderer(dst, fnt)
	if err := r.DrawTopText(topText); err != nil {
		return nil, fmt.Errorf("draw top text: %w", err)
	}
	if err := r.DrawBottomText(bottomText); err != nil {
		return nil, fmt.Errorf("draw bottom text: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, dst, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
