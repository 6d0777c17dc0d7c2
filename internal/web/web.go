// SPDX-License-Identifier: MIT

// Package web embeds the HTML templates and static assets for the browser UI.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html assets/*
var content embed.FS

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(content, "templates/*.html")
}

// Assets returns the embedded static asset tree (css).
func Assets() (fs.FS, error) {
	return fs.Sub(content, "assets")
}
