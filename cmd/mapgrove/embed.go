package main

import (
	"embed"
	"io/fs"

	"github.com/mapgrove/mapgrove/internal/server"
)

// Release builds stage the editor's dist output into ui/ before compiling;
// see the ui target in the Makefile. From-source builds carry a placeholder.
//
//go:embed all:ui
var editorAssets embed.FS

func init() {
	if sub, err := fs.Sub(editorAssets, "ui"); err == nil {
		server.SetUI(sub)
	}
}
