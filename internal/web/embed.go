package web

import (
	"embed"
	"io/fs"
	"net/http"
)

var (
	//go:embed static/*
	embeddedStaticFiles embed.FS

	//go:embed templates/*
	embeddedTemplates embed.FS
)

// subFS serves dir of an embedded tree as its root.
func subFS(tree embed.FS, dir string) http.FileSystem {
	sub, err := fs.Sub(tree, dir)
	if err != nil {
		// dir is a compile time constant matching a go:embed pattern.
		panic(err)
	}

	return http.FS(sub)
}
