package static

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	"github.com/klauspost/compress/gzhttp"
)

//go:embed assets
var assets embed.FS

// Embedded returns the built-in client page and its assets.
func Embedded() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}
	return sub
}

// Source reports which file tree Handler serves.
type Source string

const (
	SourceDir      Source = "dir"
	SourceEmbedded Source = "embedded"
)

// Resolve picks dir when it is an existing directory and the embedded
// client otherwise.
func Resolve(dir string) (fs.FS, Source) {
	if dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return os.DirFS(dir), SourceDir
		}
	}
	return Embedded(), SourceEmbedded
}

// Handler serves files from fsys with gzip compression for clients that
// accept it.
func Handler(fsys fs.FS) http.Handler {
	return gzhttp.GzipHandler(http.FileServer(http.FS(fsys)))
}
