// Package web embeds the HTML templates and static assets served by the
// intake server.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// Templates returns the template tree (layouts/, pages/, partials/).
func Templates() fs.FS {
	return mustSub("templates")
}

// Static returns the static asset tree served under /static/.
func Static() fs.FS {
	return mustSub("static")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}
