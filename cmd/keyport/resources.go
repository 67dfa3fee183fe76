package main

import (
	"embed"
	"io/fs"
)

//go:embed resources/*.properties
var embeddedResources embed.FS

// resourcesFS returns the embedded configuration rooted at resources/.
func resourcesFS() fs.FS {
	sub, err := fs.Sub(embeddedResources, "resources")
	if err != nil {
		panic(err)
	}
	return sub
}
