package properties

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resolver opens named configuration resources.
type Resolver interface {
	Open(name string) (io.ReadCloser, error)
}

// DirResolver resolves names against the filesystem. Relative names are
// joined to Root; absolute names are used as given.
type DirResolver struct {
	Root string
}

// Open opens the named file.
func (r DirResolver) Open(name string) (io.ReadCloser, error) {
	if name == "" {
		return nil, fmt.Errorf("empty resource name: %w", fs.ErrNotExist)
	}
	p := filepath.FromSlash(name)
	if !filepath.IsAbs(p) && r.Root != "" {
		p = filepath.Join(r.Root, p)
	}
	return os.Open(p)
}

// FSResolver resolves names inside an fs.FS such as an embed.FS. A leading
// slash is stripped, so "/sec.properties" and "sec.properties" name the same
// resource.
type FSResolver struct {
	FS fs.FS
}

// Open opens the named resource.
func (r FSResolver) Open(name string) (io.ReadCloser, error) {
	if r.FS == nil {
		return nil, fmt.Errorf("no filesystem configured: %w", fs.ErrNotExist)
	}
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if clean == "" || !fs.ValidPath(clean) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	return r.FS.Open(clean)
}

// SchemeResolver dispatches on a "scheme:" prefix. Names without a registered
// scheme go to Default, which keeps Windows drive letters and plain paths
// working.
type SchemeResolver struct {
	Default Resolver
	Schemes map[string]Resolver
}

// Open opens the named resource through the resolver its scheme selects.
func (r SchemeResolver) Open(name string) (io.ReadCloser, error) {
	if scheme, rest, ok := strings.Cut(name, ":"); ok {
		if inner, found := r.Schemes[scheme]; found {
			return inner.Open(rest)
		}
	}
	if r.Default == nil {
		return nil, fmt.Errorf("no resolver for %q: %w", name, fs.ErrNotExist)
	}
	return r.Default.Open(name)
}
