package config

import (
	"context"
	"path"

	"github.com/spf13/afero"
	"github.com/vk/fieldgo/internal/markup"
)

// Document is a parsed description document.
type Document struct {
	Root markup.Node
	// Href is the reference the document was requested by.
	Href string
	// Path is the file the document was read from; empty for documents that
	// do not live on the filesystem.
	Path string
}

// Dir returns the directory relative references inside the document are
// resolved against.
func (d *Document) Dir() string {
	if d.Path == "" {
		return ""
	}
	return path.Dir(d.Path)
}

// Loader is the interface for a document loader.
type Loader interface {
	// Load reads the document referenced by href. Relative references are
	// resolved against dir.
	Load(ctx context.Context, dir, href string) (*Document, error)
}

// Options controls how documents are read and resolved.
type Options struct {
	// Fs is the filesystem documents and file resources are read from.
	Fs afero.Fs
	// Root is the directory relative hrefs of the top level document are
	// resolved against.
	Root string
	// SkipValidation disables the structural schema check.
	SkipValidation bool
}

// FS returns the configured filesystem or the OS filesystem.
func (o Options) FS() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}
