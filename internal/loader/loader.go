// Package loader reads description documents from a filesystem, or from
// the built-in library, and hands them to the resolver as markup trees.
package loader

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/vk/fieldgo/internal/config"
	"github.com/vk/fieldgo/internal/ctxlog"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/hcl"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/vk/fieldgo/internal/session"
	"github.com/vk/fieldgo/internal/xmldoc"
)

//go:embed library.xml
var library []byte

// Library returns the source of the built-in library document.
func Library() []byte {
	return bytes.Clone(library)
}

// FileLoader loads documents from an afero filesystem. It implements
// config.Loader.
type FileLoader struct {
	fs   afero.Fs
	root string
}

var _ config.Loader = (*FileLoader)(nil)

// New creates a loader for the given options.
func New(opts config.Options) *FileLoader {
	return &FileLoader{fs: opts.FS(), root: opts.Root}
}

// Resolve returns the file path href refers to when it appears in a
// document located in dir.
func (l *FileLoader) Resolve(dir, href string) string {
	href = strings.TrimPrefix(href, "file://")
	if filepath.IsAbs(href) {
		return filepath.Clean(href)
	}
	if dir == "" {
		dir = l.root
	}
	return filepath.Join(dir, href)
}

// Load implements config.Loader.
func (l *FileLoader) Load(ctx context.Context, dir, href string) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)

	if session.IsLibraryHref(href) {
		root, err := xmldoc.Parse(bytes.NewReader(library), session.LibraryHref)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded built-in library.", "href", href)
		return &config.Document{Root: root, Href: href}, nil
	}

	p := l.Resolve(dir, href)
	logger.Debug("Loading document.", "href", href, "path", p)
	src, err := afero.ReadFile(l.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmlerr.New(fmlerr.ErrNotFound, "document %s does not exist", p)
		}
		return nil, fmlerr.New(fmlerr.ErrParseFailed, "failed to read %s: %v", p, err)
	}

	root, err := Parse(ctx, src, p)
	if err != nil {
		return nil, err
	}
	logger.Debug("Successfully loaded document.", "path", p)
	return &config.Document{Root: root, Href: href, Path: filepath.ToSlash(p)}, nil
}

// Parse picks a front-end by file extension: .hcl files are read as HCL,
// everything else as XML.
func Parse(ctx context.Context, src []byte, name string) (markup.Node, error) {
	if strings.EqualFold(path.Ext(name), ".hcl") {
		return hcl.Parse(ctx, src, name)
	}
	return xmldoc.Parse(bytes.NewReader(src), name)
}
