// Package fieldgo models, persists and reloads field description documents.
//
// A Session holds one object graph. Documents are resolved into it with
// LoadFile or LoadString, built up through the Session methods, written back
// with WriteXML or WriteHCL, and companion arrays are read and written through
// Session.OpenArrayReader and Session.OpenArrayWriter.
package fieldgo

import (
	"context"
	"io"
	"path/filepath"

	"github.com/vk/fieldgo/internal/config"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/loader"
	"github.com/vk/fieldgo/internal/model"
	"github.com/vk/fieldgo/internal/resolver"
	"github.com/vk/fieldgo/internal/session"
	"github.com/vk/fieldgo/internal/writer"
)

type (
	Session        = session.Session
	SessionOptions = session.Options
	Options        = config.Options
	Handle         = model.Handle
	Location       = model.Location
	Kind           = model.Kind
	Object         = model.Object
	Error          = fmlerr.Error
	NodeError      = resolver.NodeError
)

const (
	Invalid         = model.Invalid
	LibraryLocation = model.LibraryLocation
	LocalLocation   = model.LocalLocation
)

var (
	ErrInvalidHandle        = fmlerr.ErrInvalidHandle
	ErrTypeMismatch         = fmlerr.ErrTypeMismatch
	ErrNotFound             = fmlerr.ErrNotFound
	ErrRecursiveDefinition  = fmlerr.ErrRecursiveDefinition
	ErrIncompatibleBind     = fmlerr.ErrIncompatibleBind
	ErrUnsupportedIO        = fmlerr.ErrUnsupportedIO
	ErrMalformedDescription = fmlerr.ErrMalformedDescription
	ErrSchemaValidation     = fmlerr.ErrSchemaValidation
	ErrParseFailed          = fmlerr.ErrParseFailed
	ErrAlreadyDefined       = fmlerr.ErrAlreadyDefined
)

// NewSession creates an empty session.
func NewSession(opts SessionOptions) *Session {
	return session.New(opts)
}

func newSession(opts Options) *Session {
	return session.New(session.Options{Fs: opts.FS(), Root: opts.Root})
}

// LoadFile resolves the document at path into a new session. When opts.Root
// is empty, the directory of path is used for relative references.
func LoadFile(ctx context.Context, path string, opts Options) (*Session, error) {
	if opts.Root == "" {
		opts.Root = filepath.Dir(path)
		path = "./" + filepath.Base(path)
	}
	sess := newSession(opts)
	if err := resolver.New(sess, loader.New(opts), opts).Load(ctx, path); err != nil {
		return nil, err
	}
	return sess, nil
}

// LoadString resolves an XML document held in memory into a new session.
// Imports and file resources are resolved against opts.Root.
func LoadString(ctx context.Context, doc string, opts Options) (*Session, error) {
	root, err := loader.Parse(ctx, []byte(doc), "inline.xml")
	if err != nil {
		return nil, err
	}
	sess := newSession(opts)
	err = resolver.New(sess, loader.New(opts), opts).Resolve(ctx, &config.Document{Root: root, Href: "inline.xml"})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Get returns the object for h as T, or ErrTypeMismatch.
func Get[T Object](s *Session, h Handle) (T, error) {
	return session.Get[T](s, h)
}

// WriteXML writes the local objects of s as an XML document that will be
// stored in dir.
func WriteXML(w io.Writer, s *Session, dir string) error {
	return writer.WriteXML(w, s, writer.Options{Dir: dir})
}

// WriteHCL writes the local objects of s as an HCL document that will be
// stored in dir.
func WriteHCL(w io.Writer, s *Session, dir string) error {
	return writer.WriteHCL(w, s, writer.Options{Dir: dir})
}
