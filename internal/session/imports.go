package session

import (
	"strings"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// LibraryHref is the href of the built-in library document. Objects it
// defines live in model.LibraryLocation.
const LibraryHref = "library.xml"

// IsLibraryHref reports whether href names the built-in library.
func IsLibraryHref(href string) bool {
	return href == LibraryHref || href == strings.TrimSuffix(LibraryHref, ".xml")
}

// ImportSource is a document imported into the session.
type ImportSource struct {
	Href   string
	Region string
	// Location is the scope the imported objects live in.
	Location model.Location
	// Importer is the location of the document that declared the import.
	Importer model.Location
}

// Import is one remote object made visible under a local name.
type Import struct {
	Source     int
	LocalName  string
	RemoteName string
	Handle     model.Handle
	// Location is the scope the local name was published in.
	Location model.Location
}

// AddImportSource registers an import of region from href, declared by the
// document being parsed in the current location. The same href and region
// share one location, so a document imported twice is parsed once: fresh
// reports whether this is the first import of it.
func (s *Session) AddImportSource(href, region string) (index int, loc model.Location, fresh bool) {
	for _, src := range s.sources {
		shared := src.Href == href && src.Region == region
		if IsLibraryHref(href) && src.Location == model.LibraryLocation {
			shared = true
		}
		if shared {
			s.sources = append(s.sources, ImportSource{Href: href, Region: region, Location: src.Location, Importer: s.loc})
			return len(s.sources) - 1, src.Location, false
		}
	}
	index = len(s.sources)
	loc = model.ImportLocation(index)
	if IsLibraryHref(href) {
		loc = model.LibraryLocation
	}
	s.sources = append(s.sources, ImportSource{Href: href, Region: region, Location: loc, Importer: s.loc})
	s.logger.Debug("Added import source.", "href", href, "region", region, "location", loc.String())
	return index, loc, true
}

// ImportSources returns the registered import sources by index.
func (s *Session) ImportSources() []ImportSource {
	return append([]ImportSource(nil), s.sources...)
}

// Imports returns every import entry in the order it was added.
func (s *Session) Imports() []Import {
	return append([]Import(nil), s.imports...)
}

// ImportType makes the type remoteName of import source index visible as
// localName in the current location.
func (s *Session) ImportType(index int, localName, remoteName string) (model.Handle, error) {
	return s.addImport(index, localName, remoteName, model.Kind.IsType, "type")
}

// ImportEvaluator makes the evaluator remoteName of import source index
// visible as localName in the current location.
func (s *Session) ImportEvaluator(index int, localName, remoteName string) (model.Handle, error) {
	return s.addImport(index, localName, remoteName, model.Kind.IsEvaluator, "evaluator")
}

func (s *Session) addImport(index int, localName, remoteName string, accept func(model.Kind) bool, what string) (model.Handle, error) {
	if index < 0 || index >= len(s.sources) {
		return model.Invalid, fmlerr.New(fmlerr.ErrInvalidHandle, "no import source %d", index).WithObject(localName)
	}
	if localName == "" || remoteName == "" {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "import needs a local and a remote name")
	}
	src := s.sources[index]
	h, err := s.reg.Lookup(src.Location, remoteName)
	if err != nil {
		return model.Invalid, fmlerr.New(fmlerr.ErrNotFound, "%s has no object named %q", src.Href, remoteName).WithObject(localName)
	}
	obj, err := s.reg.Get(h)
	if err != nil {
		return model.Invalid, err
	}
	if !accept(obj.Head().Kind) {
		return model.Invalid, fmlerr.New(fmlerr.ErrTypeMismatch, "%q is a %s, not a %s", remoteName, obj.Head().Kind, what).WithObject(localName)
	}
	if existing, err := s.reg.Lookup(s.loc, localName); err == nil && existing != h {
		return model.Invalid, fmlerr.New(fmlerr.ErrAlreadyDefined, "name is already used by handle %d", existing).WithObject(localName)
	}
	if err := s.reg.Alias(s.loc, localName, h); err != nil {
		return model.Invalid, err
	}
	s.imports = append(s.imports, Import{Source: index, LocalName: localName, RemoteName: remoteName, Handle: h, Location: s.loc})
	s.logger.Debug("Imported object.", "local_name", localName, "remote_name", remoteName, "handle", int(h))
	return h, nil
}
