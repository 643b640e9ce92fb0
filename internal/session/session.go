package session

import (
	"log/slog"

	"github.com/spf13/afero"
	"github.com/vk/fieldgo/internal/arrayio"
	"github.com/vk/fieldgo/internal/ctxlog"
	"github.com/vk/fieldgo/internal/dag"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
	"github.com/vk/fieldgo/internal/registry"
)

// Options configures a Session. The zero value is usable: files are opened
// on the OS filesystem relative to the working directory and nothing is
// logged.
type Options struct {
	Fs     afero.Fs
	Root   string
	Logger *slog.Logger
}

// Session holds one object graph.
type Session struct {
	reg     *registry.Registry
	deps    *dag.Graph
	logger  *slog.Logger
	backend arrayio.Backend

	loc     model.Location
	region  string
	sources []ImportSource
	imports []Import
	shapes  map[string]bool
}

// New creates an empty session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = ctxlog.Discard()
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Session{
		reg:     registry.New(),
		deps:    dag.New(),
		logger:  logger,
		backend: arrayio.Backend{Fs: fs, Root: opts.Root},
		loc:     model.LocalLocation,
		shapes:  defaultShapes(),
	}
}

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Fs returns the filesystem used for file resources and documents.
func (s *Session) Fs() afero.Fs { return s.backend.Fs }

// Root returns the directory relative file paths are resolved against.
func (s *Session) Root() string { return s.backend.Root }

// Region returns the name of the local region.
func (s *Session) Region() string { return s.region }

// SetRegion names the local region.
func (s *Session) SetRegion(name string) { s.region = name }

// Location returns the location new objects are created in.
func (s *Session) Location() model.Location { return s.loc }

// Within runs fn with loc as the current location and restores the previous
// one afterwards.
func (s *Session) Within(loc model.Location, fn func() error) error {
	prev := s.loc
	s.loc = loc
	defer func() { s.loc = prev }()
	return fn()
}

// Object returns the object for h.
func (s *Session) Object(h model.Handle) (model.Object, error) {
	return s.reg.Get(h)
}

// Get returns the object for h as T, or ErrTypeMismatch.
func Get[T model.Object](s *Session, h model.Handle) (T, error) {
	return registry.Typed[T](s.reg, h)
}

// Lookup finds an object by name in the current location.
func (s *Session) Lookup(name string) (model.Handle, error) {
	return s.reg.Lookup(s.loc, name)
}

// LookupIn finds an object by name in the given location.
func (s *Session) LookupIn(loc model.Location, name string) (model.Handle, error) {
	return s.reg.Lookup(loc, name)
}

// Each calls fn for every live object in handle order until fn returns false.
func (s *Session) Each(fn func(obj model.Object) bool) {
	s.reg.Each(fn)
}

// Len returns the number of handles issued so far.
func (s *Session) Len() int { return s.reg.Len() }

// Dependencies returns the objects h directly depends on.
func (s *Session) Dependencies(h model.Handle) []model.Handle {
	deps, err := s.deps.Dependencies(h)
	if err != nil {
		return nil
	}
	return deps
}

// DependencyOrder returns every object that takes part in a dependency,
// each after the objects it depends on.
func (s *Session) DependencyOrder() []model.Handle {
	return s.deps.Order()
}

// Checkpoint captures the session for a later Rollback.
type Checkpoint struct {
	reg     registry.Checkpoint
	handles int
	sources int
	imports int
	region  string
}

// Checkpoint returns the current state.
func (s *Session) Checkpoint() Checkpoint {
	return Checkpoint{
		reg:     s.reg.Checkpoint(),
		handles: s.reg.Len(),
		sources: len(s.sources),
		imports: len(s.imports),
		region:  s.region,
	}
}

// Rollback discards every object, name, import and dependency created after
// cp. Discarded handles are not reused.
func (s *Session) Rollback(cp Checkpoint) {
	for h := cp.handles; h < s.reg.Len(); h++ {
		s.deps.RemoveNode(model.Handle(h))
	}
	s.reg.Rollback(cp.reg)
	s.sources = s.sources[:cp.sources]
	s.imports = s.imports[:cp.imports]
	s.region = cp.region
	s.logger.Debug("Session rolled back.", "handles_discarded", s.reg.Len()-cp.handles)
}

// register adds obj in the current location and publishes its name. The
// name is checked first so that a clash consumes no handle.
func (s *Session) register(obj model.Object) (model.Handle, error) {
	head := obj.Head()
	head.Location = s.loc
	if head.Name == "" && !head.Virtual {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "%s must have a name", head.Kind)
	}
	if head.Name != "" {
		if existing, err := s.reg.Lookup(s.loc, head.Name); err == nil {
			return model.Invalid, fmlerr.New(fmlerr.ErrAlreadyDefined, "name is already used by handle %d", existing).WithObject(head.Name)
		}
	}
	h := s.reg.Add(obj)
	if err := s.reg.Publish(h); err != nil {
		// Unreachable after the look-up above.
		return model.Invalid, err
	}
	s.logger.Debug("Created object.", "kind", head.Kind.String(), "name", head.Name, "handle", int(h), "location", s.loc.String())
	return h, nil
}
