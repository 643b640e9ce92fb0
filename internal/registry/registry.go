package registry

import (
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// Registry holds all objects and name scopes of a single session. It is not
// safe for concurrent use.
type Registry struct {
	objects []model.Object
	scopes  map[model.Location]map[string]model.Handle
	// journal records every published name, oldest first, for Rollback.
	journal []publication
}

type publication struct {
	loc  model.Location
	name string
}

// Checkpoint marks a point that Rollback can return to.
type Checkpoint struct {
	objects int
	journal int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		scopes: make(map[model.Location]map[string]model.Handle),
	}
}

// Add stores obj and assigns it the next handle. The object's name is not
// visible to Lookup until Publish is called.
func (r *Registry) Add(obj model.Object) model.Handle {
	h := model.Handle(len(r.objects))
	obj.Head().Handle = h
	r.objects = append(r.objects, obj)
	return h
}

// Publish makes the name of h visible in its location's scope. Anonymous
// objects are accepted and stay invisible.
func (r *Registry) Publish(h model.Handle) error {
	obj, err := r.Get(h)
	if err != nil {
		return err
	}
	head := obj.Head()
	if head.Name == "" {
		return nil
	}
	return r.bind(head.Location, head.Name, h)
}

// Alias publishes name in scope loc as another name for h.
func (r *Registry) Alias(loc model.Location, name string, h model.Handle) error {
	if name == "" {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "alias name is empty")
	}
	if _, err := r.Get(h); err != nil {
		return err
	}
	return r.bind(loc, name, h)
}

func (r *Registry) bind(loc model.Location, name string, h model.Handle) error {
	scope, ok := r.scopes[loc]
	if !ok {
		scope = make(map[string]model.Handle)
		r.scopes[loc] = scope
	}
	if existing, taken := scope[name]; taken {
		if existing == h {
			return nil
		}
		return fmlerr.New(fmlerr.ErrAlreadyDefined, "name is already used by handle %d in %s scope", existing, loc).WithObject(name)
	}
	scope[name] = h
	r.journal = append(r.journal, publication{loc: loc, name: name})
	return nil
}

// Get returns the object for h.
func (r *Registry) Get(h model.Handle) (model.Object, error) {
	if h < 0 || int(h) >= len(r.objects) || r.objects[h] == nil {
		return nil, fmlerr.New(fmlerr.ErrInvalidHandle, "no object with handle %d", h)
	}
	return r.objects[h], nil
}

// Lookup returns the handle published under name in scope loc.
func (r *Registry) Lookup(loc model.Location, name string) (model.Handle, error) {
	if h, ok := r.scopes[loc][name]; ok {
		return h, nil
	}
	return model.Invalid, fmlerr.New(fmlerr.ErrNotFound, "no object named %q in %s scope", name, loc).WithObject(name)
}

// Names returns the names published in scope loc, in publication order.
func (r *Registry) Names(loc model.Location) []string {
	var out []string
	for _, p := range r.journal {
		if p.loc == loc {
			out = append(out, p.name)
		}
	}
	return out
}

// Len returns the number of handles ever issued, including tombstones.
func (r *Registry) Len() int { return len(r.objects) }

// Each calls fn for every live object in handle order until fn returns false.
func (r *Registry) Each(fn func(obj model.Object) bool) {
	for _, obj := range r.objects {
		if obj == nil {
			continue
		}
		if !fn(obj) {
			return
		}
	}
}

// Checkpoint returns the current state for a later Rollback.
func (r *Registry) Checkpoint() Checkpoint {
	return Checkpoint{objects: len(r.objects), journal: len(r.journal)}
}

// Rollback unpublishes every name published after cp and tombstones every
// object added after it. Handles issued after cp stay consumed.
func (r *Registry) Rollback(cp Checkpoint) {
	for i := len(r.journal) - 1; i >= cp.journal; i-- {
		p := r.journal[i]
		delete(r.scopes[p.loc], p.name)
	}
	r.journal = r.journal[:cp.journal]
	for i := cp.objects; i < len(r.objects); i++ {
		r.objects[i] = nil
	}
}

// Typed returns the object for h as T, failing with ErrTypeMismatch when the
// stored object has a different type.
func Typed[T model.Object](r *Registry, h model.Handle) (T, error) {
	var zero T
	obj, err := r.Get(h)
	if err != nil {
		return zero, err
	}
	t, ok := obj.(T)
	if !ok {
		return zero, fmlerr.New(fmlerr.ErrTypeMismatch, "handle %d is a %s, not a %s", h, obj.Head().Kind, kindOf[T]()).WithObject(obj.Head().Name)
	}
	return t, nil
}

func kindOf[T model.Object]() string {
	var zero T
	switch any(zero).(type) {
	case *model.EnsembleType:
		return model.KindEnsembleType.String()
	case *model.ContinuousType:
		return model.KindContinuousType.String()
	case *model.MeshType:
		return model.KindMeshType.String()
	case *model.ArgumentEvaluator:
		return model.KindArgumentEvaluator.String()
	case *model.ExternalEvaluator:
		return model.KindExternalEvaluator.String()
	case *model.ReferenceEvaluator:
		return model.KindReferenceEvaluator.String()
	case *model.PiecewiseEvaluator:
		return model.KindPiecewiseEvaluator.String()
	case *model.AggregateEvaluator:
		return model.KindAggregateEvaluator.String()
	case *model.ParameterEvaluator:
		return model.KindParameterEvaluator.String()
	case *model.DataResource:
		return model.KindDataResource.String()
	case *model.DataSource:
		return model.KindDataSource.String()
	case model.EvaluatorObject:
		return "evaluator"
	default:
		return "object"
	}
}
