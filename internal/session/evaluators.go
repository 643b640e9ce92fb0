package session

import (
	"sort"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

func (s *Session) valueType(h model.Handle) (model.Object, error) {
	obj, err := s.reg.Get(h)
	if err != nil {
		return nil, err
	}
	if !obj.Head().Kind.IsType() {
		return nil, fmlerr.New(fmlerr.ErrTypeMismatch, "value type must be a type, got %s", obj.Head().Kind).WithObject(obj.Head().Name)
	}
	return obj, nil
}

func (s *Session) evaluator(h model.Handle) (model.EvaluatorObject, error) {
	return Get[model.EvaluatorObject](s, h)
}

// CreateArgumentEvaluator creates a free variable of valueType.
func (s *Session) CreateArgumentEvaluator(name string, valueType model.Handle) (model.Handle, error) {
	if _, err := s.valueType(valueType); err != nil {
		return model.Invalid, err
	}
	return s.register(model.NewArgumentEvaluator(name, s.loc, valueType, false))
}

// CreateExternalEvaluator creates an evaluator computed outside the
// document.
func (s *Session) CreateExternalEvaluator(name string, valueType model.Handle) (model.Handle, error) {
	if _, err := s.valueType(valueType); err != nil {
		return model.Invalid, err
	}
	return s.register(model.NewExternalEvaluator(name, s.loc, valueType))
}

// AddArgument declares argument as a free variable of an argument or
// external evaluator. Declaring the same argument twice is a no-op.
func (s *Session) AddArgument(evaluator, argument model.Handle) error {
	obj, err := s.reg.Get(evaluator)
	if err != nil {
		return err
	}
	var e *model.Evaluator
	switch t := obj.(type) {
	case *model.ArgumentEvaluator:
		e = &t.Evaluator
	case *model.ExternalEvaluator:
		e = &t.Evaluator
	default:
		return fmlerr.New(fmlerr.ErrTypeMismatch, "%s does not declare arguments", obj.Head().Kind).WithObject(obj.Head().Name)
	}
	if _, err := Get[*model.ArgumentEvaluator](s, argument); err != nil {
		return err
	}
	if e.HasArgument(argument) {
		return nil
	}
	if err := s.deps.AddEdge(argument, evaluator); err != nil {
		return withName(err, e.Name)
	}
	e.Arguments = append(e.Arguments, argument)
	return nil
}

// CreateReferenceEvaluator creates an evaluator that evaluates source with
// binds applied. It takes the value type of source.
func (s *Session) CreateReferenceEvaluator(name string, source model.Handle) (model.Handle, error) {
	src, err := s.evaluator(source)
	if err != nil {
		return model.Invalid, err
	}
	cp := s.Checkpoint()
	h, err := s.register(model.NewReferenceEvaluator(name, s.loc, source, src.Eval().ValueType))
	if err != nil {
		return model.Invalid, err
	}
	if err := s.deps.AddEdge(source, h); err != nil {
		s.Rollback(cp)
		return model.Invalid, withName(err, name)
	}
	return h, nil
}

// CreatePiecewiseEvaluator creates an evaluator that selects a branch by
// the value of its index evaluator.
func (s *Session) CreatePiecewiseEvaluator(name string, valueType model.Handle) (model.Handle, error) {
	if _, err := s.valueType(valueType); err != nil {
		return model.Invalid, err
	}
	return s.register(model.NewPiecewiseEvaluator(name, s.loc, valueType))
}

// CreateAggregateEvaluator creates an evaluator that composes one evaluator
// per component of valueType.
func (s *Session) CreateAggregateEvaluator(name string, valueType model.Handle) (model.Handle, error) {
	if _, err := s.valueType(valueType); err != nil {
		return model.Invalid, err
	}
	return s.register(model.NewAggregateEvaluator(name, s.loc, valueType))
}

// CreateParameterEvaluator creates an evaluator backed by stored data. Its
// data description is set by SetParameterDataDescription.
func (s *Session) CreateParameterEvaluator(name string, valueType model.Handle) (model.Handle, error) {
	if _, err := s.valueType(valueType); err != nil {
		return model.Invalid, err
	}
	return s.register(model.NewParameterEvaluator(name, s.loc, valueType))
}

// binding returns the evaluator header and bind map of an evaluator that
// accepts binds.
func (s *Session) binding(h model.Handle) (*model.Evaluator, *model.BindMap, error) {
	obj, err := s.reg.Get(h)
	if err != nil {
		return nil, nil, err
	}
	switch t := obj.(type) {
	case *model.ReferenceEvaluator:
		return &t.Evaluator, &t.Binds, nil
	case *model.PiecewiseEvaluator:
		return &t.Evaluator, &t.Binds, nil
	case *model.AggregateEvaluator:
		return &t.Evaluator, &t.Binds, nil
	}
	return nil, nil, fmlerr.New(fmlerr.ErrTypeMismatch, "%s does not accept binds", obj.Head().Kind).WithObject(obj.Head().Name)
}

// SetBind replaces argument with source when evaluator is evaluated.
// Binding an argument again replaces the earlier source.
func (s *Session) SetBind(evaluator, argument, source model.Handle) error {
	e, binds, err := s.binding(evaluator)
	if err != nil {
		return err
	}
	arg, err := s.reg.Get(argument)
	if err != nil {
		return err
	}
	argEval, ok := arg.(*model.ArgumentEvaluator)
	if !ok {
		return fmlerr.New(fmlerr.ErrIncompatibleBind, "%s %q is not an argument evaluator", arg.Head().Kind, arg.Head().Name).WithObject(e.Name)
	}
	src, err := s.evaluator(source)
	if err != nil {
		return err
	}

	free := s.dependencyArguments(evaluator)
	if !free[argument] {
		return fmlerr.New(fmlerr.ErrIncompatibleBind, "argument %q is not used by the evaluator's dependencies", argEval.Name).WithObject(e.Name)
	}
	if src.Eval().ValueType != argEval.ValueType {
		return fmlerr.New(fmlerr.ErrIncompatibleBind, "source %q has a different value type than argument %q", src.Head().Name, argEval.Name).WithObject(e.Name)
	}

	old, had := binds.Get(argument)
	if err := s.link(source, evaluator, old, had); err != nil {
		return withName(err, e.Name)
	}
	binds.Set(argument, source)
	return nil
}

// link adds the dependency from -> to and, when replacing is set, drops the
// dependency it replaces. Nothing changes when the new edge is refused.
func (s *Session) link(from, to, replaced model.Handle, replacing bool) error {
	if err := s.deps.AddEdge(from, to); err != nil {
		return err
	}
	if replacing && replaced.IsValid() {
		s.deps.RemoveEdge(replaced, to)
	}
	return nil
}

func (s *Session) selector(h model.Handle) (*model.Evaluator, *model.Selector, model.Kind, error) {
	obj, err := s.reg.Get(h)
	if err != nil {
		return nil, nil, model.KindUnknown, err
	}
	switch t := obj.(type) {
	case *model.PiecewiseEvaluator:
		return &t.Evaluator, &t.Selector, t.Kind, nil
	case *model.AggregateEvaluator:
		return &t.Evaluator, &t.Selector, t.Kind, nil
	}
	return nil, nil, model.KindUnknown, fmlerr.New(fmlerr.ErrTypeMismatch, "%s has no evaluator map", obj.Head().Kind).WithObject(obj.Head().Name)
}

// SetEvaluator maps key to sub. For piecewise evaluators key is a value of
// the principal index evaluator; for aggregates it is a component number.
func (s *Session) SetEvaluator(evaluator model.Handle, key int, sub model.Handle) error {
	e, sel, kind, err := s.selector(evaluator)
	if err != nil {
		return err
	}
	subEval, err := s.evaluator(sub)
	if err != nil {
		return err
	}
	if key < 0 {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "key %d is negative", key).WithObject(e.Name)
	}

	if kind == model.KindPiecewiseEvaluator {
		if subEval.Eval().ValueType != e.ValueType {
			return fmlerr.New(fmlerr.ErrTypeMismatch, "evaluator %q has a different value type", subEval.Head().Name).WithObject(e.Name)
		}
		if ens := s.indexEnsemble(sel.IndexEvaluator); ens != nil && ens.Loaded && !ens.Members.Has(key) {
			return fmlerr.New(fmlerr.ErrMalformedDescription, "%d is not a member of %s", key, ens.Name).WithObject(e.Name)
		}
	} else {
		comp, err := s.componentEnsemble(e.ValueType)
		if err != nil {
			return withName(err, e.Name)
		}
		if !comp.Members.Has(key) {
			return fmlerr.New(fmlerr.ErrMalformedDescription, "%d is not a component of %s", key, comp.Name).WithObject(e.Name)
		}
	}

	old, had := sel.Evaluators[key]
	if err := s.link(sub, evaluator, old, had); err != nil {
		return withName(err, e.Name)
	}
	sel.Evaluators[key] = sub
	return nil
}

// SetDefaultEvaluator sets the evaluator used for keys without their own.
func (s *Session) SetDefaultEvaluator(evaluator, sub model.Handle) error {
	e, sel, kind, err := s.selector(evaluator)
	if err != nil {
		return err
	}
	subEval, err := s.evaluator(sub)
	if err != nil {
		return err
	}
	if kind == model.KindPiecewiseEvaluator && subEval.Eval().ValueType != e.ValueType {
		return fmlerr.New(fmlerr.ErrTypeMismatch, "evaluator %q has a different value type", subEval.Head().Name).WithObject(e.Name)
	}
	if err := s.link(sub, evaluator, sel.Default, true); err != nil {
		return withName(err, e.Name)
	}
	sel.Default = sub
	return nil
}

// SetIndexEvaluator assigns index evaluator number n (1-based).
//
// On piecewise and aggregate evaluators number 1 is the principal selector.
// It is set once; setting a different one fails with ErrAlreadyDefined.
// Other numbers add to the evaluator's index map. On parameter evaluators
// number n replaces the n-th index of the data description, counting sparse
// indexes first.
func (s *Session) SetIndexEvaluator(evaluator model.Handle, n int, index model.Handle) error {
	obj, err := s.reg.Get(evaluator)
	if err != nil {
		return err
	}
	if n < 1 {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "index number %d is not positive", n).WithObject(obj.Head().Name)
	}
	idx, err := s.evaluator(index)
	if err != nil {
		return err
	}

	switch t := obj.(type) {
	case *model.PiecewiseEvaluator:
		return s.setSelectorIndex(&t.Evaluator, &t.Selector, n, idx)
	case *model.AggregateEvaluator:
		return s.setSelectorIndex(&t.Evaluator, &t.Selector, n, idx)
	case *model.ParameterEvaluator:
		return s.replaceDescriptionIndex(t, n, idx)
	}
	return fmlerr.New(fmlerr.ErrTypeMismatch, "%s has no index evaluators", obj.Head().Kind).WithObject(obj.Head().Name)
}

// IndexEvaluator returns index evaluator number n of a piecewise or
// aggregate evaluator, or model.Invalid when it is not set.
func (s *Session) IndexEvaluator(evaluator model.Handle, n int) (model.Handle, error) {
	_, sel, _, err := s.selector(evaluator)
	if err != nil {
		return model.Invalid, err
	}
	if n == 1 {
		return sel.IndexEvaluator, nil
	}
	if h, ok := sel.IndexEvaluators[n]; ok {
		return h, nil
	}
	return model.Invalid, nil
}

func (s *Session) setSelectorIndex(e *model.Evaluator, sel *model.Selector, n int, idx model.EvaluatorObject) error {
	h := idx.Head().Handle
	if n == 1 {
		if s.indexEnsemble(h) == nil {
			return fmlerr.New(fmlerr.ErrTypeMismatch, "index evaluator %q is not ensemble valued", idx.Head().Name).WithObject(e.Name)
		}
		if sel.IndexEvaluator == h {
			return nil
		}
		if sel.IndexEvaluator.IsValid() {
			return fmlerr.New(fmlerr.ErrAlreadyDefined, "principal index evaluator is already set").WithObject(e.Name)
		}
		if err := s.deps.AddEdge(h, e.Handle); err != nil {
			return withName(err, e.Name)
		}
		sel.IndexEvaluator = h
		return nil
	}
	old, had := sel.IndexEvaluators[n]
	if err := s.link(h, e.Handle, old, had); err != nil {
		return withName(err, e.Name)
	}
	sel.IndexEvaluators[n] = h
	return nil
}

// indexEnsemble returns the ensemble an evaluator ranges over, or nil when
// h is not an ensemble valued evaluator.
func (s *Session) indexEnsemble(h model.Handle) *model.EnsembleType {
	if !h.IsValid() {
		return nil
	}
	e, err := s.evaluator(h)
	if err != nil {
		return nil
	}
	ens, err := Get[*model.EnsembleType](s, e.Eval().ValueType)
	if err != nil {
		return nil
	}
	return ens
}

func (s *Session) componentEnsemble(valueType model.Handle) (*model.EnsembleType, error) {
	obj, err := s.reg.Get(valueType)
	if err != nil {
		return nil, err
	}
	comp := model.Invalid
	switch t := obj.(type) {
	case *model.ContinuousType:
		comp = t.ComponentType
	case *model.EnsembleType:
		comp = t.ComponentType
	}
	if !comp.IsValid() {
		return nil, fmlerr.New(fmlerr.ErrMalformedDescription, "value type %q has no components", obj.Head().Name)
	}
	return Get[*model.EnsembleType](s, comp)
}

// Arguments returns the arguments h leaves free, in handle order: the
// argument evaluators reachable through its dependencies that no bind on
// the way replaces.
func (s *Session) Arguments(h model.Handle) ([]model.Handle, error) {
	if _, err := s.evaluator(h); err != nil {
		return nil, err
	}
	return sortedSet(s.freeArguments(h, make(map[model.Handle]map[model.Handle]bool))), nil
}

// dependencyArguments is the set of free arguments of everything h depends
// on, before h's own binds are applied. Binds of h may only target these.
func (s *Session) dependencyArguments(h model.Handle) map[model.Handle]bool {
	memo := make(map[model.Handle]map[model.Handle]bool)
	out := make(map[model.Handle]bool)
	for _, dep := range s.unboundDependencies(h) {
		for a := range s.freeArguments(dep, memo) {
			out[a] = true
		}
	}
	return out
}

// unboundDependencies lists what h evaluates before binds: its source,
// selectors, branches or data indexes, and declared arguments. Bind sources
// are excluded.
func (s *Session) unboundDependencies(h model.Handle) []model.Handle {
	obj, err := s.reg.Get(h)
	if err != nil {
		return nil
	}
	var deps []model.Handle
	add := func(hs ...model.Handle) {
		for _, d := range hs {
			if d.IsValid() {
				deps = append(deps, d)
			}
		}
	}
	addSelector := func(sel *model.Selector) {
		add(sel.IndexEvaluator, sel.Default)
		for _, k := range sel.Evaluators.Keys() {
			add(sel.Evaluators[k])
		}
		for _, k := range sel.IndexEvaluators.Keys() {
			add(sel.IndexEvaluators[k])
		}
	}
	switch t := obj.(type) {
	case *model.ArgumentEvaluator:
		add(t.Arguments...)
	case *model.ExternalEvaluator:
		add(t.Arguments...)
	case *model.ReferenceEvaluator:
		add(t.Source)
	case *model.PiecewiseEvaluator:
		addSelector(&t.Selector)
	case *model.AggregateEvaluator:
		addSelector(&t.Selector)
	case *model.ParameterEvaluator:
		d := &t.Description
		add(d.SparseIndexes...)
		add(d.DenseIndexes...)
		add(d.DenseOrders...)
	}
	return deps
}

func (s *Session) freeArguments(h model.Handle, memo map[model.Handle]map[model.Handle]bool) map[model.Handle]bool {
	if set, ok := memo[h]; ok {
		return set
	}
	// Stored before recursing so a corrupted graph cannot recurse forever.
	set := make(map[model.Handle]bool)
	memo[h] = set

	for _, dep := range s.unboundDependencies(h) {
		for a := range s.freeArguments(dep, memo) {
			set[a] = true
		}
	}
	obj, _ := s.reg.Get(h)
	switch t := obj.(type) {
	case *model.ArgumentEvaluator:
		set[h] = true
	case *model.ReferenceEvaluator:
		applyBinds(set, &t.Binds, s, memo)
	case *model.PiecewiseEvaluator:
		applyBinds(set, &t.Binds, s, memo)
	case *model.AggregateEvaluator:
		applyBinds(set, &t.Binds, s, memo)
	}
	return set
}

func applyBinds(set map[model.Handle]bool, binds *model.BindMap, s *Session, memo map[model.Handle]map[model.Handle]bool) {
	keys := binds.Keys()
	for _, arg := range keys {
		delete(set, arg)
	}
	for _, arg := range keys {
		src, _ := binds.Get(arg)
		for a := range s.freeArguments(src, memo) {
			set[a] = true
		}
	}
}

func sortedSet(set map[model.Handle]bool) []model.Handle {
	out := make([]model.Handle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// withName attaches an object name to a structured error that has none.
func withName(err error, name string) error {
	if fe, ok := err.(*fmlerr.Error); ok && fe.Object == "" {
		return fe.WithObject(name)
	}
	return err
}
