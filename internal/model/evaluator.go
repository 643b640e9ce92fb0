package model

import "sort"

// Evaluator holds the fields shared by every evaluator kind.
type Evaluator struct {
	Header
	ValueType Handle
	// Arguments are the argument evaluators declared by this evaluator.
	Arguments []Handle
}

// Eval returns the shared evaluator fields. It is promoted to every
// evaluator kind.
func (e *Evaluator) Eval() *Evaluator { return e }

// EvaluatorObject is implemented by every evaluator kind.
type EvaluatorObject interface {
	Object
	Eval() *Evaluator
}

// HasArgument reports whether arg is declared directly on e.
func (e *Evaluator) HasArgument(arg Handle) bool {
	for _, a := range e.Arguments {
		if a == arg {
			return true
		}
	}
	return false
}

// BindMap maps argument evaluators to the evaluators that replace them,
// keeping insertion order.
type BindMap struct {
	keys []Handle
	vals map[Handle]Handle
}

// Set binds arg to source, replacing an earlier bind of arg.
func (m *BindMap) Set(arg, source Handle) {
	if m.vals == nil {
		m.vals = make(map[Handle]Handle)
	}
	if _, ok := m.vals[arg]; !ok {
		m.keys = append(m.keys, arg)
	}
	m.vals[arg] = source
}

// Get returns the source bound to arg.
func (m *BindMap) Get(arg Handle) (Handle, bool) {
	h, ok := m.vals[arg]
	return h, ok
}

// Len returns the number of binds.
func (m *BindMap) Len() int { return len(m.keys) }

// Keys returns the bound arguments in insertion order.
func (m *BindMap) Keys() []Handle {
	return append([]Handle(nil), m.keys...)
}

// Remove deletes the bind for arg.
func (m *BindMap) Remove(arg Handle) {
	if _, ok := m.vals[arg]; !ok {
		return
	}
	delete(m.vals, arg)
	for i, k := range m.keys {
		if k == arg {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// IndexMap maps integer keys (element or component numbers, index numbers)
// to evaluators.
type IndexMap map[int]Handle

// Keys returns the keys in ascending order.
func (m IndexMap) Keys() []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// ArgumentEvaluator is a free variable of its value type.
type ArgumentEvaluator struct {
	Evaluator
}

// ExternalEvaluator is computed outside the document.
type ExternalEvaluator struct {
	Evaluator
}

// ReferenceEvaluator evaluates Source with some of its arguments replaced.
type ReferenceEvaluator struct {
	Evaluator
	Source Handle
	Binds  BindMap
}

// Selector is the state shared by piecewise and aggregate evaluators.
// IndexEvaluator is the principal selector; IndexEvaluators holds further
// index evaluators by index number.
type Selector struct {
	IndexEvaluator  Handle
	Evaluators      IndexMap
	Default         Handle
	Binds           BindMap
	IndexEvaluators IndexMap
}

// PiecewiseEvaluator picks one evaluator per value of its index evaluator.
type PiecewiseEvaluator struct {
	Evaluator
	Selector
}

// AggregateEvaluator composes one evaluator per component into a vector.
type AggregateEvaluator struct {
	Evaluator
	Selector
}

// ParameterEvaluator looks its values up through a data description.
type ParameterEvaluator struct {
	Evaluator
	Description DataDescription
}

func newEvaluator(kind Kind, name string, loc Location, valueType Handle, virtual bool) Evaluator {
	return Evaluator{
		Header:    NewHeader(kind, name, loc, virtual),
		ValueType: valueType,
	}
}

func newSelector() Selector {
	return Selector{
		IndexEvaluator:  Invalid,
		Evaluators:      make(IndexMap),
		Default:         Invalid,
		IndexEvaluators: make(IndexMap),
	}
}

func NewArgumentEvaluator(name string, loc Location, valueType Handle, virtual bool) *ArgumentEvaluator {
	return &ArgumentEvaluator{Evaluator: newEvaluator(KindArgumentEvaluator, name, loc, valueType, virtual)}
}

func NewExternalEvaluator(name string, loc Location, valueType Handle) *ExternalEvaluator {
	return &ExternalEvaluator{Evaluator: newEvaluator(KindExternalEvaluator, name, loc, valueType, false)}
}

func NewReferenceEvaluator(name string, loc Location, source, valueType Handle) *ReferenceEvaluator {
	return &ReferenceEvaluator{
		Evaluator: newEvaluator(KindReferenceEvaluator, name, loc, valueType, false),
		Source:    source,
	}
}

func NewPiecewiseEvaluator(name string, loc Location, valueType Handle) *PiecewiseEvaluator {
	return &PiecewiseEvaluator{
		Evaluator: newEvaluator(KindPiecewiseEvaluator, name, loc, valueType, false),
		Selector:  newSelector(),
	}
}

func NewAggregateEvaluator(name string, loc Location, valueType Handle) *AggregateEvaluator {
	return &AggregateEvaluator{
		Evaluator: newEvaluator(KindAggregateEvaluator, name, loc, valueType, false),
		Selector:  newSelector(),
	}
}

func NewParameterEvaluator(name string, loc Location, valueType Handle) *ParameterEvaluator {
	return &ParameterEvaluator{
		Evaluator:   newEvaluator(KindParameterEvaluator, name, loc, valueType, false),
		Description: DataDescription{Kind: DescriptionUnknown, Source: Invalid, KeySource: Invalid},
	}
}
