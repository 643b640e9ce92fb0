package session

import (
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// CreateInlineResource creates a resource whose data is kept in memory.
func (s *Session) CreateInlineResource(name, format string) (model.Handle, error) {
	if format == "" {
		format = model.PlainTextFormat
	}
	return s.register(model.NewInlineResource(name, s.loc, format))
}

// CreateFileResource creates a resource stored in the file at href,
// relative to the session root.
func (s *Session) CreateFileResource(name, format, href string) (model.Handle, error) {
	if href == "" {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "file resource needs an href").WithObject(name)
	}
	if format == "" {
		format = model.PlainTextFormat
	}
	return s.register(model.NewFileResource(name, s.loc, format, href))
}

// AppendInlineData appends text to an inline resource.
func (s *Session) AppendInlineData(resource model.Handle, text string) error {
	res, err := Get[*model.DataResource](s, resource)
	if err != nil {
		return err
	}
	if res.Location.Kind != model.LocationInline {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "resource is not inline").WithObject(res.Name)
	}
	res.Location.Inline.WriteString(text)
	return nil
}

// CreateArrayDataSource creates a source of the given rank inside resource.
// location is format specific; for plain text it is the first line.
func (s *Session) CreateArrayDataSource(name string, resource model.Handle, location string, rank int) (model.Handle, error) {
	if _, err := Get[*model.DataResource](s, resource); err != nil {
		return model.Invalid, err
	}
	if rank < 1 {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "rank %d is not positive", rank).WithObject(name)
	}
	return s.register(model.NewArraySource(name, s.loc, resource, location, rank))
}

// SetArrayDataSourceSizes declares the size of every axis of source.
func (s *Session) SetArrayDataSourceSizes(source model.Handle, sizes []int) error {
	src, err := Get[*model.DataSource](s, source)
	if err != nil {
		return err
	}
	if len(sizes) != src.Rank {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "%d sizes given for rank %d", len(sizes), src.Rank).WithObject(src.Name)
	}
	for i, n := range sizes {
		if n < 0 {
			return fmlerr.New(fmlerr.ErrMalformedDescription, "size %d on axis %d is negative", n, i).WithObject(src.Name)
		}
	}
	src.Sizes = append(src.Sizes[:0], sizes...)
	return nil
}

// CreateTextDataSource creates a rank 2 source over a window of lines of a
// text resource.
func (s *Session) CreateTextDataSource(name string, resource model.Handle, layout model.TextLayout) (model.Handle, error) {
	if _, err := Get[*model.DataResource](s, resource); err != nil {
		return model.Invalid, err
	}
	switch {
	case layout.FirstLine < 1:
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "first line %d is not positive", layout.FirstLine).WithObject(name)
	case layout.Count == 0 || layout.Length == 0:
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "window %dx%d is empty", layout.Count, layout.Length).WithObject(name)
	case layout.Count < -1 || layout.Length < -1:
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "window %dx%d is malformed, -1 means unbounded", layout.Count, layout.Length).WithObject(name)
	case layout.Head < 0 || layout.Tail < 0:
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "head and tail must not be negative").WithObject(name)
	}
	return s.register(model.NewTextSource(name, s.loc, resource, layout))
}

func (s *Session) parameter(h model.Handle) (*model.ParameterEvaluator, error) {
	return Get[*model.ParameterEvaluator](s, h)
}

func (s *Session) described(h model.Handle) (*model.ParameterEvaluator, error) {
	p, err := s.parameter(h)
	if err != nil {
		return nil, err
	}
	if p.Description.Kind == model.DescriptionUnknown {
		return nil, fmlerr.New(fmlerr.ErrMalformedDescription, "data description is not set").WithObject(p.Name)
	}
	return p, nil
}

// SetParameterDataDescription fixes the description kind of a parameter
// evaluator. It can be set only once.
func (s *Session) SetParameterDataDescription(evaluator model.Handle, kind model.DescriptionKind) error {
	p, err := s.parameter(evaluator)
	if err != nil {
		return err
	}
	if kind == model.DescriptionUnknown {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "description kind is unknown").WithObject(p.Name)
	}
	if p.Description.Kind != model.DescriptionUnknown {
		return fmlerr.New(fmlerr.ErrAlreadyDefined, "data description is already %s", p.Description.Kind).WithObject(p.Name)
	}
	p.Description.Kind = kind
	return nil
}

// SetDataSource sets the value source of a parameter's description.
func (s *Session) SetDataSource(evaluator, source model.Handle) error {
	p, err := s.described(evaluator)
	if err != nil {
		return err
	}
	if _, err := Get[*model.DataSource](s, source); err != nil {
		return err
	}
	p.Description.Source = source
	return nil
}

// SetKeyDataSource sets the key source of a DOK description.
func (s *Session) SetKeyDataSource(evaluator, source model.Handle) error {
	p, err := s.described(evaluator)
	if err != nil {
		return err
	}
	if !p.Description.AcceptsKeySource() {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "%s description has no key source", p.Description.Kind).WithObject(p.Name)
	}
	if _, err := Get[*model.DataSource](s, source); err != nil {
		return err
	}
	p.Description.KeySource = source
	return nil
}

// checkIndex returns the ensemble an index evaluator ranges over.
func (s *Session) checkIndex(p *model.ParameterEvaluator, index model.Handle) (*model.EnsembleType, error) {
	e, err := s.evaluator(index)
	if err != nil {
		return nil, err
	}
	ens := s.indexEnsemble(index)
	if ens == nil {
		return nil, fmlerr.New(fmlerr.ErrTypeMismatch, "index evaluator %q is not ensemble valued", e.Head().Name).WithObject(p.Name)
	}
	return ens, nil
}

// AddDenseIndexEvaluator appends a dense index to a parameter's
// description. order is Invalid or an evaluator with the index's ensemble
// as value type that gives the order of the dense axis.
func (s *Session) AddDenseIndexEvaluator(evaluator, index, order model.Handle) error {
	p, err := s.described(evaluator)
	if err != nil {
		return err
	}
	ens, err := s.checkIndex(p, index)
	if err != nil {
		return err
	}
	if order.IsValid() {
		o, err := s.evaluator(order)
		if err != nil {
			return err
		}
		if o.Eval().ValueType != ens.Handle {
			return fmlerr.New(fmlerr.ErrTypeMismatch, "order evaluator %q does not range over %s", o.Head().Name, ens.Name).WithObject(p.Name)
		}
	}

	if err := s.deps.AddEdge(index, evaluator); err != nil {
		return withName(err, p.Name)
	}
	if order.IsValid() {
		if err := s.deps.AddEdge(order, evaluator); err != nil {
			s.deps.RemoveEdge(index, evaluator)
			return withName(err, p.Name)
		}
	}
	d := &p.Description
	d.DenseIndexes = append(d.DenseIndexes, index)
	d.DenseOrders = append(d.DenseOrders, order)
	return nil
}

// AddSparseIndexEvaluator appends a sparse index to a semidense or DOK
// description.
func (s *Session) AddSparseIndexEvaluator(evaluator, index model.Handle) error {
	p, err := s.described(evaluator)
	if err != nil {
		return err
	}
	if !p.Description.AcceptsSparse() {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "%s description has no sparse indexes", p.Description.Kind).WithObject(p.Name)
	}
	if _, err := s.checkIndex(p, index); err != nil {
		return err
	}
	if err := s.deps.AddEdge(index, evaluator); err != nil {
		return withName(err, p.Name)
	}
	p.Description.SparseIndexes = append(p.Description.SparseIndexes, index)
	return nil
}

// replaceDescriptionIndex swaps the n-th index of a description, counting
// sparse indexes first.
func (s *Session) replaceDescriptionIndex(p *model.ParameterEvaluator, n int, idx model.EvaluatorObject) error {
	d := &p.Description
	if d.Kind == model.DescriptionUnknown {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "data description is not set").WithObject(p.Name)
	}
	if n > d.IndexCount() {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "index %d out of %d", n, d.IndexCount()).WithObject(p.Name)
	}
	h := idx.Head().Handle
	if _, err := s.checkIndex(p, h); err != nil {
		return err
	}
	var slot *model.Handle
	if n <= len(d.SparseIndexes) {
		slot = &d.SparseIndexes[n-1]
	} else {
		slot = &d.DenseIndexes[n-1-len(d.SparseIndexes)]
	}
	if err := s.link(h, p.Handle, *slot, true); err != nil {
		return withName(err, p.Name)
	}
	*slot = h
	return nil
}

// SetSwizzle sets the 1-based permutation applied to the dense axes of a
// semidense description.
func (s *Session) SetSwizzle(evaluator model.Handle, swizzle []int) error {
	p, err := s.described(evaluator)
	if err != nil {
		return err
	}
	d := &p.Description
	if d.Kind != model.DescriptionSemidense {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "%s description has no swizzle", d.Kind).WithObject(p.Name)
	}
	if len(swizzle) != len(d.DenseIndexes) {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "swizzle has %d entries for %d dense indexes", len(swizzle), len(d.DenseIndexes)).WithObject(p.Name)
	}
	seen := make([]bool, len(swizzle)+1)
	for _, v := range swizzle {
		if v < 1 || v > len(swizzle) || seen[v] {
			return fmlerr.New(fmlerr.ErrMalformedDescription, "swizzle %v is not a permutation", swizzle).WithObject(p.Name)
		}
		seen[v] = true
	}
	d.Swizzle = append([]int(nil), swizzle...)
	return nil
}
