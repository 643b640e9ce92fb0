package session

import (
	"sort"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// CreateEnsembleType creates an ensemble with no members.
func (s *Session) CreateEnsembleType(name string, isComponent bool) (model.Handle, error) {
	return s.register(model.NewEnsembleType(name, s.loc, isComponent, false))
}

// CreateContinuousType creates a scalar continuous type.
func (s *Session) CreateContinuousType(name string) (model.Handle, error) {
	return s.register(model.NewContinuousType(name, s.loc, false))
}

func (s *Session) unsetEnsemble(h model.Handle) (*model.EnsembleType, error) {
	ens, err := Get[*model.EnsembleType](s, h)
	if err != nil {
		return nil, err
	}
	if ens.Def.Kind != model.MembersUnknown {
		return nil, fmlerr.New(fmlerr.ErrAlreadyDefined, "members are already defined as %s", ens.Def.Kind).WithObject(ens.Name)
	}
	return ens, nil
}

// SetEnsembleMembersRange gives h the members min, min+stride, ... up to max.
func (s *Session) SetEnsembleMembersRange(h model.Handle, min, max, stride int) error {
	ens, err := s.unsetEnsemble(h)
	if err != nil {
		return err
	}
	if err := checkRange(min, max, stride); err != nil {
		return err.WithObject(ens.Name)
	}
	ens.Def = model.MembersDef{Kind: model.MembersRange, Min: min, Max: max, Stride: stride, Count: 0, Source: model.Invalid}
	ens.Members.AddRange(min, max, stride)
	ens.Def.Count = ens.Members.Len()
	ens.Loaded = true
	return nil
}

// MaxRangeMembers bounds the number of members a single range may expand to.
const MaxRangeMembers = 1 << 26

func checkRange(min, max, stride int) *fmlerr.Error {
	switch {
	case min < 0:
		return fmlerr.New(fmlerr.ErrMalformedDescription, "member range starts at %d, members are non-negative", min)
	case stride <= 0:
		return fmlerr.New(fmlerr.ErrMalformedDescription, "member stride %d is not positive", stride)
	case min > max:
		return fmlerr.New(fmlerr.ErrMalformedDescription, "member range %d..%d is empty", min, max)
	case (max-min)/stride >= MaxRangeMembers:
		return fmlerr.New(fmlerr.ErrMalformedDescription, "member range %d..%d step %d holds more than %d members", min, max, stride, MaxRangeMembers)
	}
	return nil
}

// SetEnsembleMembersList gives h exactly the listed members.
func (s *Session) SetEnsembleMembersList(h model.Handle, members []int) error {
	ens, err := s.unsetEnsemble(h)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "member list is empty").WithObject(ens.Name)
	}
	var m model.Members
	for _, v := range members {
		if v < 0 {
			return fmlerr.New(fmlerr.ErrMalformedDescription, "member %d is negative", v).WithObject(ens.Name)
		}
		m.Add(v)
	}
	ens.Def = model.MembersDef{Kind: model.MembersList, Count: m.Len(), Source: model.Invalid}
	ens.Members = m
	ens.Loaded = true
	return nil
}

// SetEnsembleMembersData declares that the members of h are stored in
// source: count single members, ranges or stride ranges depending on kind.
// The values are read by LoadEnsembleMembers.
func (s *Session) SetEnsembleMembersData(h model.Handle, kind model.MembersKind, count int, source model.Handle) error {
	ens, err := s.unsetEnsemble(h)
	if err != nil {
		return err
	}
	if !kind.IsData() {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "%s members are not read from data", kind).WithObject(ens.Name)
	}
	if count <= 0 {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "member count %d is not positive", count).WithObject(ens.Name)
	}
	if _, err := Get[*model.DataSource](s, source); err != nil {
		return err
	}
	ens.Def = model.MembersDef{Kind: kind, Count: count, Source: source}
	return nil
}

// CreateContinuousTypeComponents gives a continuous or ensemble type count
// components, named by a new component ensemble with members 1..count.
func (s *Session) CreateContinuousTypeComponents(h model.Handle, name string, count int) (model.Handle, error) {
	obj, err := s.reg.Get(h)
	if err != nil {
		return model.Invalid, err
	}
	var slot *model.Handle
	switch t := obj.(type) {
	case *model.ContinuousType:
		slot = &t.ComponentType
	case *model.EnsembleType:
		slot = &t.ComponentType
	default:
		return model.Invalid, fmlerr.New(fmlerr.ErrTypeMismatch, "%s cannot have components", obj.Head().Kind).WithObject(obj.Head().Name)
	}
	if slot.IsValid() {
		return model.Invalid, fmlerr.New(fmlerr.ErrAlreadyDefined, "components are already defined").WithObject(obj.Head().Name)
	}
	if count <= 0 {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "component count %d is not positive", count).WithObject(obj.Head().Name)
	}

	ens := model.NewEnsembleType(name, s.loc, true, false)
	ens.Def = model.MembersDef{Kind: model.MembersRange, Min: 1, Max: count, Stride: 1, Count: count, Source: model.Invalid}
	ens.Members.AddRange(1, count, 1)
	ens.Loaded = true
	ch, err := s.register(ens)
	if err != nil {
		return model.Invalid, err
	}
	*slot = ch
	return ch, nil
}

// ComponentCount returns the number of components of a type, 1 for scalar
// types.
func (s *Session) ComponentCount(h model.Handle) (int, error) {
	obj, err := s.reg.Get(h)
	if err != nil {
		return 0, err
	}
	var comp model.Handle
	switch t := obj.(type) {
	case *model.ContinuousType:
		comp = t.ComponentType
	case *model.EnsembleType:
		comp = t.ComponentType
	default:
		return 0, fmlerr.New(fmlerr.ErrTypeMismatch, "%s has no components", obj.Head().Kind).WithObject(obj.Head().Name)
	}
	if !comp.IsValid() {
		return 1, nil
	}
	ens, err := Get[*model.EnsembleType](s, comp)
	if err != nil {
		return 0, err
	}
	return ens.MemberCount(), nil
}

// CreateMeshType creates a mesh. Its chart and elements types are created
// separately and owned by it.
func (s *Session) CreateMeshType(name string) (model.Handle, error) {
	return s.register(model.NewMeshType(name, s.loc))
}

// CreateMeshElementsType creates the virtual elements ensemble of mesh.
// An empty name defaults to "<mesh>.elements".
func (s *Session) CreateMeshElementsType(mesh model.Handle, name string) (model.Handle, error) {
	m, err := Get[*model.MeshType](s, mesh)
	if err != nil {
		return model.Invalid, err
	}
	if m.ElementsType.IsValid() {
		return model.Invalid, fmlerr.New(fmlerr.ErrAlreadyDefined, "mesh already has an elements type").WithObject(m.Name)
	}
	if name == "" {
		name = m.Name + ".elements"
	}
	h, err := s.register(model.NewEnsembleType(name, s.loc, false, true))
	if err != nil {
		return model.Invalid, err
	}
	m.ElementsType = h
	return h, nil
}

// CreateMeshChartType creates the virtual chart type of mesh. An empty name
// defaults to "<mesh>.chart".
func (s *Session) CreateMeshChartType(mesh model.Handle, name string) (model.Handle, error) {
	m, err := Get[*model.MeshType](s, mesh)
	if err != nil {
		return model.Invalid, err
	}
	if m.ChartType.IsValid() {
		return model.Invalid, fmlerr.New(fmlerr.ErrAlreadyDefined, "mesh already has a chart type").WithObject(m.Name)
	}
	if name == "" {
		name = m.Name + ".chart"
	}
	h, err := s.register(model.NewContinuousType(name, s.loc, true))
	if err != nil {
		return model.Invalid, err
	}
	m.ChartType = h
	return h, nil
}

// MeshOwner returns the mesh owning a chart or elements type, or Invalid.
func (s *Session) MeshOwner(h model.Handle) model.Handle {
	owner := model.Invalid
	s.reg.Each(func(obj model.Object) bool {
		if m, ok := obj.(*model.MeshType); ok && (m.ChartType == h || m.ElementsType == h) {
			owner = m.Handle
			return false
		}
		return true
	})
	return owner
}

// SetMeshElementShape assigns a shape to one element of mesh.
func (s *Session) SetMeshElementShape(mesh model.Handle, element int, shape string) error {
	m, err := Get[*model.MeshType](s, mesh)
	if err != nil {
		return err
	}
	if !s.shapes[shape] {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "unknown shape %q", shape).WithObject(m.Name)
	}
	if m.ElementsType.IsValid() {
		ens, err := Get[*model.EnsembleType](s, m.ElementsType)
		if err != nil {
			return err
		}
		if ens.Loaded && !ens.Members.Has(element) {
			return fmlerr.New(fmlerr.ErrMalformedDescription, "element %d is not a member of %s", element, ens.Name).WithObject(m.Name)
		}
	}
	if element < 0 {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "element %d is negative", element).WithObject(m.Name)
	}
	m.Shapes[element] = shape
	return nil
}

// SetMeshDefaultShape sets the shape of elements without their own shape.
func (s *Session) SetMeshDefaultShape(mesh model.Handle, shape string) error {
	m, err := Get[*model.MeshType](s, mesh)
	if err != nil {
		return err
	}
	if !s.shapes[shape] {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "unknown shape %q", shape).WithObject(m.Name)
	}
	m.DefaultShape = shape
	return nil
}

// MeshElementShape returns the shape of element. With allowDefault the
// mesh default shape is returned for elements without their own.
func (s *Session) MeshElementShape(mesh model.Handle, element int, allowDefault bool) (string, error) {
	m, err := Get[*model.MeshType](s, mesh)
	if err != nil {
		return "", err
	}
	if shape, ok := m.Shapes[element]; ok {
		return shape, nil
	}
	if allowDefault && m.DefaultShape != "" {
		return m.DefaultShape, nil
	}
	return "", fmlerr.New(fmlerr.ErrNotFound, "element %d has no shape", element).WithObject(m.Name)
}

var builtinShapes = []string{
	"line",
	"triangle",
	"square",
	"tetrahedron",
	"cube",
	"wedge12",
	"wedge13",
	"wedge23",
}

func defaultShapes() map[string]bool {
	shapes := make(map[string]bool, 2*len(builtinShapes))
	for _, name := range builtinShapes {
		shapes[name] = true
		shapes["library.shape."+name] = true
	}
	return shapes
}

// RegisterShape adds a shape name to the table consulted by the mesh
// setters.
func (s *Session) RegisterShape(name string) error {
	if name == "" {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "shape name is empty")
	}
	s.shapes[name] = true
	return nil
}

// Shapes returns the known shape names in sorted order.
func (s *Session) Shapes() []string {
	out := make([]string, 0, len(s.shapes))
	for name := range s.shapes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
