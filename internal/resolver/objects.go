package resolver

import (
	"path/filepath"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/vk/fieldgo/internal/model"
)

var objectTags = map[string]bool{
	"TextFileResource":   true,
	"TextInlineResource": true,
	"ArrayDataResource":  true,
	"ContinuousType":     true,
	"EnsembleType":       true,
	"MeshType":           true,
	"ArgumentEvaluator":  true,
	"ExternalEvaluator":  true,
	"ReferenceEvaluator": true,
	"PiecewiseEvaluator": true,
	"AggregateEvaluator": true,
	"ParameterEvaluator": true,
}

// definedNames returns the names of the objects a node creates besides
// itself.
func definedNames(n markup.Node, name string) []string {
	var out []string
	switch n.Tag() {
	case "ContinuousType":
		if c := markup.Child(n, "Components"); c != nil {
			out = append(out, markup.AttrOr(c, "name", ""))
		}
	case "MeshType":
		if el := markup.Child(n, "Elements"); el != nil {
			out = append(out, markup.AttrOr(el, "name", name+".elements"))
		}
		if ch := markup.Child(n, "Chart"); ch != nil {
			out = append(out, markup.AttrOr(ch, "name", name+".chart"))
			if c := markup.Child(ch, "Components"); c != nil {
				out = append(out, markup.AttrOr(c, "name", ""))
			}
		}
	case "TextFileResource", "TextInlineResource", "ArrayDataResource":
		for _, c := range n.Children() {
			if c.Tag() == "TextDataSource" || c.Tag() == "ArrayDataSource" {
				out = append(out, markup.AttrOr(c, "name", ""))
			}
		}
	}
	return out
}

func (d *docResolver) construct(n markup.Node) (model.Handle, error) {
	name := markup.AttrOr(n, "name", "")
	switch n.Tag() {
	case "TextFileResource":
		return d.textFileResource(n, name)
	case "TextInlineResource":
		return d.textInlineResource(n, name)
	case "ArrayDataResource":
		return d.arrayDataResource(n, name)
	case "ContinuousType":
		return d.continuousType(n, name)
	case "EnsembleType":
		return d.ensembleType(n, name)
	case "MeshType":
		return d.meshType(n, name)
	case "ArgumentEvaluator":
		return d.argumentEvaluator(n, name, d.sess().CreateArgumentEvaluator)
	case "ExternalEvaluator":
		return d.argumentEvaluator(n, name, d.sess().CreateExternalEvaluator)
	case "ReferenceEvaluator":
		return d.referenceEvaluator(n, name)
	case "PiecewiseEvaluator":
		return d.piecewiseEvaluator(n, name)
	case "AggregateEvaluator":
		return d.aggregateEvaluator(n, name)
	case "ParameterEvaluator":
		return d.parameterEvaluator(n, name)
	}
	return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "unknown element %s", n.Tag())
}

// resourcePath makes href usable from the session root when it appears in
// a document stored elsewhere.
func (d *docResolver) resourcePath(href string) string {
	dir := d.doc.Dir()
	if dir == "" || filepath.IsAbs(href) {
		return href
	}
	p := filepath.Join(dir, href)
	if root := d.r.opts.Root; root != "" {
		if rel, err := filepath.Rel(root, p); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return p
}

// Resources.

func (d *docResolver) textFileResource(n markup.Node, name string) (model.Handle, error) {
	h, err := d.sess().CreateFileResource(name, model.PlainTextFormat, d.resourcePath(markup.AttrOr(n, "href", "")))
	if err != nil {
		return model.Invalid, err
	}
	return h, d.sources(n, h)
}

func (d *docResolver) textInlineResource(n markup.Node, name string) (model.Handle, error) {
	h, err := d.sess().CreateInlineResource(name, model.PlainTextFormat)
	if err != nil {
		return model.Invalid, err
	}
	if s := markup.Child(n, "TextString"); s != nil {
		if err := d.sess().AppendInlineData(h, s.Text()); err != nil {
			return model.Invalid, at(s, err)
		}
	}
	return h, d.sources(n, h)
}

// sources creates the data sources declared inside a resource element.
func (d *docResolver) sources(n markup.Node, resource model.Handle) error {
	for _, c := range n.Children() {
		var err error
		switch c.Tag() {
		case "TextDataSource":
			err = d.textSource(c, resource)
		case "ArrayDataSource":
			err = d.arrayDataSource(c, resource)
		default:
			continue
		}
		if err != nil {
			return at(c, err)
		}
	}
	return nil
}

func (d *docResolver) textSource(c markup.Node, resource model.Handle) error {
	var layout model.TextLayout
	var err error
	for _, f := range []struct {
		attr string
		dst  *int
		def  int
	}{
		{"firstLine", &layout.FirstLine, 1},
		{"count", &layout.Count, -1},
		{"length", &layout.Length, -1},
		{"head", &layout.Head, 0},
		{"tail", &layout.Tail, 0},
	} {
		if *f.dst, err = intAttr(c, f.attr, f.def); err != nil {
			return err
		}
	}
	_, err = d.sess().CreateTextDataSource(markup.AttrOr(c, "name", ""), resource, layout)
	return err
}

func (d *docResolver) arrayDataResource(n markup.Node, name string) (model.Handle, error) {
	format := markup.AttrOr(n, "format", model.PlainTextFormat)
	h, err := d.sess().CreateFileResource(name, format, d.resourcePath(markup.AttrOr(n, "href", "")))
	if err != nil {
		return model.Invalid, err
	}
	return h, d.sources(n, h)
}

func (d *docResolver) arrayDataSource(n markup.Node, resource model.Handle) error {
	rank, err := requiredInt(n, "rank")
	if err != nil {
		return err
	}
	src, err := d.sess().CreateArrayDataSource(markup.AttrOr(n, "name", ""), resource, markup.AttrOr(n, "location", ""), rank)
	if err != nil {
		return err
	}
	if sz := markup.Child(n, "RawArraySize"); sz != nil {
		sizes, err := intList(sz)
		if err != nil {
			return err
		}
		return d.sess().SetArrayDataSourceSizes(src, sizes)
	}
	return nil
}

// Types.

func (d *docResolver) continuousType(n markup.Node, name string) (model.Handle, error) {
	h, err := d.sess().CreateContinuousType(name)
	if err != nil {
		return model.Invalid, err
	}
	return h, d.components(n, h)
}

func (d *docResolver) components(n markup.Node, h model.Handle) error {
	c := markup.Child(n, "Components")
	if c == nil {
		return nil
	}
	count, err := requiredInt(c, "count")
	if err != nil {
		return at(c, err)
	}
	_, err = d.sess().CreateContinuousTypeComponents(h, markup.AttrOr(c, "name", ""), count)
	return at(c, err)
}

func (d *docResolver) ensembleType(n markup.Node, name string) (model.Handle, error) {
	isComponent, err := boolAttr(n, "isComponentEnsemble")
	if err != nil {
		return model.Invalid, err
	}
	h, err := d.sess().CreateEnsembleType(name, isComponent)
	if err != nil {
		return model.Invalid, err
	}
	m := markup.Child(n, "Members")
	if m == nil {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "ensemble type has no members").WithObject(name)
	}
	if err := d.members(m, h); err != nil {
		return model.Invalid, err
	}
	return h, nil
}

var memberDataKinds = map[string]model.MembersKind{
	"MemberListData":        model.MembersListData,
	"MemberRangeData":       model.MembersRangeData,
	"MemberStrideRangeData": model.MembersStrideRangeData,
}

func (d *docResolver) members(m markup.Node, h model.Handle) error {
	kids := m.Children()
	if len(kids) != 1 {
		return at(m, fmlerr.New(fmlerr.ErrMalformedDescription, "Members needs exactly one member definition, found %d", len(kids)))
	}
	spec := kids[0]
	switch spec.Tag() {
	case "MemberRange":
		lo, err := requiredInt(spec, "min")
		if err != nil {
			return at(spec, err)
		}
		hi, err := requiredInt(spec, "max")
		if err != nil {
			return at(spec, err)
		}
		stride, err := intAttr(spec, "stride", 1)
		if err != nil {
			return at(spec, err)
		}
		return at(spec, d.sess().SetEnsembleMembersRange(h, lo, hi, stride))
	case "MemberList":
		list, err := intList(spec)
		if err != nil {
			return at(spec, err)
		}
		return at(spec, d.sess().SetEnsembleMembersList(h, list))
	}

	kind, ok := memberDataKinds[spec.Tag()]
	if !ok {
		return at(spec, fmlerr.New(fmlerr.ErrMalformedDescription, "unknown member definition %s", spec.Tag()))
	}
	src, err := d.ref(spec, "data")
	if err != nil {
		return at(spec, err)
	}
	count, err := requiredInt(spec, "count")
	if err != nil {
		return at(spec, err)
	}
	return at(spec, d.sess().SetEnsembleMembersData(h, kind, count, src))
}

func (d *docResolver) meshType(n markup.Node, name string) (model.Handle, error) {
	h, err := d.sess().CreateMeshType(name)
	if err != nil {
		return model.Invalid, err
	}

	if el := markup.Child(n, "Elements"); el != nil {
		elements, err := d.sess().CreateMeshElementsType(h, markup.AttrOr(el, "name", ""))
		if err != nil {
			return model.Invalid, at(el, err)
		}
		if m := markup.Child(el, "Members"); m != nil {
			if err := d.members(m, elements); err != nil {
				return model.Invalid, err
			}
		}
	}
	if ch := markup.Child(n, "Chart"); ch != nil {
		chart, err := d.sess().CreateMeshChartType(h, markup.AttrOr(ch, "name", ""))
		if err != nil {
			return model.Invalid, at(ch, err)
		}
		if err := d.components(ch, chart); err != nil {
			return model.Invalid, err
		}
	}
	if sh := markup.Child(n, "Shapes"); sh != nil {
		if def, ok := sh.Attr("default"); ok {
			if err := d.sess().SetMeshDefaultShape(h, def); err != nil {
				return model.Invalid, at(sh, err)
			}
		}
		for _, s := range markup.ChildrenByTag(sh, "Shape") {
			key, err := requiredInt(s, "key")
			if err != nil {
				return model.Invalid, at(s, err)
			}
			if err := d.sess().SetMeshElementShape(h, key, markup.AttrOr(s, "value", "")); err != nil {
				return model.Invalid, at(s, err)
			}
		}
	}
	return h, nil
}

// Evaluators.

type createFunc func(name string, valueType model.Handle) (model.Handle, error)

func (d *docResolver) argumentEvaluator(n markup.Node, name string, create createFunc) (model.Handle, error) {
	vt, err := d.ref(n, "valueType")
	if err != nil {
		return model.Invalid, err
	}
	h, err := create(name, vt)
	if err != nil {
		return model.Invalid, err
	}
	if args := markup.Child(n, "Arguments"); args != nil {
		for _, a := range markup.ChildrenByTag(args, "Argument") {
			arg, err := d.ref(a, "name")
			if err != nil {
				return model.Invalid, at(a, err)
			}
			if err := d.sess().AddArgument(h, arg); err != nil {
				return model.Invalid, at(a, err)
			}
		}
	}
	return h, nil
}

func (d *docResolver) referenceEvaluator(n markup.Node, name string) (model.Handle, error) {
	src, err := d.ref(n, "evaluator")
	if err != nil {
		return model.Invalid, err
	}
	h, err := d.sess().CreateReferenceEvaluator(name, src)
	if err != nil {
		return model.Invalid, err
	}
	return h, d.binds(n, h)
}

// bindIndexes applies the BindIndex entries of n's Bindings.
func (d *docResolver) bindIndexes(n markup.Node, h model.Handle) error {
	b := markup.Child(n, "Bindings")
	if b == nil {
		return nil
	}
	for _, c := range markup.ChildrenByTag(b, "BindIndex") {
		arg, err := d.ref(c, "argument")
		if err != nil {
			return at(c, err)
		}
		num, err := requiredInt(c, "indexNumber")
		if err != nil {
			return at(c, err)
		}
		if err := d.sess().SetIndexEvaluator(h, num, arg); err != nil {
			return at(c, err)
		}
	}
	return nil
}

// binds applies the Bind entries of n's Bindings.
func (d *docResolver) binds(n markup.Node, h model.Handle) error {
	b := markup.Child(n, "Bindings")
	if b == nil {
		return nil
	}
	for _, c := range markup.ChildrenByTag(b, "Bind") {
		arg, err := d.ref(c, "argument")
		if err != nil {
			return at(c, err)
		}
		src, err := d.ref(c, "source")
		if err != nil {
			return at(c, err)
		}
		if err := d.sess().SetBind(h, arg, src); err != nil {
			return at(c, err)
		}
	}
	return nil
}

func (d *docResolver) selectorEntries(n markup.Node, h model.Handle, listTag, entryTag, keyAttr string) error {
	list := markup.Child(n, listTag)
	if list == nil {
		return nil
	}
	if _, ok := list.Attr("default"); ok {
		def, err := d.ref(list, "default")
		if err != nil {
			return at(list, err)
		}
		if err := d.sess().SetDefaultEvaluator(h, def); err != nil {
			return at(list, err)
		}
	}
	for _, c := range markup.ChildrenByTag(list, entryTag) {
		key, err := requiredInt(c, keyAttr)
		if err != nil {
			return at(c, err)
		}
		sub, err := d.ref(c, "evaluator")
		if err != nil {
			return at(c, err)
		}
		if err := d.sess().SetEvaluator(h, key, sub); err != nil {
			return at(c, err)
		}
	}
	return nil
}

func (d *docResolver) piecewiseEvaluator(n markup.Node, name string) (model.Handle, error) {
	vt, err := d.ref(n, "valueType")
	if err != nil {
		return model.Invalid, err
	}
	h, err := d.sess().CreatePiecewiseEvaluator(name, vt)
	if err != nil {
		return model.Invalid, err
	}
	if list := markup.Child(n, "IndexEvaluators"); list != nil {
		for _, c := range markup.ChildrenByTag(list, "IndexEvaluator") {
			idx, err := d.ref(c, "evaluator")
			if err != nil {
				return model.Invalid, at(c, err)
			}
			num, err := requiredInt(c, "indexNumber")
			if err != nil {
				return model.Invalid, at(c, err)
			}
			if err := d.sess().SetIndexEvaluator(h, num, idx); err != nil {
				return model.Invalid, at(c, err)
			}
		}
	}
	if err := d.bindIndexes(n, h); err != nil {
		return model.Invalid, err
	}
	if markup.Child(n, "ElementEvaluators") == nil {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "piecewise evaluator has no element evaluators").WithObject(name)
	}
	if err := d.selectorEntries(n, h, "ElementEvaluators", "ElementEvaluator", "indexValue"); err != nil {
		return model.Invalid, err
	}
	if err := d.principalIndex(h, name); err != nil {
		return model.Invalid, err
	}
	return h, d.binds(n, h)
}

func (d *docResolver) aggregateEvaluator(n markup.Node, name string) (model.Handle, error) {
	vt, err := d.ref(n, "valueType")
	if err != nil {
		return model.Invalid, err
	}
	h, err := d.sess().CreateAggregateEvaluator(name, vt)
	if err != nil {
		return model.Invalid, err
	}
	if err := d.bindIndexes(n, h); err != nil {
		return model.Invalid, err
	}
	if markup.Child(n, "ComponentEvaluators") == nil {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "aggregate evaluator has no component evaluators").WithObject(name)
	}
	if err := d.selectorEntries(n, h, "ComponentEvaluators", "ComponentEvaluator", "component"); err != nil {
		return model.Invalid, err
	}
	if err := d.principalIndex(h, name); err != nil {
		return model.Invalid, err
	}
	return h, d.binds(n, h)
}

// principalIndex fails unless index evaluator number 1 of h is set.
func (d *docResolver) principalIndex(h model.Handle, name string) error {
	idx, err := d.sess().IndexEvaluator(h, 1)
	if err != nil {
		return err
	}
	if !idx.IsValid() {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "principal index evaluator is not set").WithObject(name)
	}
	return nil
}

var descriptionKinds = []struct {
	tag  string
	kind model.DescriptionKind
}{
	{"SemidenseData", model.DescriptionSemidense},
	{"DenseArrayData", model.DescriptionDenseArray},
	{"DOKArrayData", model.DescriptionDOK},
}

func (d *docResolver) parameterEvaluator(n markup.Node, name string) (model.Handle, error) {
	vt, err := d.ref(n, "valueType")
	if err != nil {
		return model.Invalid, err
	}
	h, err := d.sess().CreateParameterEvaluator(name, vt)
	if err != nil {
		return model.Invalid, err
	}

	var described bool
	for _, c := range n.Children() {
		for _, dk := range descriptionKinds {
			if c.Tag() != dk.tag {
				continue
			}
			if err := d.description(c, h, dk.kind); err != nil {
				return model.Invalid, err
			}
			described = true
		}
	}
	if !described {
		return model.Invalid, fmlerr.New(fmlerr.ErrMalformedDescription, "parameter evaluator has no data description").WithObject(name)
	}
	return h, nil
}

func (d *docResolver) description(n markup.Node, h model.Handle, kind model.DescriptionKind) error {
	if err := d.sess().SetParameterDataDescription(h, kind); err != nil {
		return at(n, err)
	}
	if kind == model.DescriptionDOK {
		key, err := d.ref(n, "keyData")
		if err != nil {
			return at(n, err)
		}
		if err := d.sess().SetKeyDataSource(h, key); err != nil {
			return at(n, err)
		}
	}
	dataAttr := "data"
	if kind == model.DescriptionDOK {
		dataAttr = "valueData"
	}
	src, err := d.ref(n, dataAttr)
	if err != nil {
		return at(n, err)
	}
	if err := d.sess().SetDataSource(h, src); err != nil {
		return at(n, err)
	}

	if list := markup.Child(n, "SparseIndexes"); list != nil {
		for _, c := range markup.ChildrenByTag(list, "IndexEvaluator") {
			idx, err := d.ref(c, "evaluator")
			if err != nil {
				return at(c, err)
			}
			if err := d.sess().AddSparseIndexEvaluator(h, idx); err != nil {
				return at(c, err)
			}
		}
	}
	if list := markup.Child(n, "DenseIndexes"); list != nil {
		for _, c := range markup.ChildrenByTag(list, "IndexEvaluator") {
			idx, err := d.ref(c, "evaluator")
			if err != nil {
				return at(c, err)
			}
			order, err := d.optRef(c, "order")
			if err != nil {
				return at(c, err)
			}
			if err := d.sess().AddDenseIndexEvaluator(h, idx, order); err != nil {
				return at(c, err)
			}
		}
	}
	if sw := markup.Child(n, "Swizzle"); sw != nil {
		perm, err := intList(sw)
		if err != nil {
			return at(sw, err)
		}
		if err := d.sess().SetSwizzle(h, perm); err != nil {
			return at(sw, err)
		}
	}
	return nil
}
