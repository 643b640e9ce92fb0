// Package writer renders the local objects of a session back into document
// form, so that a parsed document can be saved and parsed again.
package writer

import (
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/fieldgo/internal/hcl"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/vk/fieldgo/internal/model"
	"github.com/vk/fieldgo/internal/session"
	"github.com/vk/fieldgo/internal/xmldoc"
)

// Options controls how a document is rendered.
type Options struct {
	// Dir is the directory the document will be stored in. Import hrefs
	// that are absolute paths are written relative to it.
	Dir string
}

// WriteXML writes the local objects of s as an XML document.
func WriteXML(w io.Writer, s *session.Session, opts Options) error {
	return xmldoc.Encode(w, Document(s, opts))
}

// WriteHCL writes the local objects of s as an HCL document.
func WriteHCL(w io.Writer, s *session.Session, opts Options) error {
	_, err := w.Write(hcl.Encode(Document(s, opts)))
	return err
}

// Document builds the document tree for the local objects of s.
func Document(s *session.Session, opts Options) *markup.Element {
	w := &docWriter{s: s, opts: opts, names: make(map[model.Handle]string), owned: make(map[model.Handle]bool)}
	w.index()

	region := markup.NewElement("Region", "name", s.Region())
	region.Add(w.imports()...)
	s.Each(func(obj model.Object) bool {
		head := obj.Head()
		if head.Location != model.LocalLocation || head.Virtual || w.owned[head.Handle] {
			return true
		}
		if el := w.object(obj); el != nil {
			region.Add(el)
		}
		return true
	})
	return markup.NewElement("Fieldml", "version", "0.5").Add(region)
}

type docWriter struct {
	s    *session.Session
	opts Options
	// names maps handles to the names they are known by in the local scope.
	names map[model.Handle]string
	// owned marks objects written as part of another object.
	owned   map[model.Handle]bool
	sources map[model.Handle][]*model.DataSource
}

func (w *docWriter) index() {
	w.sources = make(map[model.Handle][]*model.DataSource)
	w.s.Each(func(obj model.Object) bool {
		head := obj.Head()
		if head.Location == model.LocalLocation && head.Name != "" {
			w.names[head.Handle] = head.Name
		}
		if head.Location != model.LocalLocation {
			return true
		}
		switch t := obj.(type) {
		case *model.ContinuousType:
			w.own(t.ComponentType)
		case *model.EnsembleType:
			w.own(t.ComponentType)
		case *model.MeshType:
			w.own(t.ElementsType, t.ChartType)
			if chart, err := session.Get[*model.ContinuousType](w.s, t.ChartType); err == nil {
				w.own(chart.ComponentType)
			}
		case *model.DataSource:
			w.own(t.Handle)
			w.sources[t.Resource] = append(w.sources[t.Resource], t)
		}
		return true
	})
	for _, imp := range w.s.Imports() {
		if imp.Location != model.LocalLocation {
			continue
		}
		if _, ok := w.names[imp.Handle]; !ok {
			w.names[imp.Handle] = imp.LocalName
		}
	}
}

func (w *docWriter) own(hs ...model.Handle) {
	for _, h := range hs {
		if h.IsValid() {
			w.owned[h] = true
		}
	}
}

// name returns the local name of h.
func (w *docWriter) name(h model.Handle) string {
	if n, ok := w.names[h]; ok {
		return n
	}
	if obj, err := w.s.Object(h); err == nil {
		return obj.Head().Name
	}
	return ""
}

func (w *docWriter) href(href string) string {
	if w.opts.Dir == "" || !filepath.IsAbs(href) {
		return href
	}
	if rel, err := filepath.Rel(w.opts.Dir, href); err == nil {
		return filepath.ToSlash(rel)
	}
	return href
}

func (w *docWriter) imports() []*markup.Element {
	byIndex := make(map[int]*markup.Element)
	var out []*markup.Element
	for i, src := range w.s.ImportSources() {
		if src.Importer != model.LocalLocation {
			continue
		}
		el := markup.NewElement("Import", "href", w.href(src.Href), "region", src.Region)
		byIndex[i] = el
		out = append(out, el)
	}
	for _, imp := range w.s.Imports() {
		el, ok := byIndex[imp.Source]
		if !ok || imp.Location != model.LocalLocation {
			continue
		}
		tag := "ImportEvaluator"
		if obj, err := w.s.Object(imp.Handle); err == nil && obj.Head().Kind.IsType() {
			tag = "ImportType"
		}
		el.Add(markup.NewElement(tag, "localName", imp.LocalName, "remoteName", imp.RemoteName))
	}
	return out
}

func itoa(i int) string { return strconv.Itoa(i) }

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = itoa(v)
	}
	return strings.Join(parts, " ")
}

func (w *docWriter) object(obj model.Object) *markup.Element {
	switch t := obj.(type) {
	case *model.DataResource:
		return w.resource(t)
	case *model.ContinuousType:
		el := markup.NewElement("ContinuousType", "name", t.Name)
		if c := w.components(t.ComponentType); c != nil {
			el.Add(c)
		}
		return el
	case *model.EnsembleType:
		el := markup.NewElement("EnsembleType", "name", t.Name)
		if t.IsComponentEnsemble {
			el.Set("isComponentEnsemble", "true")
		}
		if m := w.members(t); m != nil {
			el.Add(m)
		}
		return el
	case *model.MeshType:
		return w.mesh(t)
	case *model.ArgumentEvaluator:
		return w.withArguments(markup.NewElement("ArgumentEvaluator", "name", t.Name, "valueType", w.name(t.ValueType)), t.Arguments)
	case *model.ExternalEvaluator:
		return w.withArguments(markup.NewElement("ExternalEvaluator", "name", t.Name, "valueType", w.name(t.ValueType)), t.Arguments)
	case *model.ReferenceEvaluator:
		el := markup.NewElement("ReferenceEvaluator", "name", t.Name, "evaluator", w.name(t.Source))
		if b := w.bindings(&t.Binds, nil); b != nil {
			el.Add(b)
		}
		return el
	case *model.PiecewiseEvaluator:
		return w.piecewise(t)
	case *model.AggregateEvaluator:
		return w.aggregate(t)
	case *model.ParameterEvaluator:
		return w.parameter(t)
	}
	return nil
}

func (w *docWriter) resource(r *model.DataResource) *markup.Element {
	var el *markup.Element
	switch {
	case r.Location.Kind == model.LocationInline:
		el = markup.NewElement("TextInlineResource", "name", r.Name)
		if r.Location.Inline != nil && r.Location.Inline.Len() > 0 {
			el.Add(markup.NewElement("TextString").WithText(r.Location.Inline.String()))
		}
	case r.Format == model.PlainTextFormat:
		el = markup.NewElement("TextFileResource", "name", r.Name, "href", r.Location.Path)
	default:
		el = markup.NewElement("ArrayDataResource", "name", r.Name, "href", r.Location.Path, "format", r.Format)
	}

	for _, src := range w.sources[r.Handle] {
		if src.Text != nil {
			l := src.Text
			ts := markup.NewElement("TextDataSource", "name", src.Name,
				"firstLine", itoa(l.FirstLine), "count", itoa(l.Count), "length", itoa(l.Length))
			if l.Head != 0 {
				ts.Set("head", itoa(l.Head))
			}
			if l.Tail != 0 {
				ts.Set("tail", itoa(l.Tail))
			}
			el.Add(ts)
			continue
		}
		as := markup.NewElement("ArrayDataSource", "name", src.Name, "rank", itoa(src.Rank))
		if src.Location != "" {
			as.Set("location", src.Location)
		}
		if declared(src.Sizes) {
			as.Add(markup.NewElement("RawArraySize").WithText(joinInts(src.Sizes)))
		}
		el.Add(as)
	}
	return el
}

func declared(sizes []int) bool {
	for _, n := range sizes {
		if n != 0 {
			return true
		}
	}
	return false
}

func (w *docWriter) components(h model.Handle) *markup.Element {
	ens, err := session.Get[*model.EnsembleType](w.s, h)
	if err != nil {
		return nil
	}
	return markup.NewElement("Components", "name", ens.Name, "count", itoa(ens.MemberCount()))
}

func (w *docWriter) members(e *model.EnsembleType) *markup.Element {
	var spec *markup.Element
	switch d := e.Def; d.Kind {
	case model.MembersRange:
		spec = markup.NewElement("MemberRange", "min", itoa(d.Min), "max", itoa(d.Max))
		if d.Stride != 1 {
			spec.Set("stride", itoa(d.Stride))
		}
	case model.MembersList:
		spec = markup.NewElement("MemberList").WithText(joinInts(e.Members.Slice()))
	case model.MembersListData:
		spec = markup.NewElement("MemberListData", "data", w.name(d.Source), "count", itoa(d.Count))
	case model.MembersRangeData:
		spec = markup.NewElement("MemberRangeData", "data", w.name(d.Source), "count", itoa(d.Count))
	case model.MembersStrideRangeData:
		spec = markup.NewElement("MemberStrideRangeData", "data", w.name(d.Source), "count", itoa(d.Count))
	default:
		return nil
	}
	return markup.NewElement("Members").Add(spec)
}

func (w *docWriter) mesh(m *model.MeshType) *markup.Element {
	el := markup.NewElement("MeshType", "name", m.Name)
	if ens, err := session.Get[*model.EnsembleType](w.s, m.ElementsType); err == nil {
		elements := markup.NewElement("Elements", "name", ens.Name)
		if mem := w.members(ens); mem != nil {
			elements.Add(mem)
		}
		el.Add(elements)
	}
	if chart, err := session.Get[*model.ContinuousType](w.s, m.ChartType); err == nil {
		ch := markup.NewElement("Chart", "name", chart.Name)
		if c := w.components(chart.ComponentType); c != nil {
			ch.Add(c)
		}
		el.Add(ch)
	}
	if m.DefaultShape != "" || len(m.Shapes) > 0 {
		shapes := markup.NewElement("Shapes")
		if m.DefaultShape != "" {
			shapes.Set("default", m.DefaultShape)
		}
		keys := make([]int, 0, len(m.Shapes))
		for k := range m.Shapes {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			shapes.Add(markup.NewElement("Shape", "key", itoa(k), "value", m.Shapes[k]))
		}
		el.Add(shapes)
	}
	return el
}

func (w *docWriter) withArguments(el *markup.Element, args []model.Handle) *markup.Element {
	if len(args) == 0 {
		return el
	}
	list := markup.NewElement("Arguments")
	for _, a := range args {
		list.Add(markup.NewElement("Argument", "name", w.name(a)))
	}
	return el.Add(list)
}

// bindings renders binds and, for aggregates, index binds. It returns nil
// when there is nothing to write.
func (w *docWriter) bindings(binds *model.BindMap, indexes []*markup.Element) *markup.Element {
	if binds.Len() == 0 && len(indexes) == 0 {
		return nil
	}
	el := markup.NewElement("Bindings").Add(indexes...)
	for _, arg := range binds.Keys() {
		src, _ := binds.Get(arg)
		el.Add(markup.NewElement("Bind", "argument", w.name(arg), "source", w.name(src)))
	}
	return el
}

func (w *docWriter) piecewise(p *model.PiecewiseEvaluator) *markup.Element {
	el := markup.NewElement("PiecewiseEvaluator", "name", p.Name, "valueType", w.name(p.ValueType))
	indexes := markup.NewElement("IndexEvaluators")
	if p.IndexEvaluator.IsValid() {
		indexes.Add(markup.NewElement("IndexEvaluator", "evaluator", w.name(p.IndexEvaluator), "indexNumber", "1"))
	}
	for _, n := range p.IndexEvaluators.Keys() {
		indexes.Add(markup.NewElement("IndexEvaluator", "evaluator", w.name(p.IndexEvaluators[n]), "indexNumber", itoa(n)))
	}
	if len(indexes.Kids) > 0 {
		el.Add(indexes)
	}
	el.Add(w.selectorEntries(&p.Selector, "ElementEvaluators", "ElementEvaluator", "indexValue"))
	if b := w.bindings(&p.Binds, nil); b != nil {
		el.Add(b)
	}
	return el
}

func (w *docWriter) aggregate(a *model.AggregateEvaluator) *markup.Element {
	el := markup.NewElement("AggregateEvaluator", "name", a.Name, "valueType", w.name(a.ValueType))
	el.Add(w.selectorEntries(&a.Selector, "ComponentEvaluators", "ComponentEvaluator", "component"))
	var indexes []*markup.Element
	if a.IndexEvaluator.IsValid() {
		indexes = append(indexes, markup.NewElement("BindIndex", "argument", w.name(a.IndexEvaluator), "indexNumber", "1"))
	}
	for _, n := range a.IndexEvaluators.Keys() {
		indexes = append(indexes, markup.NewElement("BindIndex", "argument", w.name(a.IndexEvaluators[n]), "indexNumber", itoa(n)))
	}
	if b := w.bindings(&a.Binds, indexes); b != nil {
		el.Add(b)
	}
	return el
}

// selectorEntries returns the list element, empty when sel has no entries.
func (w *docWriter) selectorEntries(sel *model.Selector, listTag, entryTag, keyAttr string) *markup.Element {
	list := markup.NewElement(listTag)
	if sel.Default.IsValid() {
		list.Set("default", w.name(sel.Default))
	}
	for _, k := range sel.Evaluators.Keys() {
		list.Add(markup.NewElement(entryTag, keyAttr, itoa(k), "evaluator", w.name(sel.Evaluators[k])))
	}
	return list
}

func (w *docWriter) parameter(p *model.ParameterEvaluator) *markup.Element {
	el := markup.NewElement("ParameterEvaluator", "name", p.Name, "valueType", w.name(p.ValueType))
	d := &p.Description

	var desc *markup.Element
	switch d.Kind {
	case model.DescriptionSemidense:
		desc = markup.NewElement("SemidenseData", "data", w.name(d.Source))
	case model.DescriptionDenseArray:
		desc = markup.NewElement("DenseArrayData", "data", w.name(d.Source))
	case model.DescriptionDOK:
		desc = markup.NewElement("DOKArrayData", "keyData", w.name(d.KeySource), "valueData", w.name(d.Source))
	default:
		return el
	}

	if len(d.SparseIndexes) > 0 {
		sparse := markup.NewElement("SparseIndexes")
		for _, h := range d.SparseIndexes {
			sparse.Add(markup.NewElement("IndexEvaluator", "evaluator", w.name(h)))
		}
		desc.Add(sparse)
	}
	if len(d.DenseIndexes) > 0 {
		dense := markup.NewElement("DenseIndexes")
		for i, h := range d.DenseIndexes {
			ie := markup.NewElement("IndexEvaluator", "evaluator", w.name(h))
			if i < len(d.DenseOrders) && d.DenseOrders[i].IsValid() {
				ie.Set("order", w.name(d.DenseOrders[i]))
			}
			dense.Add(ie)
		}
		desc.Add(dense)
	}
	if len(d.Swizzle) > 0 {
		desc.Add(markup.NewElement("Swizzle").WithText(joinInts(d.Swizzle)))
	}
	return el.Add(desc)
}
