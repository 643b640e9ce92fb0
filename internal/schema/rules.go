package schema

import "sort"

// RootTag is the tag of every document root.
const RootTag = "Fieldml"

// rule describes one element. attrs maps attribute names to whether they
// are required.
type rule struct {
	attrs     map[string]bool
	openAttrs bool
	children  []string
	once      []string
	// needs lists children that must be present.
	needs []string
	// choice lists children of which exactly one must be present.
	choice []string
	text   bool
}

var intAttrs = map[string]bool{
	"min": true, "max": true, "stride": true, "count": true, "rank": true,
	"firstLine": true, "length": true, "head": true, "tail": true,
	"indexNumber": true, "indexValue": true, "component": true, "key": true,
}

var objectTags = []string{
	"Import",
	"TextFileResource", "TextInlineResource", "ArrayDataResource",
	"ContinuousType", "EnsembleType", "MeshType",
	"ArgumentEvaluator", "ExternalEvaluator", "ReferenceEvaluator",
	"PiecewiseEvaluator", "AggregateEvaluator", "ParameterEvaluator",
}

func req(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func with(m map[string]bool, optional ...string) map[string]bool {
	for _, n := range optional {
		m[n] = false
	}
	return m
}

var bindings = rule{attrs: req(), children: []string{"Bind", "BindIndex"}}

var indexList = rule{attrs: req(), children: []string{"IndexEvaluator"}}

var memberData = rule{attrs: req("data", "count")}

// Rules keyed "Parent/Child" take precedence over rules keyed by tag alone.
var rules = map[string]rule{
	RootTag:  {openAttrs: true, children: []string{"Region"}},
	"Region": {attrs: req("name"), children: objectTags},

	"Import":          {attrs: with(req("href", "region"), "type"), children: []string{"ImportType", "ImportEvaluator"}},
	"ImportType":      {attrs: req("localName", "remoteName")},
	"ImportEvaluator": {attrs: req("localName", "remoteName")},

	"TextFileResource":   {attrs: with(req("name", "href"), "type"), children: []string{"TextDataSource", "ArrayDataSource"}},
	"TextInlineResource": {attrs: req("name"), children: []string{"TextString", "TextDataSource", "ArrayDataSource"}, once: []string{"TextString"}},
	"TextString":         {attrs: req(), text: true},
	"TextDataSource":     {attrs: with(req("name"), "firstLine", "count", "length", "head", "tail")},
	"ArrayDataResource":  {attrs: with(req("name", "href", "format"), "type"), children: []string{"ArrayDataSource"}},
	"ArrayDataSource":    {attrs: with(req("name", "rank"), "location"), children: []string{"RawArraySize"}, once: []string{"RawArraySize"}},
	"RawArraySize":       {attrs: req(), text: true},

	"ContinuousType": {attrs: req("name"), children: []string{"Components"}, once: []string{"Components"}},
	"Components":     {attrs: req("name", "count")},
	"EnsembleType": {
		attrs:    with(req("name"), "isComponentEnsemble"),
		children: []string{"Members"},
		once:     []string{"Members"},
		needs:    []string{"Members"},
	},
	"Members": {
		attrs:    req(),
		children: []string{"MemberRange", "MemberList", "MemberListData", "MemberRangeData", "MemberStrideRangeData"},
		choice:   []string{"MemberRange", "MemberList", "MemberListData", "MemberRangeData", "MemberStrideRangeData"},
	},
	"MemberRange":           {attrs: with(req("min", "max"), "stride")},
	"MemberList":            {attrs: req(), text: true},
	"MemberListData":        memberData,
	"MemberRangeData":       memberData,
	"MemberStrideRangeData": memberData,
	"MeshType": {
		attrs:    req("name"),
		children: []string{"Elements", "Chart", "Shapes"},
		once:     []string{"Elements", "Chart", "Shapes"},
	},
	"Elements": {attrs: with(req(), "name"), children: []string{"Members"}, once: []string{"Members"}},
	"Chart":    {attrs: with(req(), "name"), children: []string{"Components"}, once: []string{"Components"}},
	"Shapes":   {attrs: with(req(), "default"), children: []string{"Shape"}},
	"Shape":    {attrs: req("key", "value")},

	"ArgumentEvaluator":  {attrs: req("name", "valueType"), children: []string{"Arguments"}, once: []string{"Arguments"}},
	"ExternalEvaluator":  {attrs: req("name", "valueType"), children: []string{"Arguments"}, once: []string{"Arguments"}},
	"Arguments":          {attrs: req(), children: []string{"Argument"}},
	"Argument":           {attrs: req("name")},
	"ReferenceEvaluator": {attrs: req("name", "evaluator"), children: []string{"Bindings"}, once: []string{"Bindings"}},
	"Bindings":           bindings,
	"Bind":               {attrs: req("argument", "source")},
	"BindIndex":          {attrs: req("argument", "indexNumber")},
	"PiecewiseEvaluator": {
		attrs:    req("name", "valueType"),
		children: []string{"IndexEvaluators", "ElementEvaluators", "Bindings"},
		once:     []string{"IndexEvaluators", "ElementEvaluators", "Bindings"},
		needs:    []string{"ElementEvaluators"},
	},
	"IndexEvaluators":   indexList,
	"ElementEvaluators": {attrs: with(req(), "default"), children: []string{"ElementEvaluator"}},
	"ElementEvaluator":  {attrs: req("indexValue", "evaluator")},
	"AggregateEvaluator": {
		attrs:    req("name", "valueType"),
		children: []string{"ComponentEvaluators", "Bindings"},
		once:     []string{"ComponentEvaluators", "Bindings"},
		needs:    []string{"ComponentEvaluators"},
	},
	"ComponentEvaluators": {attrs: with(req(), "default"), children: []string{"ComponentEvaluator"}},
	"ComponentEvaluator":  {attrs: req("component", "evaluator")},
	"ParameterEvaluator": {
		attrs:    req("name", "valueType"),
		children: []string{"SemidenseData", "DenseArrayData", "DOKArrayData"},
		choice:   []string{"SemidenseData", "DenseArrayData", "DOKArrayData"},
	},
	"SemidenseData": {
		attrs:    req("data"),
		children: []string{"DenseIndexes", "SparseIndexes", "Swizzle"},
		once:     []string{"DenseIndexes", "SparseIndexes", "Swizzle"},
	},
	"DenseArrayData": {
		attrs:    req("data"),
		children: []string{"DenseIndexes", "Swizzle"},
		once:     []string{"DenseIndexes", "Swizzle"},
	},
	"DOKArrayData": {
		attrs:    req("keyData", "valueData"),
		children: []string{"SparseIndexes", "DenseIndexes"},
		once:     []string{"SparseIndexes", "DenseIndexes"},
	},
	"DenseIndexes":  indexList,
	"SparseIndexes": indexList,
	"Swizzle":       {attrs: req(), text: true},

	"IndexEvaluators/IndexEvaluator": {attrs: req("evaluator", "indexNumber")},
	"DenseIndexes/IndexEvaluator":    {attrs: with(req("evaluator"), "order")},
	"SparseIndexes/IndexEvaluator":   {attrs: req("evaluator")},
}

func lookup(parent, tag string) (rule, bool) {
	if r, ok := rules[parent+"/"+tag]; ok {
		return r, true
	}
	r, ok := rules[tag]
	return r, ok
}

func sortedRequired(r rule) []string {
	var out []string
	for name, required := range r.attrs {
		if required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
