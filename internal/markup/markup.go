// Package markup is the small tree contract the document resolver reads.
//
// Front-ends (XML, HCL) turn their input into Elements; the resolver and the
// schema validator only see the Node interface, so neither depends on a
// concrete syntax.
package markup

import (
	"fmt"
	"strings"
)

// Pos is a position in a source document.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	switch {
	case p.File == "" && p.Line == 0:
		return "<unknown>"
	case p.Line == 0:
		return p.File
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

// Node is one element of a document tree.
type Node interface {
	Tag() string
	// Attr returns the value of an attribute and whether it is present.
	Attr(name string) (string, bool)
	Attrs() []Attr
	Children() []Node
	// Text returns the character data directly inside the node.
	Text() string
	Pos() Pos
}

// Attr is a single attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is the in-memory Node implementation built by every front-end.
type Element struct {
	Name       string
	Attributes []Attr
	Kids       []*Element
	Content    string
	At         Pos
}

// NewElement returns an element with the given tag and attribute pairs
// (name, value, name, value, ...).
func NewElement(tag string, pairs ...string) *Element {
	e := &Element{Name: tag}
	for i := 0; i+1 < len(pairs); i += 2 {
		e.Set(pairs[i], pairs[i+1])
	}
	return e
}

func (e *Element) Tag() string { return e.Name }

func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *Element) Attrs() []Attr { return e.Attributes }

func (e *Element) Children() []Node {
	out := make([]Node, len(e.Kids))
	for i, k := range e.Kids {
		out[i] = k
	}
	return out
}

func (e *Element) Text() string { return e.Content }

func (e *Element) Pos() Pos { return e.At }

// Set adds or replaces an attribute and returns e.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attributes {
		if e.Attributes[i].Name == name {
			e.Attributes[i].Value = value
			return e
		}
	}
	e.Attributes = append(e.Attributes, Attr{Name: name, Value: value})
	return e
}

// Add appends children and returns e.
func (e *Element) Add(children ...*Element) *Element {
	e.Kids = append(e.Kids, children...)
	return e
}

// WithText sets the character data and returns e.
func (e *Element) WithText(text string) *Element {
	e.Content = text
	return e
}

// Child returns the first child of n with the given tag, or nil.
func Child(n Node, tag string) Node {
	for _, c := range n.Children() {
		if c.Tag() == tag {
			return c
		}
	}
	return nil
}

// ChildrenByTag returns the children of n with the given tag.
func ChildrenByTag(n Node, tag string) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Tag() == tag {
			out = append(out, c)
		}
	}
	return out
}

// AttrOr returns the attribute value or def when it is absent.
func AttrOr(n Node, name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Describe returns a short human-readable label such as
// `EnsembleType "nodes"` for error messages.
func Describe(n Node) string {
	if name, ok := n.Attr("name"); ok {
		return fmt.Sprintf("%s %q", n.Tag(), name)
	}
	return n.Tag()
}

// Fields splits the text of n on whitespace.
func Fields(n Node) []string {
	return strings.Fields(n.Text())
}
