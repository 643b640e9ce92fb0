// Package xmldoc reads and writes XML documents as markup trees.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
)

// Parse reads one XML document. Namespace prefixes are dropped from element
// and attribute names, so xlink:href becomes href. file is only used in
// positions.
func Parse(r io.Reader, file string) (*markup.Element, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *markup.Element
		stack []*markup.Element
		text  []*strings.Builder
	)
	for {
		line, col := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmlerr.New(fmlerr.ErrParseFailed, "%s:%d:%d: %v", file, line, col, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &markup.Element{
				Name: t.Name.Local,
				At:   markup.Pos{File: file, Line: line, Column: col},
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.Set(a.Name.Local, a.Value)
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmlerr.New(fmlerr.ErrParseFailed, "%s:%d:%d: more than one root element", file, line, col)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Kids = append(parent.Kids, el)
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			top := stack[len(stack)-1]
			top.Content = text[len(text)-1].String()
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		}
	}
	if root == nil {
		return nil, fmlerr.New(fmlerr.ErrParseFailed, "%s: document has no root element", file)
	}
	return root, nil
}

// ParseString parses an XML document held in a string.
func ParseString(doc, file string) (*markup.Element, error) {
	return Parse(strings.NewReader(doc), file)
}

// Encode writes root as an indented XML document.
func Encode(w io.Writer, root markup.Node) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := encodeNode(enc, root); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeNode(enc *xml.Encoder, n markup.Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Tag()}}
	for _, a := range n.Attrs() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text := n.Text(); strings.TrimSpace(text) != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// EncodeString renders root as an XML document string.
func EncodeString(root markup.Node) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}
