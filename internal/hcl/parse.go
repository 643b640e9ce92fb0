package hcl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/fieldgo/internal/ctxlog"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// contentAttr is the attribute that carries element text.
const contentAttr = "content"

// Parse reads an HCL document and returns a Fieldml root element whose
// children are the top level blocks.
func Parse(ctx context.Context, src []byte, filename string) (*markup.Element, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing HCL document.", "path", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmlerr.New(fmlerr.ErrParseFailed, "failed to parse HCL file %s: %s", filename, diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmlerr.New(fmlerr.ErrParseFailed, "%s is not native HCL syntax", filename)
	}

	root := &markup.Element{Name: "Fieldml", At: pos(body.SrcRange)}
	if err := translateBody(root, body); err != nil {
		return nil, err
	}
	logger.Debug("Successfully parsed HCL document.", "path", filename, "blocks", len(root.Kids))
	return root, nil
}

func pos(r hcl.Range) markup.Pos {
	return markup.Pos{File: r.Filename, Line: r.Start.Line, Column: r.Start.Column}
}

// translateBody copies the attributes and blocks of body onto el.
func translateBody(el *markup.Element, body *hclsyntax.Body) error {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	for _, a := range attrs {
		val, diags := a.Expr.Value(nil)
		if diags.HasErrors() {
			return fmlerr.New(fmlerr.ErrParseFailed, "%s: %s", pos(a.SrcRange), diags.Error()).WithAttribute(a.Name)
		}
		text, err := valueText(val)
		if err != nil {
			return fmlerr.New(fmlerr.ErrParseFailed, "%s: %v", pos(a.SrcRange), err).WithAttribute(a.Name)
		}
		if a.Name == contentAttr {
			el.Content = text
			continue
		}
		el.Set(AttrName(a.Name), text)
	}

	for _, b := range body.Blocks {
		child := &markup.Element{Name: BlockToTag(b.Type), At: pos(b.TypeRange)}
		switch len(b.Labels) {
		case 0:
		case 1:
			child.Set("name", b.Labels[0])
		default:
			return fmlerr.New(fmlerr.ErrParseFailed, "%s: block %q takes at most one label", pos(b.TypeRange), b.Type)
		}
		if err := translateBody(child, b.Body); err != nil {
			return err
		}
		el.Kids = append(el.Kids, child)
	}
	return nil
}

// valueText renders a value the way it would appear in XML: scalars as
// strings and sequences as whitespace separated items.
func valueText(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("value is not known")
	}
	ty := val.Type()
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		var parts []string
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			s, err := valueText(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	}
	s, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot use %s as text: %w", ty.FriendlyName(), err)
	}
	return s.AsString(), nil
}
