package hcl

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/zclconf/go-cty/cty"
)

// Encode renders a markup tree as HCL. The root element itself is not
// written; its children become the top level blocks.
func Encode(root markup.Node) []byte {
	f := hclwrite.NewEmptyFile()
	for _, c := range root.Children() {
		encodeNode(f.Body(), c)
	}
	return f.Bytes()
}

func encodeNode(parent *hclwrite.Body, n markup.Node) {
	var labels []string
	if name, ok := n.Attr("name"); ok {
		labels = []string{name}
	}
	block := parent.AppendNewBlock(TagToBlock(n.Tag()), labels)
	body := block.Body()
	for _, a := range n.Attrs() {
		if a.Name == "name" {
			continue
		}
		body.SetAttributeValue(HCLAttrName(a.Name), cty.StringVal(a.Value))
	}
	if text := markup.Fields(n); len(text) > 0 {
		body.SetAttributeValue(contentAttr, cty.StringVal(n.Text()))
	}
	for _, c := range n.Children() {
		encodeNode(body, c)
	}
}
