package hcl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockNames(t *testing.T) {
	testCases := []struct {
		block string
		tag   string
	}{
		{"region", "Region"},
		{"member_range", "MemberRange"},
		{"text_inline_resource", "TextInlineResource"},
		{"dok_array_data", "DOKArrayData"},
		{"fieldml", "Fieldml"},
		{"import_type", "ImportType"},
	}
	for _, tc := range testCases {
		t.Run(tc.tag, func(t *testing.T) {
			assert.Equal(t, tc.tag, BlockToTag(tc.block))
			assert.Equal(t, tc.block, TagToBlock(tc.tag))
		})
	}
}

func TestAttrNames(t *testing.T) {
	testCases := []struct {
		hcl  string
		attr string
	}{
		{"name", "name"},
		{"local_name", "localName"},
		{"is_component_ensemble", "isComponentEnsemble"},
		{"first_line", "firstLine"},
		{"index_number", "indexNumber"},
	}
	for _, tc := range testCases {
		t.Run(tc.attr, func(t *testing.T) {
			assert.Equal(t, tc.attr, AttrName(tc.hcl))
			assert.Equal(t, tc.hcl, HCLAttrName(tc.attr))
		})
	}
}
