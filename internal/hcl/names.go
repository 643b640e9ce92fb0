package hcl

import (
	"strings"
	"unicode"
)

// Tags whose snake_case form does not follow the generic rule.
var tagExceptions = map[string]string{
	"dok_array_data": "DOKArrayData",
	"fieldml":        "Fieldml",
}

var blockExceptions = func() map[string]string {
	m := make(map[string]string, len(tagExceptions))
	for block, tag := range tagExceptions {
		m[tag] = block
	}
	return m
}()

// BlockToTag converts a block type such as member_range to MemberRange.
func BlockToTag(block string) string {
	if tag, ok := tagExceptions[block]; ok {
		return tag
	}
	var sb strings.Builder
	for _, part := range strings.Split(block, "_") {
		sb.WriteString(capitalize(part))
	}
	return sb.String()
}

// TagToBlock converts an element tag such as MemberRange to member_range.
func TagToBlock(tag string) string {
	if block, ok := blockExceptions[tag]; ok {
		return block
	}
	return snake(tag)
}

// AttrName converts an HCL attribute name such as local_name to localName.
func AttrName(name string) string {
	parts := strings.Split(name, "_")
	for i := 1; i < len(parts); i++ {
		parts[i] = capitalize(parts[i])
	}
	return strings.Join(parts, "")
}

// HCLAttrName converts an attribute name such as localName to local_name.
func HCLAttrName(name string) string {
	return snake(name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func snake(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
