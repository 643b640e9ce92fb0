package resolver

import (
	"strconv"
	"strings"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
)

func intAttr(n markup.Node, name string, def int) (int, error) {
	v, ok := n.Attr(name)
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmlerr.New(fmlerr.ErrMalformedDescription, "%q is not an integer", v).WithAttribute(name)
	}
	return i, nil
}

func requiredInt(n markup.Node, name string) (int, error) {
	if _, ok := n.Attr(name); !ok {
		return 0, fmlerr.New(fmlerr.ErrMalformedDescription, "%s needs attribute %s", n.Tag(), name).WithAttribute(name)
	}
	return intAttr(n, name, 0)
}

func boolAttr(n markup.Node, name string) (bool, error) {
	v, ok := n.Attr(name)
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmlerr.New(fmlerr.ErrMalformedDescription, "%q is not a boolean", v).WithAttribute(name)
	}
	return b, nil
}

// intList parses the whitespace separated integers in the text of n.
func intList(n markup.Node) ([]int, error) {
	fields := markup.Fields(n)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmlerr.New(fmlerr.ErrMalformedDescription, "%s: %q is not an integer", n.Tag(), f)
		}
		out = append(out, i)
	}
	return out, nil
}
