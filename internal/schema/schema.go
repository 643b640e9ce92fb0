// Package schema checks that a document tree has the structure the resolver
// expects before any object is created: known tags in known places, required
// attributes present, integer attributes parseable and text only where text
// is allowed.
package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
)

// Validate walks the tree under root and reports every violation it finds.
// The returned error wraps fmlerr.ErrSchemaValidation and a
// *multierror.Error holding the individual violations.
func Validate(root markup.Node) error {
	var result *multierror.Error
	if root.Tag() != RootTag {
		result = multierror.Append(result, violation(root, "root element must be %s, found %s", RootTag, root.Tag()))
	} else {
		result = check(result, "", root)
		if regions := markup.ChildrenByTag(root, "Region"); len(regions) != 1 {
			result = multierror.Append(result, violation(root, "document must contain exactly one Region, found %d", len(regions)))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", fmlerr.ErrSchemaValidation, err)
	}
	return nil
}

func check(result *multierror.Error, parent string, n markup.Node) *multierror.Error {
	r, ok := lookup(parent, n.Tag())
	if !ok {
		return multierror.Append(result, violation(n, "unexpected element %s", n.Tag()))
	}

	if !r.openAttrs {
		for _, a := range n.Attrs() {
			if _, known := r.attrs[a.Name]; !known {
				result = multierror.Append(result, violation(n, "unexpected attribute %q", a.Name))
			}
		}
	}
	for _, name := range sortedRequired(r) {
		if _, present := n.Attr(name); !present {
			result = multierror.Append(result, violation(n, "missing required attribute %q", name))
		}
	}
	for _, a := range n.Attrs() {
		if !intAttrs[a.Name] {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(a.Value)); err != nil {
			result = multierror.Append(result, violation(n, "attribute %q must be an integer, found %q", a.Name, a.Value))
		}
	}
	if !r.text && strings.TrimSpace(n.Text()) != "" {
		result = multierror.Append(result, violation(n, "unexpected text content"))
	}

	seen := map[string]int{}
	for _, c := range n.Children() {
		if !contains(r.children, c.Tag()) {
			result = multierror.Append(result, violation(c, "%s is not allowed inside %s", c.Tag(), n.Tag()))
			continue
		}
		seen[c.Tag()]++
		if seen[c.Tag()] == 2 && contains(r.once, c.Tag()) {
			result = multierror.Append(result, violation(c, "%s may appear only once inside %s", c.Tag(), n.Tag()))
		}
		result = check(result, n.Tag(), c)
	}
	for _, tag := range r.needs {
		if seen[tag] == 0 {
			result = multierror.Append(result, violation(n, "%s must contain %s", n.Tag(), tag))
		}
	}
	if r.choice != nil {
		var picked int
		for _, tag := range r.choice {
			picked += seen[tag]
		}
		if picked != 1 {
			result = multierror.Append(result, violation(n, "%s needs exactly one of %s", n.Tag(), strings.Join(r.choice, ", ")))
		}
	}
	return result
}

func violation(n markup.Node, format string, args ...any) error {
	return fmt.Errorf("%s: %s", n.Pos(), fmt.Sprintf(format, args...))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
