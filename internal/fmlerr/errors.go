// Package fmlerr defines the error kinds shared by every layer of the
// library. Each kind is a sentinel that callers match with errors.Is; the
// Error type attaches the offending object and attribute names to a kind.
package fmlerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHandle        = errors.New("invalid handle")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrNotFound             = errors.New("not found")
	ErrRecursiveDefinition  = errors.New("recursive definition")
	ErrIncompatibleBind     = errors.New("incompatible bind")
	ErrUnsupportedIO        = errors.New("unsupported io")
	ErrMalformedDescription = errors.New("malformed description")
	ErrSchemaValidation     = errors.New("schema validation failed")
	ErrParseFailed          = errors.New("parse failed")
	ErrAlreadyDefined       = errors.New("already defined")
)

// Error is a failure of a single operation. Kind is one of the sentinels
// above; Object and Attribute are optional and name what was being processed.
type Error struct {
	Kind      error
	Object    string
	Attribute string
	Msg       string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}
	switch {
	case e.Object != "" && e.Attribute != "":
		fmt.Fprintf(&sb, " (object %q, attribute %q)", e.Object, e.Attribute)
	case e.Object != "":
		fmt.Fprintf(&sb, " (object %q)", e.Object)
	case e.Attribute != "":
		fmt.Fprintf(&sb, " (attribute %q)", e.Attribute)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Kind }

// New returns an Error of the given kind with a formatted message.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithObject returns a copy of e naming the object it concerns.
func (e *Error) WithObject(name string) *Error {
	c := *e
	c.Object = name
	return &c
}

// WithAttribute returns a copy of e naming the attribute it concerns.
func (e *Error) WithAttribute(name string) *Error {
	c := *e
	c.Attribute = name
	return &c
}

// Kind reports which sentinel err wraps, or nil when it wraps none of them.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

var kinds = []error{
	ErrInvalidHandle,
	ErrTypeMismatch,
	ErrNotFound,
	ErrRecursiveDefinition,
	ErrIncompatibleBind,
	ErrUnsupportedIO,
	ErrMalformedDescription,
	ErrSchemaValidation,
	ErrParseFailed,
	ErrAlreadyDefined,
}
