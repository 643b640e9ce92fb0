package arrayio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

const maxLine = 64 << 20

// TextReader reads slabs of a plain text array source in row-major order.
type TextReader struct {
	shape  shape
	stream io.ReadCloser
	tokens *tokenizer
	cursor int
	// broken is set once a parse error has consumed part of a slab.
	broken bool
	closed bool
}

// NewTextReader opens the stream of res and positions it at the first line
// of src.
func (b Backend) NewTextReader(res *model.DataResource, src *model.DataSource) (*TextReader, error) {
	sh, err := shapeOf(src)
	if err != nil {
		return nil, err
	}
	first, err := firstLine(src)
	if err != nil {
		return nil, err
	}
	stream, err := b.openRead(res)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(stream)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for line := 1; line < first; line++ {
		if !sc.Scan() {
			stream.Close()
			return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "resource ends before line %d", first).WithObject(src.Name)
		}
	}
	return &TextReader{
		shape:  sh,
		stream: stream,
		tokens: &tokenizer{sc: sc, layout: src.Text},
	}, nil
}

func firstLine(src *model.DataSource) (int, error) {
	if src.Text != nil {
		if src.Text.FirstLine < 1 {
			return 1, nil
		}
		return src.Text.FirstLine, nil
	}
	loc := strings.TrimSpace(src.Location)
	if loc == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(loc)
	if err != nil || n < 1 {
		return 0, fmlerr.New(fmlerr.ErrMalformedDescription, "location %q is not a line number", src.Location).WithObject(src.Name)
	}
	return n, nil
}

// Cursor returns the next axis 0 offset the reader accepts.
func (r *TextReader) Cursor() int { return r.cursor }

// ReadInts fills values with an integer slab.
func (r *TextReader) ReadInts(offsets, sizes []int, values []int) error {
	return r.readSlab(offsets, sizes, &buffer{kind: IntValues, ints: values})
}

// ReadFloats fills values with a floating point slab.
func (r *TextReader) ReadFloats(offsets, sizes []int, values []float64) error {
	return r.readSlab(offsets, sizes, &buffer{kind: FloatValues, doubles: values})
}

// ReadBools fills values with a boolean slab. Both 1/0 and true/false are
// accepted.
func (r *TextReader) ReadBools(offsets, sizes []int, values []bool) error {
	return r.readSlab(offsets, sizes, &buffer{kind: BoolValues, bools: values})
}

func (r *TextReader) readSlab(offsets, sizes []int, buf *buffer) error {
	if r.closed {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "reader is closed").WithObject(r.shape.name)
	}
	if r.broken {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "reader failed earlier and cannot continue").WithObject(r.shape.name)
	}
	if _, err := r.shape.check(r.cursor, offsets, sizes, buf.len()); err != nil {
		return err
	}

	err := walk(sizes, 0, func(n int) error {
		for i := 0; i < n; i++ {
			tok, err := r.tokens.next()
			if err == io.EOF {
				return fmlerr.New(fmlerr.ErrParseFailed, "resource ended after %d values", buf.pos)
			}
			if err != nil {
				return err
			}
			if err := buf.decode(tok); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.broken = true
		if fe, ok := err.(*fmlerr.Error); ok {
			return fe.WithObject(r.shape.name)
		}
		return fmlerr.New(fmlerr.ErrParseFailed, "read failed: %v", err).WithObject(r.shape.name)
	}
	r.cursor += sizes[0]
	return nil
}

// Close releases the stream. Closing twice is a no-op.
func (r *TextReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.stream.Close(); err != nil {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "close failed: %v", err).WithObject(r.shape.name)
	}
	return nil
}

// tokenizer yields whitespace separated tokens. With a text layout at most
// layout.Count lines are read and each line contributes the Length tokens
// after its first Head tokens. A negative Count reads to the end of the
// resource, skipping blank lines, and a negative Length takes every token
// between Head and Tail.
type tokenizer struct {
	sc      *bufio.Scanner
	layout  *model.TextLayout
	lines   int
	pending []string
}

func (t *tokenizer) next() (string, error) {
	for len(t.pending) == 0 {
		if t.layout != nil && t.layout.Count >= 0 && t.lines >= t.layout.Count {
			return "", io.EOF
		}
		if !t.sc.Scan() {
			if err := t.sc.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		fields := strings.Fields(t.sc.Text())
		if t.layout != nil {
			if t.layout.Count < 0 && len(fields) == 0 {
				continue
			}
			t.lines++
			var err error
			if fields, err = t.window(fields); err != nil {
				return "", err
			}
		}
		t.pending = fields
	}
	tok := t.pending[0]
	t.pending = t.pending[1:]
	return tok, nil
}

func (t *tokenizer) window(fields []string) ([]string, error) {
	head, tail := t.layout.Head, t.layout.Tail
	if t.layout.Length < 0 {
		if len(fields) < head+tail {
			return nil, fmlerr.New(fmlerr.ErrParseFailed, "line has %d values, head and tail need %d", len(fields), head+tail)
		}
		return fields[head : len(fields)-tail], nil
	}
	end := head + t.layout.Length
	if len(fields) < end+tail {
		return nil, fmlerr.New(fmlerr.ErrParseFailed, "line has %d values, need %d", len(fields), end+tail)
	}
	return fields[head:end], nil
}
