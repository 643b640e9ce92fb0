package arrayio

import (
	"bytes"
	"io"

	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// TextWriter appends slabs of a plain text array source.
type TextWriter struct {
	shape  shape
	stream io.WriteCloser
	cursor int
	// rows ends every innermost run with a newline, so a text layout source
	// reads back one row per line.
	rows   bool
	closed bool
}

// NewTextWriter opens the stream of res for src. Format and open failures
// are reported here, never on the first write.
func (b Backend) NewTextWriter(res *model.DataResource, src *model.DataSource, appendMode bool) (*TextWriter, error) {
	sh, err := shapeOf(src)
	if err != nil {
		return nil, err
	}
	if l := src.Text; l != nil {
		if l.Head > 0 || l.Tail > 0 {
			return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "cannot write a text window with head or tail columns").WithObject(src.Name)
		}
		if l.FirstLine > 1 && !appendMode {
			return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "text window starts at line %d, only appending can reach it", l.FirstLine).WithObject(src.Name)
		}
	}
	stream, err := b.openWrite(res, appendMode)
	if err != nil {
		return nil, err
	}
	return &TextWriter{shape: sh, stream: stream, rows: src.Text != nil}, nil
}

// Cursor returns the next axis 0 offset the writer accepts.
func (w *TextWriter) Cursor() int { return w.cursor }

// WriteInts writes an integer slab.
func (w *TextWriter) WriteInts(offsets, sizes []int, values []int) error {
	return w.writeSlab(offsets, sizes, &buffer{kind: IntValues, ints: values})
}

// WriteFloats writes a floating point slab.
func (w *TextWriter) WriteFloats(offsets, sizes []int, values []float64) error {
	return w.writeSlab(offsets, sizes, &buffer{kind: FloatValues, doubles: values})
}

// WriteBools writes a boolean slab as 1 and 0 tokens.
func (w *TextWriter) WriteBools(offsets, sizes []int, values []bool) error {
	return w.writeSlab(offsets, sizes, &buffer{kind: BoolValues, bools: values})
}

// writeSlab renders the whole slab before touching the stream, so a rejected
// or failed call leaves both the stream and the cursor as they were.
func (w *TextWriter) writeSlab(offsets, sizes []int, buf *buffer) error {
	if w.closed {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "writer is closed").WithObject(w.shape.name)
	}
	if _, err := w.shape.check(w.cursor, offsets, sizes, buf.len()); err != nil {
		return err
	}

	var out bytes.Buffer
	err := walk(sizes, 0, func(n int) error {
		buf.encode(&out, n)
		if w.rows {
			out.WriteByte('\n')
		}
		return nil
	})
	if err != nil {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "encode failed: %v", err).WithObject(w.shape.name)
	}
	if _, err := w.stream.Write(out.Bytes()); err != nil {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "write failed: %v", err).WithObject(w.shape.name)
	}
	w.cursor += sizes[0]
	return nil
}

// Close terminates the output with a newline and releases the stream. Row
// output is already newline terminated. Closing twice is a no-op.
func (w *TextWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	var werr error
	if !w.rows {
		_, werr = io.WriteString(w.stream, "\n")
	}
	cerr := w.stream.Close()
	if werr != nil {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "write failed: %v", werr).WithObject(w.shape.name)
	}
	if cerr != nil {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "close failed: %v", cerr).WithObject(w.shape.name)
	}
	return nil
}
