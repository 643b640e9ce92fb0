package arrayio

import (
	"bytes"
	"strconv"

	"github.com/vk/fieldgo/internal/fmlerr"
)

// ValueKind is the scalar type of a slab buffer.
type ValueKind int

const (
	IntValues ValueKind = iota
	FloatValues
	BoolValues
)

func (k ValueKind) String() string {
	switch k {
	case IntValues:
		return "int"
	case FloatValues:
		return "float"
	case BoolValues:
		return "bool"
	default:
		return "unknown"
	}
}

// buffer is a caller's slab buffer of one scalar kind. It is chosen once
// per call and consumed front to back by the slab traversal.
type buffer struct {
	kind    ValueKind
	ints    []int
	doubles []float64
	bools   []bool
	pos     int
}

func (b *buffer) len() int {
	switch b.kind {
	case IntValues:
		return len(b.ints)
	case FloatValues:
		return len(b.doubles)
	default:
		return len(b.bools)
	}
}

// encode appends the next count values to out, each followed by a space.
func (b *buffer) encode(out *bytes.Buffer, count int) {
	var scratch [32]byte
	for i := 0; i < count; i++ {
		var tok []byte
		switch b.kind {
		case IntValues:
			tok = strconv.AppendInt(scratch[:0], int64(b.ints[b.pos]), 10)
		case FloatValues:
			tok = strconv.AppendFloat(scratch[:0], b.doubles[b.pos], 'g', -1, 64)
		case BoolValues:
			if b.bools[b.pos] {
				tok = append(scratch[:0], '1')
			} else {
				tok = append(scratch[:0], '0')
			}
		}
		out.Write(tok)
		out.WriteByte(' ')
		b.pos++
	}
}

// decode parses tok into the next slot.
func (b *buffer) decode(tok string) error {
	switch b.kind {
	case IntValues:
		v, err := strconv.Atoi(tok)
		if err != nil {
			return fmlerr.New(fmlerr.ErrParseFailed, "token %q is not an integer", tok)
		}
		b.ints[b.pos] = v
	case FloatValues:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmlerr.New(fmlerr.ErrParseFailed, "token %q is not a number", tok)
		}
		b.doubles[b.pos] = v
	case BoolValues:
		switch tok {
		case "1", "true":
			b.bools[b.pos] = true
		case "0", "false":
			b.bools[b.pos] = false
		default:
			return fmlerr.New(fmlerr.ErrParseFailed, "token %q is not a boolean", tok)
		}
	}
	b.pos++
	return nil
}
