package arrayio

import (
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// shape is the declared layout of a source as seen by a writer or reader.
type shape struct {
	name  string
	rank  int
	sizes []int
}

func shapeOf(src *model.DataSource) (shape, error) {
	if src.Rank < 1 {
		return shape{}, fmlerr.New(fmlerr.ErrMalformedDescription, "rank %d is not positive", src.Rank).WithObject(src.Name)
	}
	if len(src.Sizes) != src.Rank {
		return shape{}, fmlerr.New(fmlerr.ErrMalformedDescription, "%d sizes given for rank %d", len(src.Sizes), src.Rank).WithObject(src.Name)
	}
	return shape{name: src.Name, rank: src.Rank, sizes: append([]int(nil), src.Sizes...)}, nil
}

// check validates a slab request against the declared shape and the axis 0
// cursor. It returns the number of scalars the slab holds.
func (s shape) check(cursor int, offsets, sizes []int, have int) (int, error) {
	fail := func(format string, args ...any) (int, error) {
		return 0, fmlerr.New(fmlerr.ErrUnsupportedIO, format, args...).WithObject(s.name)
	}
	if len(offsets) != s.rank || len(sizes) != s.rank {
		return fail("slab has %d offsets and %d sizes, source rank is %d", len(offsets), len(sizes), s.rank)
	}
	if offsets[0] != cursor {
		return fail("slab starts at %d but the cursor is at %d", offsets[0], cursor)
	}
	if sizes[0] < 0 {
		return fail("negative size %d on axis 0", sizes[0])
	}
	if s.sizes[0] > 0 && cursor+sizes[0] > s.sizes[0] {
		return fail("slab ends at %d, past declared size %d", cursor+sizes[0], s.sizes[0])
	}
	count := sizes[0]
	for i := 1; i < s.rank; i++ {
		if offsets[i] != 0 {
			return fail("offset %d on axis %d, inner axes must start at 0", offsets[i], i)
		}
		if sizes[i] < 0 {
			return fail("negative size %d on axis %d", sizes[i], i)
		}
		// A declared size of 0 leaves the axis unbounded.
		if s.sizes[i] > 0 && sizes[i] != s.sizes[i] {
			return fail("size %d on axis %d, inner axes must be full (%d)", sizes[i], i, s.sizes[i])
		}
		count *= sizes[i]
	}
	if have < count {
		return fail("buffer holds %d values, slab needs %d", have, count)
	}
	return count, nil
}

// walk visits the slab in row-major order, calling leaf once per innermost
// run with the run length.
func walk(sizes []int, depth int, leaf func(n int) error) error {
	if depth == len(sizes)-1 {
		return leaf(sizes[depth])
	}
	for i := 0; i < sizes[depth]; i++ {
		if err := walk(sizes, depth+1, leaf); err != nil {
			return err
		}
	}
	return nil
}
