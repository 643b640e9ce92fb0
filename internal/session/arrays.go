package session

import (
	"github.com/vk/fieldgo/internal/arrayio"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

func (s *Session) sourceAndResource(source model.Handle) (*model.DataSource, *model.DataResource, error) {
	src, err := Get[*model.DataSource](s, source)
	if err != nil {
		return nil, nil, err
	}
	res, err := Get[*model.DataResource](s, src.Resource)
	if err != nil {
		return nil, nil, err
	}
	return src, res, nil
}

// OpenArrayWriter opens a writer on source. Without appendMode the
// resource's previous contents are discarded. The caller must Close it.
func (s *Session) OpenArrayWriter(source model.Handle, appendMode bool) (*arrayio.TextWriter, error) {
	src, res, err := s.sourceAndResource(source)
	if err != nil {
		return nil, err
	}
	w, err := s.backend.NewTextWriter(res, src, appendMode)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Opened array writer.", "source", src.Name, "resource", res.Name, "append", appendMode)
	return w, nil
}

// OpenArrayReader opens a reader on source. The caller must Close it.
func (s *Session) OpenArrayReader(source model.Handle) (*arrayio.TextReader, error) {
	src, res, err := s.sourceAndResource(source)
	if err != nil {
		return nil, err
	}
	r, err := s.backend.NewTextReader(res, src)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Opened array reader.", "source", src.Name, "resource", res.Name)
	return r, nil
}

// LoadEnsembleMembers reads the members of an ensemble whose members are
// stored in a data source. It does nothing for other ensembles and for
// members already loaded.
func (s *Session) LoadEnsembleMembers(h model.Handle) (err error) {
	ens, err := Get[*model.EnsembleType](s, h)
	if err != nil {
		return err
	}
	if !ens.Def.Kind.IsData() || ens.Loaded {
		return nil
	}

	width := map[model.MembersKind]int{
		model.MembersListData:        1,
		model.MembersRangeData:       2,
		model.MembersStrideRangeData: 3,
	}[ens.Def.Kind]
	need := ens.Def.Count * width

	src, err := Get[*model.DataSource](s, ens.Def.Source)
	if err != nil {
		return err
	}
	sizes := membersSlab(src.Sizes, need)
	total := 1
	for _, n := range sizes {
		total *= n
	}
	if total < need {
		return fmlerr.New(fmlerr.ErrMalformedDescription, "source %q holds %d values, %d needed", src.Name, total, need).WithObject(ens.Name)
	}

	r, err := s.OpenArrayReader(ens.Def.Source)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	values := make([]int, total)
	if err := r.ReadInts(make([]int, len(sizes)), sizes, values); err != nil {
		return withName(err, ens.Name)
	}
	values = values[:need]

	var m model.Members
	for i := 0; i < need; i += width {
		switch width {
		case 1:
			if values[i] < 0 {
				return fmlerr.New(fmlerr.ErrMalformedDescription, "member %d is negative", values[i]).WithObject(ens.Name)
			}
			m.Add(values[i])
		case 2, 3:
			stride := 1
			if width == 3 {
				stride = values[i+2]
			}
			if err := checkRange(values[i], values[i+1], stride); err != nil {
				return err.WithObject(ens.Name)
			}
			m.AddRange(values[i], values[i+1], stride)
		}
	}
	ens.Members = m
	ens.Loaded = true
	s.logger.Debug("Loaded ensemble members.", "ensemble", ens.Name, "count", m.Len())
	return nil
}

// membersSlab returns the slab sizes that cover need values of a source.
// Unbounded axes (size 0) are sized to fit: the innermost unbounded axis
// takes the rest and the others read one entry.
func membersSlab(declared []int, need int) []int {
	sizes := append([]int(nil), declared...)
	last := -1
	for i := len(sizes) - 1; i >= 0; i-- {
		if sizes[i] == 0 {
			last = i
			break
		}
	}
	if last < 0 {
		return sizes
	}
	others := 1
	for i, n := range sizes {
		if i == last {
			continue
		}
		if n == 0 {
			sizes[i] = 1
		}
		others *= sizes[i]
	}
	sizes[last] = (need + others - 1) / others
	return sizes
}
