package arrayio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

// Backend is where resource files are opened. Relative resource paths are
// taken relative to Root.
type Backend struct {
	Fs   afero.Fs
	Root string
}

func (b Backend) path(p string) string {
	if filepath.IsAbs(p) || b.Root == "" {
		return p
	}
	return filepath.Join(b.Root, p)
}

func (b Backend) fs() afero.Fs {
	if b.Fs == nil {
		return afero.NewOsFs()
	}
	return b.Fs
}

// inlineStream writes into a resource's inline buffer. Closing it does not
// release the buffer, which belongs to the resource.
type inlineStream struct {
	buf *bytes.Buffer
}

func (s inlineStream) Write(p []byte) (int, error) { return s.buf.Write(p) }
func (s inlineStream) Close() error                { return nil }

func checkFormat(res *model.DataResource) error {
	if res.Format != model.PlainTextFormat {
		return fmlerr.New(fmlerr.ErrUnsupportedIO, "format %q is not supported, only %s", res.Format, model.PlainTextFormat).WithObject(res.Name)
	}
	return nil
}

// openWrite opens res for writing. Unless appendMode is set the previous contents are
// discarded.
func (b Backend) openWrite(res *model.DataResource, appendMode bool) (io.WriteCloser, error) {
	if err := checkFormat(res); err != nil {
		return nil, err
	}
	switch res.Location.Kind {
	case model.LocationInline:
		if res.Location.Inline == nil {
			res.Location.Inline = new(bytes.Buffer)
		}
		if !appendMode {
			res.Location.Inline.Reset()
		}
		return inlineStream{buf: res.Location.Inline}, nil
	case model.LocationFile:
		flag := os.O_CREATE | os.O_WRONLY
		if appendMode {
			flag |= os.O_APPEND
		} else {
			flag |= os.O_TRUNC
		}
		f, err := b.fs().OpenFile(b.path(res.Location.Path), flag, 0o644)
		if err != nil {
			return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "cannot open %s for writing: %v", res.Location.Path, err).WithObject(res.Name)
		}
		return f, nil
	default:
		return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "resource has no %s location", res.Location.Kind).WithObject(res.Name)
	}
}

// openRead opens res for reading.
func (b Backend) openRead(res *model.DataResource) (io.ReadCloser, error) {
	if err := checkFormat(res); err != nil {
		return nil, err
	}
	switch res.Location.Kind {
	case model.LocationInline:
		var data []byte
		if res.Location.Inline != nil {
			data = res.Location.Inline.Bytes()
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	case model.LocationFile:
		f, err := b.fs().Open(b.path(res.Location.Path))
		if err != nil {
			return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "cannot open %s for reading: %v", res.Location.Path, err).WithObject(res.Name)
		}
		if res.Location.Offset > 0 {
			if _, err := f.Seek(res.Location.Offset, io.SeekStart); err != nil {
				f.Close()
				return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "cannot seek %s to %d: %v", res.Location.Path, res.Location.Offset, err).WithObject(res.Name)
			}
		}
		return f, nil
	default:
		return nil, fmlerr.New(fmlerr.ErrUnsupportedIO, "resource has no %s location", res.Location.Kind).WithObject(res.Name)
	}
}
