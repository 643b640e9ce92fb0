package fsutil

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T, names ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, name := range names {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0o644))
	}
	return fs
}

func TestFindDocuments_Directory(t *testing.T) {
	fs := memFs(t,
		"/docs/b.xml",
		"/docs/a.FIELDML",
		"/docs/sub/c.hcl",
		"/docs/data.txt",
		"/docs/sub/values.bin",
	)

	got, err := FindDocuments(fs, "/docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/a.FIELDML", "/docs/b.xml", "/docs/sub/c.hcl"}, got)
}

func TestFindDocuments_File(t *testing.T) {
	fs := memFs(t, "/docs/data.txt")

	got, err := FindDocuments(fs, "/docs/data.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/data.txt"}, got)
}

func TestFindDocuments_Missing(t *testing.T) {
	_, err := FindDocuments(afero.NewMemMapFs(), "/nowhere")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindFilesByExtension_PanicsWithoutExtension(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = FindFilesByExtension(afero.NewMemMapFs(), "/")
	})
}
