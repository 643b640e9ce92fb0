package testutil

import (
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo/internal/ctxlog"
)

func TestMemFs(t *testing.T) {
	fs := MemFs(t, map[string]string{"/a/b.xml": Fieldml("r", LibraryImport)})

	data, err := afero.ReadFile(fs, "/a/b.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), `<Region name="r">`)
	assert.Contains(t, string(data), `remoteName="library.real.1d"`)
}

func TestContext(t *testing.T) {
	ctx := Context(t)
	assert.NotSame(t, slog.Default(), ctxlog.FromContext(ctx))
	ctxlog.FromContext(ctx).Debug("Logged through the test writer.")
}
