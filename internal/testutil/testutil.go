// Package testutil holds helpers shared by the package tests: document
// builders, in-memory filesystems and a context carrying a test logger.
package testutil

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo/internal/ctxlog"
)

// LibraryImport imports library.real.1d as real.1d.
const LibraryImport = `
    <Import xlink:href="library.xml" region="library">
      <ImportType localName="real.1d" remoteName="library.real.1d"/>
    </Import>`

// Fieldml wraps body in a document with a single region.
func Fieldml(region, body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<Fieldml version="0.5" xmlns:xlink="http://www.w3.org/1999/xlink">
  <Region name="` + region + `">
` + body + `
  </Region>
</Fieldml>
`
}

// MemFs returns an in-memory filesystem holding files.
func MemFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Logger returns a debug logger that writes to the test log.
func Logger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Context returns a background context carrying Logger(t).
func Context(t *testing.T) context.Context {
	return ctxlog.WithLogger(context.Background(), Logger(t))
}
