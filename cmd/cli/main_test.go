package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo/internal/cli"
)

const validDoc = `<?xml version="1.0" encoding="UTF-8"?>
<Fieldml version="0.5">
  <Region name="cube">
    <EnsembleType name="nodes">
      <Members>
        <MemberRange min="1" max="8"/>
      </Members>
    </EnsembleType>
    <ArgumentEvaluator name="nodes.argument" valueType="nodes"/>
  </Region>
</Fieldml>
`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600), "failed to set up test file")
	return path
}

func TestRun_Summary(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "cube.xml", validDoc)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, errOut, []string{path})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Region:   cube")
	require.Contains(t, out.String(), "nodes.argument")
}

func TestRun_ParseFailure(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, "broken.xml", `<Fieldml><Region name="x">`)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(out, errOut, []string{"-log-format", "json", path})

	require.Error(t, err)
	require.Contains(t, err.Error(), path)
	require.Contains(t, errOut.String(), "Document rejected.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	err := run(out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(&bytes.Buffer{}, &bytes.Buffer{}, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
