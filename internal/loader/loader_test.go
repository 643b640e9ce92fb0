package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo/internal/config"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/markup"
	"github.com/vk/fieldgo/internal/schema"
	"github.com/vk/fieldgo/internal/testutil"
)

func newLoader(t *testing.T, files map[string]string) *FileLoader {
	t.Helper()
	return New(config.Options{Fs: testutil.MemFs(t, files), Root: "/docs"})
}

func TestLoad_Library(t *testing.T) {
	l := newLoader(t, nil)

	for _, href := range []string{"library.xml", "library"} {
		doc, err := l.Load(context.Background(), "", href)
		require.NoError(t, err)
		assert.Equal(t, "", doc.Path)
		assert.Equal(t, "", doc.Dir())

		region := markup.Child(doc.Root, "Region")
		require.NotNil(t, region)
		assert.Equal(t, "library", markup.AttrOr(region, "name", ""))
	}
}

func TestLibrary_PassesSchema(t *testing.T) {
	l := newLoader(t, nil)
	doc, err := l.Load(context.Background(), "", "library.xml")
	require.NoError(t, err)

	assert.NoError(t, schema.Validate(doc.Root))
}

func TestLoad_RelativeToDocumentDir(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/docs/sub/child.xml": `<Fieldml><Region name="child"/></Fieldml>`,
	})

	doc, err := l.Load(context.Background(), "/docs/sub", "child.xml")
	require.NoError(t, err)
	assert.Equal(t, "/docs/sub/child.xml", doc.Path)
	assert.Equal(t, "/docs/sub", doc.Dir())

	// Without a directory the loader root is used.
	doc, err = l.Load(context.Background(), "", "sub/child.xml")
	require.NoError(t, err)
	assert.Equal(t, "/docs/sub/child.xml", doc.Path)
}

func TestLoad_HCLByExtension(t *testing.T) {
	l := newLoader(t, map[string]string{
		"/docs/mesh.hcl": `
region "mesh" {
  ensemble_type "nodes" {
    members {
      member_range {
        min = 1
        max = 4
      }
    }
  }
}
`,
	})

	doc, err := l.Load(context.Background(), "", "mesh.hcl")
	require.NoError(t, err)
	assert.Equal(t, "Fieldml", doc.Root.Tag())
	region := markup.Child(doc.Root, "Region")
	require.NotNil(t, region)
	ens := markup.Child(region, "EnsembleType")
	require.NotNil(t, ens)
	assert.Equal(t, "nodes", markup.AttrOr(ens, "name", ""))
	rng := markup.Child(markup.Child(ens, "Members"), "MemberRange")
	require.NotNil(t, rng)
	assert.Equal(t, "4", markup.AttrOr(rng, "max", ""))
}

func TestLoad_Missing(t *testing.T) {
	l := newLoader(t, nil)

	_, err := l.Load(context.Background(), "", "absent.xml")
	assert.ErrorIs(t, err, fmlerr.ErrNotFound)
}

func TestLoad_Malformed(t *testing.T) {
	l := newLoader(t, map[string]string{"/docs/bad.xml": `<Fieldml><Region>`})

	_, err := l.Load(context.Background(), "", "bad.xml")
	assert.ErrorIs(t, err, fmlerr.ErrParseFailed)
}
