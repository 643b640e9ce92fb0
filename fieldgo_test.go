package fieldgo_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo"
	"github.com/vk/fieldgo/internal/testutil"
)

var paramsDoc = testutil.Fieldml("params", testutil.LibraryImport+`
    <EnsembleType name="nodes">
      <Members>
        <MemberRange min="1" max="3"/>
      </Members>
    </EnsembleType>
    <ArgumentEvaluator name="nodes.argument" valueType="nodes"/>
    <TextInlineResource name="values.resource">
      <TextString>0.25 0.5 0.75</TextString>
      <TextDataSource name="values" firstLine="1" count="1" length="3"/>
    </TextInlineResource>
    <ParameterEvaluator name="weights" valueType="real.1d">
      <DenseArrayData data="values">
        <DenseIndexes>
          <IndexEvaluator evaluator="nodes.argument"/>
        </DenseIndexes>
      </DenseArrayData>
    </ParameterEvaluator>`)

func localNames(s *fieldgo.Session) []string {
	var names []string
	s.Each(func(obj fieldgo.Object) bool {
		if h := obj.Head(); h.Location == fieldgo.LocalLocation && h.Name != "" {
			names = append(names, h.Name)
		}
		return true
	})
	return names
}

func TestLoadString_ReadsInlineArray(t *testing.T) {
	s, err := fieldgo.LoadString(context.Background(), paramsDoc, fieldgo.Options{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	assert.Equal(t, "params", s.Region())

	src, err := s.Lookup("values")
	require.NoError(t, err)
	r, err := s.OpenArrayReader(src)
	require.NoError(t, err)
	defer r.Close()

	got := make([]float64, 3)
	require.NoError(t, r.ReadFloats([]int{0, 0}, []int{1, 3}, got))
	assert.Equal(t, []float64{0.25, 0.5, 0.75}, got)
}

func TestLoadFile_ImportRelativeToDocument(t *testing.T) {
	main := testutil.Fieldml("main", `
    <Import xlink:href="parts/nodes.xml" region="parts">
      <ImportType localName="local.nodes" remoteName="nodes"/>
    </Import>
    <ArgumentEvaluator name="n" valueType="local.nodes"/>`)
	part := testutil.Fieldml("parts", `
    <EnsembleType name="nodes">
      <Members>
        <MemberList>1 2 5</MemberList>
      </Members>
    </EnsembleType>`)
	fs := testutil.MemFs(t, map[string]string{
		"/models/main.xml":        main,
		"/models/parts/nodes.xml": part,
	})

	s, err := fieldgo.LoadFile(context.Background(), "/models/main.xml", fieldgo.Options{Fs: fs})
	require.NoError(t, err)

	h, err := s.Lookup("local.nodes")
	require.NoError(t, err)
	obj, err := s.Object(h)
	require.NoError(t, err)
	assert.Equal(t, "nodes", obj.Head().Name)
	assert.NotEqual(t, fieldgo.LocalLocation, obj.Head().Location)
	assert.Equal(t, []string{"n"}, localNames(s))
}

func TestWriteXML_RoundTrip(t *testing.T) {
	ctx := context.Background()
	opts := fieldgo.Options{Fs: afero.NewMemMapFs()}
	s, err := fieldgo.LoadString(ctx, paramsDoc, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fieldgo.WriteXML(&buf, s, ""))

	again, err := fieldgo.LoadString(ctx, buf.String(), opts)
	require.NoError(t, err, buf.String())
	assert.ElementsMatch(t, localNames(s), localNames(again))
	assert.Equal(t, s.Region(), again.Region())
}

func TestLoadString_Errors(t *testing.T) {
	ctx := context.Background()
	opts := fieldgo.Options{Fs: afero.NewMemMapFs()}

	_, err := fieldgo.LoadString(ctx, testutil.Fieldml("loop", testutil.LibraryImport+`
    <ReferenceEvaluator name="a" evaluator="b"/>
    <ReferenceEvaluator name="b" evaluator="a"/>`), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fieldgo.ErrRecursiveDefinition))
	var nodeErr *fieldgo.NodeError
	assert.True(t, errors.As(err, &nodeErr))

	_, err = fieldgo.LoadString(ctx, "<Fieldml>", opts)
	assert.ErrorIs(t, err, fieldgo.ErrParseFailed)
}
