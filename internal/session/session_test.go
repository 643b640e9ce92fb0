package session

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fieldgo/internal/fmlerr"
	"github.com/vk/fieldgo/internal/model"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	return New(Options{Fs: afero.NewMemMapFs(), Root: "/doc"})
}

func must(t *testing.T) func(model.Handle, error) model.Handle {
	return func(h model.Handle, err error) model.Handle {
		t.Helper()
		require.NoError(t, err)
		require.True(t, h.IsValid())
		return h
	}
}

func TestCreate_DuplicateNameConsumesNoHandle(t *testing.T) {
	s := newSession(t)
	must(t)(s.CreateContinuousType("real"))
	before := s.Len()

	h, err := s.CreateEnsembleType("real", false)
	assert.Equal(t, model.Invalid, h)
	assert.ErrorIs(t, err, fmlerr.ErrAlreadyDefined)
	assert.Equal(t, before, s.Len())

	_, err = s.CreateContinuousType("")
	assert.ErrorIs(t, err, fmlerr.ErrMalformedDescription)
}

func TestEnsembleMembers(t *testing.T) {
	cases := []struct {
		name             string
		min, max, stride int
		want             []int
		wantErr          error
	}{
		{name: "unit stride", min: 1, max: 4, stride: 1, want: []int{1, 2, 3, 4}},
		{name: "stride 2", min: 3, max: 9, stride: 2, want: []int{3, 5, 7, 9}},
		{name: "max not on stride", min: 1, max: 8, stride: 3, want: []int{1, 4, 7}},
		{name: "zero stride", min: 1, max: 4, stride: 0, wantErr: fmlerr.ErrMalformedDescription},
		{name: "inverted", min: 5, max: 4, stride: 1, wantErr: fmlerr.ErrMalformedDescription},
		{name: "negative", min: -1, max: 4, stride: 1, wantErr: fmlerr.ErrMalformedDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSession(t)
			h := must(t)(s.CreateEnsembleType("e", false))
			err := s.SetEnsembleMembersRange(h, tc.min, tc.max, tc.stride)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			ens, err := Get[*model.EnsembleType](s, h)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, ens.Members.Slice()); diff != "" {
				t.Errorf("members mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, len(tc.want), ens.MemberCount())
		})
	}
}

func TestEnsembleMembers_Redefine(t *testing.T) {
	s := newSession(t)
	h := must(t)(s.CreateEnsembleType("e", false))
	require.NoError(t, s.SetEnsembleMembersList(h, []int{4, 2, 9}))
	assert.ErrorIs(t, s.SetEnsembleMembersRange(h, 1, 2, 1), fmlerr.ErrAlreadyDefined)

	ens, err := Get[*model.EnsembleType](s, h)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 9}, ens.Members.Slice())

	empty := must(t)(s.CreateEnsembleType("empty", false))
	assert.ErrorIs(t, s.SetEnsembleMembersList(empty, nil), fmlerr.ErrMalformedDescription)
}

func TestComponents(t *testing.T) {
	s := newSession(t)
	real3 := must(t)(s.CreateContinuousType("real.3d"))
	comp := must(t)(s.CreateContinuousTypeComponents(real3, "real.3d.component", 3))

	ens, err := Get[*model.EnsembleType](s, comp)
	require.NoError(t, err)
	assert.True(t, ens.IsComponentEnsemble)
	assert.Equal(t, []int{1, 2, 3}, ens.Members.Slice())

	n, err := s.ComponentCount(real3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.CreateContinuousTypeComponents(real3, "again", 2)
	assert.ErrorIs(t, err, fmlerr.ErrAlreadyDefined)

	_, err = s.CreateContinuousTypeComponents(comp, "bad", 0)
	assert.ErrorIs(t, err, fmlerr.ErrMalformedDescription)
}

func TestMeshShapes(t *testing.T) {
	s := newSession(t)
	mesh := must(t)(s.CreateMeshType("mesh"))
	elems := must(t)(s.CreateMeshElementsType(mesh, ""))
	chart := must(t)(s.CreateMeshChartType(mesh, "mesh.xi"))
	require.NoError(t, s.SetEnsembleMembersRange(elems, 1, 4, 1))

	el, err := Get[*model.EnsembleType](s, elems)
	require.NoError(t, err)
	assert.Equal(t, "mesh.elements", el.Name)
	assert.True(t, el.Virtual)
	assert.Equal(t, mesh, s.MeshOwner(chart))

	_, err = s.CreateMeshChartType(mesh, "other")
	assert.ErrorIs(t, err, fmlerr.ErrAlreadyDefined)

	require.NoError(t, s.SetMeshDefaultShape(mesh, "library.shape.square"))
	require.NoError(t, s.SetMeshElementShape(mesh, 2, "triangle"))
	assert.ErrorIs(t, s.SetMeshElementShape(mesh, 3, "hexagon"), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetMeshElementShape(mesh, 9, "triangle"), fmlerr.ErrMalformedDescription)

	shape, err := s.MeshElementShape(mesh, 2, false)
	require.NoError(t, err)
	assert.Equal(t, "triangle", shape)

	shape, err = s.MeshElementShape(mesh, 1, true)
	require.NoError(t, err)
	assert.Equal(t, "library.shape.square", shape)

	_, err = s.MeshElementShape(mesh, 1, false)
	assert.ErrorIs(t, err, fmlerr.ErrNotFound)

	require.NoError(t, s.RegisterShape("hexagon"))
	assert.NoError(t, s.SetMeshElementShape(mesh, 3, "hexagon"))
	assert.Contains(t, s.Shapes(), "hexagon")
}

// fixture builds a scalar real type, an ensemble of nodes and arguments over
// both.
type fixture struct {
	s      *Session
	real   model.Handle
	nodes  model.Handle
	x      model.Handle
	y      model.Handle
	nodeID model.Handle
}

func newFixture(t *testing.T) fixture {
	s := newSession(t)
	f := fixture{s: s}
	f.real = must(t)(s.CreateContinuousType("real"))
	f.nodes = must(t)(s.CreateEnsembleType("nodes", false))
	require.NoError(t, s.SetEnsembleMembersRange(f.nodes, 1, 3, 1))
	f.x = must(t)(s.CreateArgumentEvaluator("x", f.real))
	f.y = must(t)(s.CreateArgumentEvaluator("y", f.real))
	f.nodeID = must(t)(s.CreateArgumentEvaluator("node", f.nodes))
	return f
}

func TestReferenceBind_DeclaredArguments(t *testing.T) {
	f := newFixture(t)
	s := f.s

	ext := must(t)(s.CreateExternalEvaluator("f", f.real))
	require.NoError(t, s.AddArgument(ext, f.x))
	ref := must(t)(s.CreateReferenceEvaluator("f.at.y", ext))

	ev, err := Get[*model.ReferenceEvaluator](s, ref)
	require.NoError(t, err)
	assert.Equal(t, f.real, ev.ValueType)

	args, err := s.Arguments(ref)
	require.NoError(t, err)
	assert.Equal(t, []model.Handle{f.x}, args)

	// y is not declared by f.
	err = s.SetBind(ref, f.y, f.x)
	assert.ErrorIs(t, err, fmlerr.ErrIncompatibleBind)
	assert.Equal(t, 0, ev.Binds.Len())

	// x is.
	require.NoError(t, s.SetBind(ref, f.x, f.y))
	args, err = s.Arguments(ref)
	require.NoError(t, err)
	assert.Equal(t, []model.Handle{f.y}, args)

	// Value types must match.
	assert.ErrorIs(t, s.SetBind(ref, f.x, f.nodeID), fmlerr.ErrIncompatibleBind)
	// Only argument evaluators can be bound.
	assert.ErrorIs(t, s.SetBind(ref, ext, f.y), fmlerr.ErrIncompatibleBind)
}

func TestReferenceBind_Transitive(t *testing.T) {
	f := newFixture(t)
	s := f.s

	// g declares x; h references g; binding x on a reference to h is valid.
	g := must(t)(s.CreateExternalEvaluator("g", f.real))
	require.NoError(t, s.AddArgument(g, f.x))
	h := must(t)(s.CreateReferenceEvaluator("h", g))
	outer := must(t)(s.CreateReferenceEvaluator("outer", h))
	assert.NoError(t, s.SetBind(outer, f.x, f.y))

	// Once h binds x, x is no longer free below outer2.
	require.NoError(t, s.SetBind(h, f.x, f.y))
	outer2 := must(t)(s.CreateReferenceEvaluator("outer2", h))
	assert.ErrorIs(t, s.SetBind(outer2, f.x, f.y), fmlerr.ErrIncompatibleBind)
}

func TestBind_RejectsCycleAfterResolution(t *testing.T) {
	f := newFixture(t)
	s := f.s

	a := must(t)(s.CreateReferenceEvaluator("a", f.x))
	b := must(t)(s.CreateReferenceEvaluator("b", a))

	// b depends on a; binding b into a would make a depend on b.
	err := s.SetBind(a, f.x, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, fmlerr.ErrRecursiveDefinition)

	ev, err := Get[*model.ReferenceEvaluator](s, a)
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Binds.Len())

	// Self bind is refused too.
	assert.ErrorIs(t, s.SetBind(a, f.x, a), fmlerr.ErrRecursiveDefinition)
}

func TestRebind_ReplacesDependency(t *testing.T) {
	f := newFixture(t)
	s := f.s

	z := must(t)(s.CreateArgumentEvaluator("z", f.real))
	a := must(t)(s.CreateReferenceEvaluator("a", f.x))
	require.NoError(t, s.SetBind(a, f.x, f.y))
	require.NoError(t, s.SetBind(a, f.x, z))

	assert.Equal(t, []model.Handle{f.x, z}, s.Dependencies(a))
	args, err := s.Arguments(a)
	require.NoError(t, err)
	assert.Equal(t, []model.Handle{z}, args)
}

func TestPiecewise(t *testing.T) {
	f := newFixture(t)
	s := f.s

	pw := must(t)(s.CreatePiecewiseEvaluator("pw", f.real))
	branch := must(t)(s.CreateReferenceEvaluator("branch", f.x))

	// Key checks use the principal index once it is known.
	require.NoError(t, s.SetIndexEvaluator(pw, 1, f.nodeID))
	assert.NoError(t, s.SetIndexEvaluator(pw, 1, f.nodeID), "same principal again is fine")
	other := must(t)(s.CreateArgumentEvaluator("other", f.nodes))
	assert.ErrorIs(t, s.SetIndexEvaluator(pw, 1, other), fmlerr.ErrAlreadyDefined)
	assert.ErrorIs(t, s.SetIndexEvaluator(pw, 0, other), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetIndexEvaluator(pw, 1, f.x), fmlerr.ErrTypeMismatch, "not ensemble valued")

	require.NoError(t, s.SetEvaluator(pw, 2, branch))
	assert.ErrorIs(t, s.SetEvaluator(pw, 7, branch), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetEvaluator(pw, 1, f.nodeID), fmlerr.ErrTypeMismatch)
	require.NoError(t, s.SetDefaultEvaluator(pw, f.y))
	require.NoError(t, s.SetIndexEvaluator(pw, 2, other))

	ev, err := Get[*model.PiecewiseEvaluator](s, pw)
	require.NoError(t, err)
	assert.Equal(t, f.nodeID, ev.IndexEvaluator)
	assert.Equal(t, map[int]model.Handle{2: branch}, map[int]model.Handle(ev.Evaluators))
	assert.Equal(t, f.y, ev.Default)
	assert.Equal(t, other, ev.IndexEvaluators[2])

	args, err := s.Arguments(pw)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Handle{f.x, f.y, f.nodeID, other}, args)

	// Bind the node argument away.
	n2 := must(t)(s.CreateArgumentEvaluator("n2", f.nodes))
	require.NoError(t, s.SetBind(pw, f.nodeID, n2))
	args, err = s.Arguments(pw)
	require.NoError(t, err)
	assert.NotContains(t, args, f.nodeID)
	assert.Contains(t, args, n2)
}

func TestAggregate(t *testing.T) {
	f := newFixture(t)
	s := f.s

	vec := must(t)(s.CreateContinuousType("vec"))
	comp := must(t)(s.CreateContinuousTypeComponents(vec, "vec.component", 2))
	cArg := must(t)(s.CreateArgumentEvaluator("vec.component.arg", comp))

	agg := must(t)(s.CreateAggregateEvaluator("agg", vec))
	require.NoError(t, s.SetIndexEvaluator(agg, 1, cArg))
	require.NoError(t, s.SetEvaluator(agg, 1, f.x))
	require.NoError(t, s.SetEvaluator(agg, 2, f.y))
	assert.ErrorIs(t, s.SetEvaluator(agg, 3, f.y), fmlerr.ErrMalformedDescription)

	scalarAgg := must(t)(s.CreateAggregateEvaluator("scalar.agg", f.real))
	assert.ErrorIs(t, s.SetEvaluator(scalarAgg, 1, f.x), fmlerr.ErrMalformedDescription)

	assert.ErrorIs(t, s.SetEvaluator(f.x, 1, f.y), fmlerr.ErrTypeMismatch)
}

func TestParameterDescription(t *testing.T) {
	f := newFixture(t)
	s := f.s

	res := must(t)(s.CreateInlineResource("res", ""))
	values := must(t)(s.CreateArrayDataSource("values", res, "1", 1))
	keys := must(t)(s.CreateArrayDataSource("keys", res, "2", 2))

	p := must(t)(s.CreateParameterEvaluator("p", f.real))
	assert.ErrorIs(t, s.SetDataSource(p, values), fmlerr.ErrMalformedDescription, "no description yet")

	require.NoError(t, s.SetParameterDataDescription(p, model.DescriptionSemidense))
	require.NoError(t, s.SetDataSource(p, values))
	require.NoError(t, s.AddDenseIndexEvaluator(p, f.nodeID, model.Invalid))

	err := s.SetParameterDataDescription(p, model.DescriptionDOK)
	assert.ErrorIs(t, err, fmlerr.ErrAlreadyDefined)

	ev, err := Get[*model.ParameterEvaluator](s, p)
	require.NoError(t, err)
	assert.Equal(t, model.DescriptionSemidense, ev.Description.Kind)
	assert.Equal(t, values, ev.Description.Source)
	assert.Equal(t, []model.Handle{f.nodeID}, ev.Description.DenseIndexes)

	assert.ErrorIs(t, s.SetKeyDataSource(p, keys), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetDataSource(p, f.x), fmlerr.ErrTypeMismatch)
	assert.ErrorIs(t, s.AddDenseIndexEvaluator(p, f.x, model.Invalid), fmlerr.ErrTypeMismatch)
	assert.ErrorIs(t, s.AddDenseIndexEvaluator(p, f.nodeID, f.x), fmlerr.ErrTypeMismatch, "order must range over the index ensemble")

	args, err := s.Arguments(p)
	require.NoError(t, err)
	assert.Equal(t, []model.Handle{f.nodeID}, args)
}

func TestParameterDescription_DOKAndDense(t *testing.T) {
	f := newFixture(t)
	s := f.s
	res := must(t)(s.CreateInlineResource("res", ""))
	src := must(t)(s.CreateArrayDataSource("src", res, "1", 1))
	elements := must(t)(s.CreateEnsembleType("elements", false))
	require.NoError(t, s.SetEnsembleMembersRange(elements, 1, 2, 1))
	elemArg := must(t)(s.CreateArgumentEvaluator("element", elements))

	dok := must(t)(s.CreateParameterEvaluator("dok", f.real))
	require.NoError(t, s.SetParameterDataDescription(dok, model.DescriptionDOK))
	require.NoError(t, s.SetKeyDataSource(dok, src))
	require.NoError(t, s.AddSparseIndexEvaluator(dok, elemArg))
	require.NoError(t, s.AddDenseIndexEvaluator(dok, f.nodeID, model.Invalid))

	// Index 2 is the first dense index.
	other := must(t)(s.CreateArgumentEvaluator("other", f.nodes))
	require.NoError(t, s.SetIndexEvaluator(dok, 2, other))
	ev, err := Get[*model.ParameterEvaluator](s, dok)
	require.NoError(t, err)
	assert.Equal(t, []model.Handle{other}, ev.Description.DenseIndexes)
	assert.Equal(t, []model.Handle{elemArg}, ev.Description.SparseIndexes)
	assert.ErrorIs(t, s.SetIndexEvaluator(dok, 3, other), fmlerr.ErrMalformedDescription)

	dense := must(t)(s.CreateParameterEvaluator("dense", f.real))
	require.NoError(t, s.SetParameterDataDescription(dense, model.DescriptionDenseArray))
	assert.ErrorIs(t, s.AddSparseIndexEvaluator(dense, elemArg), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetSwizzle(dense, []int{1}), fmlerr.ErrMalformedDescription)
}

func TestSetSwizzle(t *testing.T) {
	f := newFixture(t)
	s := f.s
	p := must(t)(s.CreateParameterEvaluator("p", f.real))
	require.NoError(t, s.SetParameterDataDescription(p, model.DescriptionSemidense))
	require.NoError(t, s.AddDenseIndexEvaluator(p, f.nodeID, model.Invalid))
	other := must(t)(s.CreateArgumentEvaluator("other", f.nodes))
	require.NoError(t, s.AddDenseIndexEvaluator(p, other, model.Invalid))

	require.NoError(t, s.SetSwizzle(p, []int{2, 1}))
	assert.ErrorIs(t, s.SetSwizzle(p, []int{1, 1}), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetSwizzle(p, []int{1}), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetSwizzle(p, []int{0, 1}), fmlerr.ErrMalformedDescription)

	ev, err := Get[*model.ParameterEvaluator](s, p)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, ev.Description.Swizzle)
}

func TestSetEnsembleMembersRange_Limits(t *testing.T) {
	s := newSession(t)

	sparse := must(t)(s.CreateEnsembleType("sparse", false))
	require.NoError(t, s.SetEnsembleMembersRange(sparse, 0, 1<<30, 1<<29))
	e, err := Get[*model.EnsembleType](s, sparse)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1 << 29, 1 << 30}, e.Members.Slice())
	assert.Equal(t, 3, e.Def.Count)

	huge := must(t)(s.CreateEnsembleType("huge", false))
	assert.ErrorIs(t, s.SetEnsembleMembersRange(huge, 0, math.MaxInt, 1), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetEnsembleMembersRange(huge, 1, MaxRangeMembers+1, 1), fmlerr.ErrMalformedDescription)
	require.NoError(t, s.SetEnsembleMembersRange(huge, math.MaxInt-4, math.MaxInt, 2))
	e, err = Get[*model.EnsembleType](s, huge)
	require.NoError(t, err)
	assert.Equal(t, []int{math.MaxInt - 4, math.MaxInt - 2, math.MaxInt}, e.Members.Slice())
}

func TestLoadEnsembleMembers(t *testing.T) {
	s := newSession(t)
	res := must(t)(s.CreateInlineResource("res", ""))
	require.NoError(t, s.AppendInlineData(res, "1 5 2\n10 12 1\n"))
	src := must(t)(s.CreateArrayDataSource("ranges", res, "1", 2))
	require.NoError(t, s.SetArrayDataSourceSizes(src, []int{2, 3}))

	ens := must(t)(s.CreateEnsembleType("e", false))
	require.NoError(t, s.SetEnsembleMembersData(ens, model.MembersStrideRangeData, 2, src))

	e, err := Get[*model.EnsembleType](s, ens)
	require.NoError(t, err)
	assert.False(t, e.Loaded)
	assert.Equal(t, 2, e.MemberCount())

	require.NoError(t, s.LoadEnsembleMembers(ens))
	assert.True(t, e.Loaded)
	assert.Equal(t, []int{1, 3, 5, 10, 11, 12}, e.Members.Slice())

	// Loading again is a no-op.
	assert.NoError(t, s.LoadEnsembleMembers(ens))
}

func TestLoadEnsembleMembers_List(t *testing.T) {
	s := newSession(t)
	res := must(t)(s.CreateInlineResource("res", ""))
	require.NoError(t, s.AppendInlineData(res, "4 8 15 16\n"))
	src := must(t)(s.CreateArrayDataSource("list", res, "", 1))

	ens := must(t)(s.CreateEnsembleType("e", false))
	require.NoError(t, s.SetEnsembleMembersData(ens, model.MembersListData, 3, src))
	require.NoError(t, s.LoadEnsembleMembers(ens))

	e, err := Get[*model.EnsembleType](s, ens)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8, 15}, e.Members.Slice())

	bad := must(t)(s.CreateEnsembleType("bad", false))
	assert.ErrorIs(t, s.SetEnsembleMembersData(bad, model.MembersRange, 3, src), fmlerr.ErrMalformedDescription)
	assert.ErrorIs(t, s.SetEnsembleMembersData(bad, model.MembersListData, 3, res), fmlerr.ErrTypeMismatch)
}

func TestCreateTextDataSource_Window(t *testing.T) {
	s := newSession(t)
	res := must(t)(s.CreateInlineResource("res", ""))

	free := must(t)(s.CreateTextDataSource("free", res, model.TextLayout{FirstLine: 1, Count: -1, Length: -1}))
	src, err := Get[*model.DataSource](s, free)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, src.Sizes, "unbounded axes")

	for _, l := range []model.TextLayout{
		{FirstLine: 1, Count: 0, Length: 3},
		{FirstLine: 1, Count: 2, Length: -2},
		{FirstLine: 0, Count: 1, Length: 1},
		{FirstLine: 1, Count: 1, Length: 1, Head: -1},
	} {
		_, err := s.CreateTextDataSource("bad", res, l)
		assert.ErrorIs(t, err, fmlerr.ErrMalformedDescription, "layout %+v", l)
	}
}

func TestLoadEnsembleMembers_FreeTextSource(t *testing.T) {
	s := newSession(t)
	res := must(t)(s.CreateInlineResource("res", ""))
	require.NoError(t, s.AppendInlineData(res, "2 4\n\n6 8\n"))
	src := must(t)(s.CreateTextDataSource("ids", res, model.TextLayout{FirstLine: 1, Count: -1, Length: -1}))

	ens := must(t)(s.CreateEnsembleType("e", false))
	require.NoError(t, s.SetEnsembleMembersData(ens, model.MembersListData, 3, src))
	require.NoError(t, s.LoadEnsembleMembers(ens))

	e, err := Get[*model.EnsembleType](s, ens)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, e.Members.Slice())
}

func TestCreateReferenceEvaluator_TracksSource(t *testing.T) {
	s := newSession(t)
	rt := must(t)(s.CreateContinuousType("real"))
	x := must(t)(s.CreateArgumentEvaluator("x", rt))
	ref := must(t)(s.CreateReferenceEvaluator("ref", x))

	args, err := s.Arguments(ref)
	require.NoError(t, err)
	assert.Equal(t, []model.Handle{x}, args)

	before := s.Len()
	_, err = s.CreateReferenceEvaluator("ref", x)
	assert.ErrorIs(t, err, fmlerr.ErrAlreadyDefined)
	assert.Equal(t, before, s.Len())
}

func TestOpenArrayWriter_FileResource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/doc", 0o755))
	s := New(Options{Fs: fs, Root: "/doc"})

	res := must(t)(s.CreateFileResource("res", "", "out.txt"))
	src := must(t)(s.CreateArrayDataSource("src", res, "1", 1))
	require.NoError(t, s.SetArrayDataSourceSizes(src, []int{3}))

	w, err := s.OpenArrayWriter(src, false)
	require.NoError(t, err)
	require.NoError(t, w.WriteFloats([]int{0}, []int{3}, []float64{0.5, 1, 2.25}))
	require.NoError(t, w.Close())

	data, err := afero.ReadFile(fs, "/doc/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "0.5 1 2.25 \n", string(data))

	r, err := s.OpenArrayReader(src)
	require.NoError(t, err)
	defer r.Close()
	got := make([]float64, 3)
	require.NoError(t, r.ReadFloats([]int{0}, []int{3}, got))
	assert.Equal(t, []float64{0.5, 1, 2.25}, got)

	other := must(t)(s.CreateFileResource("hdf", "HDF5", "out.h5"))
	otherSrc := must(t)(s.CreateArrayDataSource("h5src", other, "/data", 1))
	_, err = s.OpenArrayWriter(otherSrc, false)
	assert.ErrorIs(t, err, fmlerr.ErrUnsupportedIO)
}

func TestImports(t *testing.T) {
	s := newSession(t)

	idx, loc, fresh := s.AddImportSource("other.xml", "other")
	assert.True(t, fresh)
	assert.Equal(t, model.ImportLocation(0), loc)

	var remote model.Handle
	require.NoError(t, s.Within(loc, func() error {
		var err error
		remote, err = s.CreateContinuousType("X")
		return err
	}))

	h, err := s.ImportType(idx, "Y", "X")
	require.NoError(t, err)
	assert.Equal(t, remote, h)

	byName, err := s.Lookup("Y")
	require.NoError(t, err)
	assert.Equal(t, remote, byName)

	_, err = s.ImportEvaluator(idx, "Z", "X")
	assert.ErrorIs(t, err, fmlerr.ErrTypeMismatch)
	_, err = s.ImportType(idx, "W", "missing")
	assert.ErrorIs(t, err, fmlerr.ErrNotFound)
	_, err = s.ImportType(5, "W", "X")
	assert.ErrorIs(t, err, fmlerr.ErrInvalidHandle)

	_, again, fresh := s.AddImportSource("other.xml", "other")
	assert.False(t, fresh)
	assert.Equal(t, loc, again)

	_, libLoc, fresh := s.AddImportSource("library.xml", "library")
	assert.True(t, fresh)
	assert.Equal(t, model.LibraryLocation, libLoc)
	_, libLoc, fresh = s.AddImportSource("library", "lib")
	assert.False(t, fresh)
	assert.Equal(t, model.LibraryLocation, libLoc)

	require.Len(t, s.Imports(), 1)
	assert.Equal(t, "Y", s.Imports()[0].LocalName)
}

func TestRollback(t *testing.T) {
	f := newFixture(t)
	s := f.s
	cp := s.Checkpoint()

	a := must(t)(s.CreateReferenceEvaluator("a", f.x))
	s.AddImportSource("other.xml", "other")
	s.Rollback(cp)

	_, err := s.Object(a)
	assert.ErrorIs(t, err, fmlerr.ErrInvalidHandle)
	_, err = s.Lookup("a")
	assert.ErrorIs(t, err, fmlerr.ErrNotFound)
	assert.Empty(t, s.ImportSources())
	assert.Empty(t, s.Dependencies(a))

	b := must(t)(s.CreateReferenceEvaluator("a", f.x))
	assert.Greater(t, b, a, "handles are not reused")
}
