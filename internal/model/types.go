package model

// MembersKind says how an ensemble's member set was specified.
type MembersKind int

const (
	MembersUnknown MembersKind = iota
	MembersRange
	MembersList
	MembersListData
	MembersRangeData
	MembersStrideRangeData
)

func (k MembersKind) String() string {
	switch k {
	case MembersRange:
		return "range"
	case MembersList:
		return "list"
	case MembersListData:
		return "list-data"
	case MembersRangeData:
		return "range-data"
	case MembersStrideRangeData:
		return "stride-range-data"
	default:
		return "unknown"
	}
}

// IsData reports whether the members are read from a data source.
func (k MembersKind) IsData() bool {
	return k == MembersListData || k == MembersRangeData || k == MembersStrideRangeData
}

// MembersDef records the member specification of an ensemble as given.
// Min, Max and Stride apply to MembersRange; Count and Source to the data
// kinds.
type MembersDef struct {
	Kind   MembersKind
	Min    int
	Max    int
	Stride int
	Count  int
	Source Handle
}

// EnsembleType is a finite set of positive integer members.
type EnsembleType struct {
	Header
	IsComponentEnsemble bool
	Def                 MembersDef
	Members             Members
	// Loaded is false for data-defined members until they have been read.
	Loaded        bool
	ComponentType Handle
}

// MemberCount returns the number of members, using the declared count for
// data-defined members that have not been loaded.
func (e *EnsembleType) MemberCount() int {
	if e.Def.Kind.IsData() && !e.Loaded {
		return e.Def.Count
	}
	return e.Members.Len()
}

// ContinuousType is a real-valued type, optionally with components.
type ContinuousType struct {
	Header
	ComponentType Handle
}

// MeshType owns a chart type and an elements type, and maps elements to
// shape names.
type MeshType struct {
	Header
	ChartType    Handle
	ElementsType Handle
	Shapes       map[int]string
	DefaultShape string
}

// NewEnsembleType returns an ensemble with no members.
func NewEnsembleType(name string, loc Location, component, virtual bool) *EnsembleType {
	return &EnsembleType{
		Header:              NewHeader(KindEnsembleType, name, loc, virtual),
		IsComponentEnsemble: component,
		Def:                 MembersDef{Source: Invalid},
		ComponentType:       Invalid,
	}
}

// NewContinuousType returns a scalar continuous type.
func NewContinuousType(name string, loc Location, virtual bool) *ContinuousType {
	return &ContinuousType{
		Header:        NewHeader(KindContinuousType, name, loc, virtual),
		ComponentType: Invalid,
	}
}

// NewMeshType returns a mesh without chart or elements.
func NewMeshType(name string, loc Location) *MeshType {
	return &MeshType{
		Header:       NewHeader(KindMeshType, name, loc, false),
		ChartType:    Invalid,
		ElementsType: Invalid,
		Shapes:       make(map[int]string),
	}
}
