package model

import "fmt"

// Handle identifies an object within one session.
type Handle int

// Invalid is returned in place of a handle when an operation fails or an
// optional reference is absent.
const Invalid Handle = -1

// IsValid reports whether h could refer to an object.
func (h Handle) IsValid() bool { return h >= 0 }

// Location says where an object was defined.
type Location int

const (
	InvalidLocation Location = -2
	LibraryLocation Location = -1
	LocalLocation   Location = 0
)

// ImportLocation returns the location of objects brought in by the import
// source with the given index.
func ImportLocation(index int) Location {
	return Location(index + 1)
}

// ImportIndex returns the import source index for an imported location.
func (l Location) ImportIndex() (int, bool) {
	if l <= LocalLocation {
		return 0, false
	}
	return int(l) - 1, true
}

func (l Location) String() string {
	switch {
	case l == LocalLocation:
		return "local"
	case l == LibraryLocation:
		return "library"
	case l > LocalLocation:
		return fmt.Sprintf("import[%d]", int(l)-1)
	default:
		return "invalid"
	}
}

// Kind is the tag of the object union.
type Kind int

const (
	KindUnknown Kind = iota
	KindEnsembleType
	KindContinuousType
	KindMeshType
	KindArgumentEvaluator
	KindExternalEvaluator
	KindReferenceEvaluator
	KindPiecewiseEvaluator
	KindAggregateEvaluator
	KindParameterEvaluator
	KindDataResource
	KindDataSource
)

var kindNames = map[Kind]string{
	KindUnknown:            "Unknown",
	KindEnsembleType:       "EnsembleType",
	KindContinuousType:     "ContinuousType",
	KindMeshType:           "MeshType",
	KindArgumentEvaluator:  "ArgumentEvaluator",
	KindExternalEvaluator:  "ExternalEvaluator",
	KindReferenceEvaluator: "ReferenceEvaluator",
	KindPiecewiseEvaluator: "PiecewiseEvaluator",
	KindAggregateEvaluator: "AggregateEvaluator",
	KindParameterEvaluator: "ParameterEvaluator",
	KindDataResource:       "DataResource",
	KindDataSource:         "DataSource",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsType reports whether k is one of the value type kinds.
func (k Kind) IsType() bool {
	return k == KindEnsembleType || k == KindContinuousType || k == KindMeshType
}

// IsEvaluator reports whether k is one of the evaluator kinds.
func (k Kind) IsEvaluator() bool {
	return k >= KindArgumentEvaluator && k <= KindParameterEvaluator
}

// Header holds the fields shared by every object.
type Header struct {
	Handle   Handle
	Name     string
	Location Location
	Virtual  bool
	Kind     Kind
}

// Head returns the header. It is promoted to every object type.
func (h *Header) Head() *Header { return h }

// Object is any value stored in the registry.
type Object interface {
	Head() *Header
}

// NewHeader returns a header for a not-yet-registered object. The handle is
// assigned by the registry.
func NewHeader(kind Kind, name string, loc Location, virtual bool) Header {
	return Header{Handle: Invalid, Name: name, Location: loc, Virtual: virtual, Kind: kind}
}
