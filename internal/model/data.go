package model

import "bytes"

// PlainTextFormat is the format tag of whitespace-delimited text arrays.
const PlainTextFormat = "PLAIN_TEXT"

// DescriptionKind is the tag of a parameter evaluator's data description.
type DescriptionKind int

const (
	DescriptionUnknown DescriptionKind = iota
	DescriptionSemidense
	DescriptionDenseArray
	DescriptionDOK
)

func (k DescriptionKind) String() string {
	switch k {
	case DescriptionSemidense:
		return "semidense"
	case DescriptionDenseArray:
		return "dense-array"
	case DescriptionDOK:
		return "dok"
	default:
		return "unknown"
	}
}

// DataDescription says how raw values map onto a parameter evaluator's
// output. Which fields are meaningful depends on Kind:
//
//	Semidense:  SparseIndexes, DenseIndexes, DenseOrders, Swizzle, Source
//	DenseArray: DenseIndexes, DenseOrders, Source
//	DOK:        SparseIndexes, DenseIndexes, DenseOrders, KeySource, Source
//
// DenseOrders runs parallel to DenseIndexes and holds Invalid where no order
// evaluator was given.
type DataDescription struct {
	Kind          DescriptionKind
	SparseIndexes []Handle
	DenseIndexes  []Handle
	DenseOrders   []Handle
	Swizzle       []int
	Source        Handle
	KeySource     Handle
}

// AcceptsSparse reports whether sparse index evaluators may be added.
func (d *DataDescription) AcceptsSparse() bool {
	return d.Kind == DescriptionSemidense || d.Kind == DescriptionDOK
}

// AcceptsKeySource reports whether a key data source may be set.
func (d *DataDescription) AcceptsKeySource() bool {
	return d.Kind == DescriptionDOK
}

// IndexCount returns the number of sparse plus dense index evaluators.
func (d *DataDescription) IndexCount() int {
	return len(d.SparseIndexes) + len(d.DenseIndexes)
}

// LocationKind is the tag of a DataLocation.
type LocationKind int

const (
	LocationUnknown LocationKind = iota
	LocationInline
	LocationFile
)

func (k LocationKind) String() string {
	switch k {
	case LocationInline:
		return "inline"
	case LocationFile:
		return "file"
	default:
		return "unknown"
	}
}

// DataLocation says where a resource's bytes live. Inline is used for
// LocationInline; Path and Offset for LocationFile.
type DataLocation struct {
	Kind   LocationKind
	Inline *bytes.Buffer
	Path   string
	Offset int64
}

// DataResource is a store of raw values in a given format.
type DataResource struct {
	Header
	Format   string
	Location DataLocation
}

// TextLayout describes a line-oriented window over a text resource: Count
// lines of Length values starting at FirstLine, ignoring Head leading and
// Tail trailing values on every line.
type TextLayout struct {
	FirstLine int
	Count     int
	Length    int
	Head      int
	Tail      int
}

// DataSource is an N-rank array inside a resource.
type DataSource struct {
	Header
	Resource Handle
	// Location is the format-specific position of the array within the
	// resource. For plain text it is the 1-based first line.
	Location string
	Rank     int
	Sizes    []int
	Text     *TextLayout
}

// NewInlineResource returns a resource whose data lives in memory.
func NewInlineResource(name string, loc Location, format string) *DataResource {
	return &DataResource{
		Header:   NewHeader(KindDataResource, name, loc, false),
		Format:   format,
		Location: DataLocation{Kind: LocationInline, Inline: new(bytes.Buffer)},
	}
}

// NewFileResource returns a resource backed by the file at path.
func NewFileResource(name string, loc Location, format, path string) *DataResource {
	return &DataResource{
		Header:   NewHeader(KindDataResource, name, loc, false),
		Format:   format,
		Location: DataLocation{Kind: LocationFile, Path: path},
	}
}

// NewArraySource returns a data source of the given rank with unset sizes.
func NewArraySource(name string, loc Location, resource Handle, location string, rank int) *DataSource {
	return &DataSource{
		Header:   NewHeader(KindDataSource, name, loc, false),
		Resource: resource,
		Location: location,
		Rank:     rank,
		Sizes:    make([]int, rank),
	}
}

// NewTextSource returns a rank 2 source over Count lines of Length values.
// A negative Count or Length leaves that axis unbounded (size 0).
func NewTextSource(name string, loc Location, resource Handle, layout TextLayout) *DataSource {
	l := layout
	return &DataSource{
		Header:   NewHeader(KindDataSource, name, loc, false),
		Resource: resource,
		Rank:     2,
		Sizes:    []int{max(layout.Count, 0), max(layout.Length, 0)},
		Text:     &l,
	}
}
