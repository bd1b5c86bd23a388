// Package methods holds the static schema table for the bot platform's
// method surface: name, required/optional parameters, JSON-Schema
// fragments per parameter, and the flags (destination-scoped,
// cacheable, uploadable) that drive the pipeline without per-method
// code paths.
//
// DESIGN: modeled as an immutable map from method name to Descriptor,
// per spec.md §9 ("Schema table... no classes, no inheritance").
// The pipeline, validator, and upload encoder all consume this table
// as read-only data.
package methods

import "time"

// UploadKind describes how an uploadable parameter's value is shaped.
type UploadKind int

const (
	// UploadSingle means the parameter itself is a file reference.
	UploadSingle UploadKind = iota
	// UploadArrayOfObjects means the parameter is an array of objects,
	// each carrying a nested file-bearing field (e.g. sticker arrays).
	UploadArrayOfObjects
	// UploadNestedObject means the parameter is a single object with
	// nested file-bearing fields (e.g. a profile-photo object with
	// sticker/photo/animation sub-fields).
	UploadNestedObject
)

// UploadSlot names an uploadable parameter and, for the nested shapes,
// the sub-field(s) within each element/object that carry the file.
type UploadSlot struct {
	Name        string
	Kind        UploadKind
	NestedField string // used when Kind == UploadArrayOfObjects; an UploadNestedObject slot checks every string sub-field
}

// ParamSchema is a JSON-Schema-like fragment for a single parameter.
// Only the fields relevant to §4.H's lenient validator are modeled.
type ParamSchema struct {
	Type     string   // "string", "integer", "number", "boolean", "array", "object"
	Enum     []string // allowed values, if non-empty
	Min      *float64 // inclusive minimum, for integer/number
	Max      *float64 // inclusive maximum, for integer/number
	Items    *ParamSchema
	// Object nested field schemas (passthrough for anything not listed).
	Properties map[string]*ParamSchema
}

// CrossFieldRule expresses a §4.H cross-field requirement: at least one
// of the named field groups must be fully present. A group is
// satisfied if every field it names is present in the params map.
type CrossFieldRule struct {
	Description string
	AnyOf       [][]string
}

// Descriptor is the complete, static description of one method.
type Descriptor struct {
	Name       string
	Required   []string
	Optional   []string
	Schemas    map[string]*ParamSchema // parameter name -> schema fragment

	DestinationScoped bool
	DestinationField  string // parameter name carrying the destination id, usually "chat_id"

	Cacheable bool
	CacheTTL  time.Duration

	Uploads []UploadSlot

	CrossField []CrossFieldRule
}

// Table is the immutable name -> Descriptor mapping, built once at
// package init from the entries in table.go.
var Table = buildTable()

// Lookup returns the descriptor for a method name, or nil if the
// method is unknown to the static table. Per §4.H, an unknown method is
// not an error at this layer — the caller decides how to treat it.
func Lookup(name string) *Descriptor {
	return Table[name]
}
