package field

import (
	"strconv"
	"strings"
)

// A Kind is the structural kind of a schema field.
type Kind uint8

// List of field kinds.
const (
	KindInvalid Kind = iota
	KindPrimitive
	KindArray
	KindMap
	KindEmbedded
	KindSubdocument
	KindReference
	KindUnion
)

var kindNames = [...]string{
	KindInvalid:     "invalid",
	KindPrimitive:   "primitive",
	KindArray:       "array",
	KindMap:         "map",
	KindEmbedded:    "embedded-object",
	KindSubdocument: "subdocument",
	KindReference:   "reference",
	KindUnion:       "discriminated-union",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Container reports if the kind wraps another field (array or map).
func (k Kind) Container() bool { return k == KindArray || k == KindMap }

// Record reports if the kind holds an ordered set of named fields.
func (k Kind) Record() bool { return k == KindEmbedded || k == KindSubdocument }

// A Type is the semantic type of a primitive field.
type Type uint8

// List of primitive types.
const (
	TypeInvalid Type = iota
	TypeString
	TypeNumber
	TypeBoolean
	TypeDate
	TypeBuffer
	TypeDecimal128
	TypeObjectID
	TypeMixed
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:    "invalid",
	TypeString:     "string",
	TypeNumber:     "number",
	TypeBoolean:    "boolean",
	TypeDate:       "date",
	TypeBuffer:     "binary",
	TypeDecimal128: "decimal128",
	TypeObjectID:   "objectid",
	TypeMixed:      "mixed",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports if the type is a known primitive type.
func (t Type) Valid() bool { return t > TypeInvalid && t < endTypes }

// Identifier reports if values of this type identify a document.
func (t Type) Identifier() bool { return t == TypeObjectID }

// names maps lowercase type names, as written in definitions, to their kind and type.
var names = map[string]struct {
	kind Kind
	typ  Type
}{
	"string":     {KindPrimitive, TypeString},
	"number":     {KindPrimitive, TypeNumber},
	"boolean":    {KindPrimitive, TypeBoolean},
	"bool":       {KindPrimitive, TypeBoolean},
	"date":       {KindPrimitive, TypeDate},
	"buffer":     {KindPrimitive, TypeBuffer},
	"decimal128": {KindPrimitive, TypeDecimal128},
	"objectid":   {KindPrimitive, TypeObjectID},
	"mixed":      {KindPrimitive, TypeMixed},
	"object":     {KindPrimitive, TypeMixed},
	"map":        {KindMap, TypeMixed},
	"array":      {KindArray, TypeMixed},
}

// prefixes are stripped from type names before lookup, longest first.
var prefixes = []string{
	"mongoose.schema.types.",
	"mongoose.types.",
	"schema.types.",
	"types.",
	"mongoose.",
}

// Lookup resolves a type name as written in a schema definition. For "Map"
// and "Array" it returns the container kind with TypeMixed as the element
// type. The last result is false for unrecognized names.
func Lookup(name string) (Kind, Type, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			key = strings.TrimPrefix(key, p)
			break
		}
	}
	v, ok := names[key]
	if !ok {
		return KindInvalid, TypeInvalid, false
	}
	return v.kind, v.typ, true
}
