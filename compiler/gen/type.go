package gen

import (
	"strconv"
	"strings"

	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/schema/field"
)

// The following types are built by the walker and consumed by the
// synthesizer to produce the declaration sets.
type (
	// Type represents one model of the graph, the fields it holds and
	// the functions attached to it.
	Type struct {
		schema *load.Schema
		// Name holds the model name.
		Name string
		// Pos holds the position of the model in its source.
		Pos string
		// Root is the record of the model fields. Its kind is always
		// field.KindEmbedded. For discriminator variants it holds only the
		// fields declared by the variant.
		Root *Node
		// Methods, Statics and Queries hold the functions attached to the
		// documents, the model and the queries, in declaration order.
		Methods []*Func
		Statics []*Func
		Queries []*Func
		// Virtuals holds the computed properties of the model.
		Virtuals []*Virtual
		// Discriminators holds the variants of the model.
		Discriminators []*Type
		// Base links a discriminator variant to the model it extends.
		Base *Type
		// Key and Value hold the discriminator key and the value tagging
		// this variant. Both are empty for models that are not variants.
		Key   string
		Value string
		// ID indicates that documents carry an implicit _id.
		ID bool
		// Timestamps holds the names of the automatic timestamp fields.
		Timestamps load.Timestamps
	}

	// Node is one field of a schema, recursively defined.
	Node struct {
		// Name holds the field name. Array elements and map values carry the
		// name of their container.
		Name string
		// Kind holds the structural kind of the field.
		Kind field.Kind
		// Type holds the semantic type of a primitive field.
		Type field.Type
		// Required and Nullable are independent. A field can be optional,
		// nullable, both, or neither.
		Required bool
		Nullable bool
		// NoDefault indicates an array whose implicit empty default was
		// disabled, which makes it optional.
		NoDefault bool
		// Elem holds the contained value of arrays and maps.
		Elem *Node
		// Fields holds the fields of records in declaration order.
		Fields []*Node
		// Ref holds the name of the referenced model. Empty means the
		// target is unknown.
		Ref string
		// RefType holds the referenced model, if it is declared in the graph.
		RefType *Type
		// Enums holds the literal values the field is restricted to.
		Enums []Enum
		// Doc holds the documentation of the field, verbatim.
		Doc string
		// Path holds the dotted path of the field from the model root.
		Path string
		// TypeName holds the synthesized name of named records.
		TypeName string
		// ID indicates that a subdocument carries an implicit _id.
		ID bool
		// Single indicates a subdocument that is the direct value of a field,
		// rather than an array element or a map value.
		Single bool
		// Unknown indicates the walker fell back to an unconstrained type.
		Unknown bool
		// Base, Variants and Key describe a discriminated union. Each
		// variant holds only its own fields and Tag holds its discriminator
		// value.
		Base     *Node
		Variants []*Node
		Key      string
		Tag      string

		// noID records an explicit "_id: false" on the definition.
		noID bool
		// in holds the kind of the container of array elements and map values.
		in field.Kind
	}

	// Enum is a literal value of an enum field.
	Enum struct {
		Value  string
		Number bool
	}

	// Func is a method, static or query helper.
	Func struct {
		Name      string
		Signature string
		Doc       string
	}

	// Virtual is a computed property.
	Virtual struct {
		Name string
		Get  string
		Set  string
		Doc  string
	}
)

// IsVariant reports if the model is a discriminator variant.
func (t *Type) IsVariant() bool { return t.Base != nil }

// Document returns the name of the live-document declaration of the model.
func (t *Type) Document() string { return t.Name + "Document" }

// Family returns the names of all declarations derived from the model.
// In framework-free mode, only the plain-object shape and its alias exist.
func (t *Type) Family(noMongoose bool) []string {
	if noMongoose {
		return []string{t.Name, t.Name + "Object"}
	}
	names := make([]string, 0, 9)
	for _, s := range []string{"", "Object", "Query", "Queries", "Methods", "Statics", "Model", "Schema", "Document"} {
		names = append(names, t.Name+s)
	}
	return names
}

// Label returns a short description of the model used in logs.
func (t *Type) Label() string {
	if t.Base != nil {
		return t.Base.Name + "." + t.Name
	}
	return t.Name
}

// Named reports if the node is emitted as its own declaration.
func (n *Node) Named() bool { return n.TypeName != "" }

// Record reports if the node holds an ordered set of fields.
func (n *Node) Record() bool { return n.Kind.Record() }

// Field returns the direct field with the given name, or nil.
func (n *Node) Field(name string) *Node {
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Children returns the nodes directly contained by n, in order.
func (n *Node) Children() []*Node {
	switch n.Kind {
	case field.KindArray, field.KindMap:
		if n.Elem != nil {
			return []*Node{n.Elem}
		}
	case field.KindEmbedded, field.KindSubdocument:
		return n.Fields
	case field.KindUnion:
		return append([]*Node{n.Base}, n.Variants...)
	}
	return nil
}

// Walk calls fn for n and its descendants in post-order: children before
// their parent, siblings in declaration order.
func (n *Node) Walk(fn func(*Node)) {
	for _, c := range n.Children() {
		c.Walk(fn)
	}
	fn(n)
}

// Segments returns the path segments of the node.
func (n *Node) Segments() []string {
	if n.Path == "" {
		return nil
	}
	return strings.Split(n.Path, ".")
}

// Literal returns the enum value as written in a declaration.
func (e Enum) Literal() string {
	if e.Number {
		return e.Value
	}
	return strconv.Quote(e.Value)
}
