package gen

// Family selects one of the two shapes synthesized for each record.
type Family uint8

// List of shape families.
const (
	// Lean is the plain-object shape returned by lean queries.
	Lean Family = iota + 1
	// Document is the live-document shape with the framework behavior.
	Document
)

// String implements fmt.Stringer.
func (f Family) String() string {
	switch f {
	case Lean:
		return "lean"
	case Document:
		return "document"
	default:
		return "invalid"
	}
}

// ParseFamily returns the family of the given name.
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "lean", "object":
		return Lean, true
	case "document", "doc":
		return Document, true
	}
	return 0, false
}

// Container selects the rendering of an array or a map.
type Container uint8

// List of containers.
const (
	PlainArray Container = iota + 1
	MongooseArray
	DocumentArray
	PlainMap
	MongooseMap
)

// Expr is a node of the shape IR. The set of implementations is closed.
type Expr interface {
	expr()
}

type (
	// Ident is a named type, either declared or built-in.
	Ident struct {
		Name string
	}

	// Literal is a string or number literal type.
	Literal struct {
		Value  string
		Number bool
	}

	// Array is a sequence of Elem.
	Array struct {
		Elem      Expr
		Container Container
	}

	// Map is a string-keyed map of Elem.
	Map struct {
		Elem      Expr
		Container Container
	}

	// Union is one of Types.
	Union struct {
		Types []Expr
	}

	// Intersection is all of Types.
	Intersection struct {
		Types []Expr
	}

	// Object is a record type with ordered properties.
	Object struct {
		Props []*Prop
	}

	// RefID is the identifier type of a referenced model. An empty Target
	// means the model is unknown and Fallback is used.
	RefID struct {
		Target   string
		Fallback Expr
	}

	// Generic is the instantiation of a generic type.
	Generic struct {
		Name string
		Args []Expr
	}

	// Raw is a type written verbatim, such as a function signature.
	Raw struct {
		Text string
	}
)

// Prop is a property of an Object.
type Prop struct {
	Name     string
	Type     Expr
	Optional bool
	Doc      string
}

func (*Ident) expr()        {}
func (*Literal) expr()      {}
func (*Array) expr()        {}
func (*Map) expr()          {}
func (*Union) expr()        {}
func (*Intersection) expr() {}
func (*Object) expr()       {}
func (*RefID) expr()        {}
func (*Generic) expr()      {}
func (*Raw) expr()          {}

// Prop returns the property with the given name, or nil.
func (o *Object) Prop(name string) *Prop {
	for _, p := range o.Props {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Built-in identifiers.
var (
	anyType     = &Ident{Name: "any"}
	nullType    = &Ident{Name: "null"}
	objectIDRef = &Ident{Name: "mongoose.Types.ObjectId"}
)

// Role describes what a declaration stands for.
type Role uint8

// List of declaration roles, in emission order.
const (
	RoleLeanSubdoc Role = iota + 1
	RoleLean
	RoleObject
	RoleQuery
	RoleQueries
	RoleMethods
	RoleStatics
	RoleModel
	RoleSchema
	RoleSubdoc
	RoleDocument
)

var roleNames = [...]string{
	RoleLeanSubdoc: "lean-subdoc",
	RoleLean:       "lean",
	RoleObject:     "object",
	RoleQuery:      "query",
	RoleQueries:    "queries",
	RoleMethods:    "methods",
	RoleStatics:    "statics",
	RoleModel:      "model",
	RoleSchema:     "schema",
	RoleSubdoc:     "subdoc",
	RoleDocument:   "document",
}

// String implements fmt.Stringer.
func (r Role) String() string {
	if int(r) < len(roleNames) && roleNames[r] != "" {
		return roleNames[r]
	}
	return "invalid"
}

// Placement describes where the record of a subdocument declaration sits
// in its parent.
type Placement uint8

// List of placements.
const (
	PlacedField Placement = iota + 1
	PlacedElement
	PlacedValue
	PlacedNested
)

// Decl is a named type declaration.
type Decl struct {
	Name   string
	Role   Role
	Family Family
	// Model holds the name of the model owning the declaration.
	Model string
	// Path and Placement locate the record of subdocument declarations.
	Path      string
	Placement Placement
	// Doc holds the user documentation of the record, if any.
	Doc  string
	Type Expr
}

// DeclarationSet holds the declarations synthesized for one model and its
// discriminator variants, in emission order.
type DeclarationSet struct {
	Model *Type
	Decls []*Decl
	index map[string]*Decl
}

func newDeclarationSet(t *Type) *DeclarationSet {
	return &DeclarationSet{Model: t, index: make(map[string]*Decl)}
}

func (s *DeclarationSet) add(d *Decl) {
	s.Decls = append(s.Decls, d)
	s.index[d.Name] = d
}

// Lookup returns the declaration with the given name.
func (s *DeclarationSet) Lookup(name string) (*Decl, bool) {
	d, ok := s.index[name]
	return d, ok
}

// Shape returns the model-level declaration of the named model (or variant)
// in the given family.
func (s *DeclarationSet) Shape(model string, f Family) (*Decl, bool) {
	name := model
	if f == Document {
		name += "Document"
	}
	d, ok := s.index[name]
	if !ok || d.Model != model || (d.Role != RoleLean && d.Role != RoleDocument) {
		return nil, false
	}
	return d, true
}
