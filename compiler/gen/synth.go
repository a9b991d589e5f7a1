package gen

import (
	"github.com/syssam/shapegen/schema/field"
)

// synth builds the declaration set of one model.
type synth struct {
	g   *Graph
	set *DeclarationSet
}

// synthesize builds the declarations of t and its variants, and checks that
// the two families of every record agree.
func (g *Graph) synthesize(t *Type) (*DeclarationSet, error) {
	s := &synth{g: g, set: newDeclarationSet(t)}
	s.model(t)
	for _, v := range t.Discriminators {
		s.model(v)
	}
	if !g.NoMongoose {
		if err := CheckDetach(s.set); err != nil {
			return nil, err
		}
	}
	return s.set, nil
}

func (s *synth) model(t *Type) {
	named := records(t.Root)
	for _, r := range named {
		s.set.add(s.subdoc(t, r.node, Lean))
	}
	s.set.add(&Decl{Name: t.Name, Role: RoleLean, Family: Lean, Model: t.Name, Type: s.shape(t, Lean)})
	s.set.add(&Decl{Name: t.Name + "Object", Role: RoleObject, Family: Lean, Model: t.Name, Type: &Ident{Name: t.Name}})
	if s.g.NoMongoose {
		return
	}
	var (
		doc     = &Ident{Name: t.Document()}
		query   = &Ident{Name: t.Name + "Query"}
		queries = &Ident{Name: t.Name + "Queries"}
		methods = &Ident{Name: t.Name + "Methods"}
		statics = &Ident{Name: t.Name + "Statics"}
		model   = &Ident{Name: t.Name + "Model"}
	)
	s.set.add(&Decl{Name: query.Name, Role: RoleQuery, Model: t.Name, Type: &Intersection{Types: []Expr{
		&Generic{Name: "mongoose.Query", Args: []Expr{anyType, doc, queries}},
		queries,
	}}})
	s.set.add(&Decl{Name: queries.Name, Role: RoleQueries, Model: t.Name, Type: s.funcs(t, t.Queries, "Queries", "(this: "+query.Name+", ...args: any[]) => "+query.Name)})
	s.set.add(&Decl{Name: methods.Name, Role: RoleMethods, Model: t.Name, Type: s.funcs(t, t.Methods, "Methods", "(this: "+doc.Name+", ...args: any[]) => any")})
	s.set.add(&Decl{Name: statics.Name, Role: RoleStatics, Model: t.Name, Type: s.funcs(t, t.Statics, "Statics", "(this: "+model.Name+", ...args: any[]) => any")})
	s.set.add(&Decl{Name: model.Name, Role: RoleModel, Model: t.Name, Type: &Intersection{Types: []Expr{
		&Generic{Name: "mongoose.Model", Args: []Expr{doc, queries}},
		statics,
	}}})
	s.set.add(&Decl{Name: t.Name + "Schema", Role: RoleSchema, Model: t.Name, Type: &Generic{
		Name: "mongoose.Schema",
		Args: []Expr{doc, model, methods},
	}})
	for _, r := range named {
		s.set.add(s.subdoc(t, r.node, Document))
	}
	s.set.add(&Decl{Name: doc.Name, Role: RoleDocument, Family: Document, Model: t.Name, Type: s.shape(t, Document)})
}

// shape returns the model-level shape of t in the given family.
func (s *synth) shape(t *Type, f Family) Expr {
	obj := &Object{}
	if t.Base != nil {
		obj.Props = append(obj.Props, &Prop{Name: t.Key, Type: &Literal{Value: t.Value}})
	}
	s.fields(obj, t.Root, f)
	if name := t.Timestamps.CreatedAt; name != "" && t.Root.Field(name) == nil {
		obj.Props = append(obj.Props, &Prop{Name: name, Type: s.date(f), Optional: true})
	}
	if name := t.Timestamps.UpdatedAt; name != "" && t.Root.Field(name) == nil {
		obj.Props = append(obj.Props, &Prop{Name: name, Type: s.date(f), Optional: true})
	}
	if t.ID {
		obj.Props = append(obj.Props, &Prop{Name: "_id", Type: s.objectID()})
	}
	for _, v := range t.Virtuals {
		var typ Expr = anyType
		if v.Get != "" {
			typ = &Raw{Text: v.Get}
		}
		obj.Props = append(obj.Props, &Prop{Name: v.Name, Type: typ, Doc: v.Doc})
	}
	switch {
	case t.Base != nil && f == Lean:
		return &Intersection{Types: []Expr{&Ident{Name: t.Base.Name}, obj}}
	case t.Base != nil:
		return &Intersection{Types: []Expr{
			&Ident{Name: t.Base.Document()},
			&Ident{Name: t.Name + "Methods"},
			obj,
		}}
	case f == Lean:
		return obj
	default:
		return &Intersection{Types: []Expr{
			&Generic{Name: "mongoose.Document", Args: []Expr{objectIDRef, &Ident{Name: t.Name + "Queries"}}},
			&Ident{Name: t.Name + "Methods"},
			obj,
		}}
	}
}

// funcs returns the functions object of t. Variants extend the functions of
// their base.
func (s *synth) funcs(t *Type, fs []*Func, suffix, signature string) Expr {
	obj := &Object{Props: make([]*Prop, 0, len(fs))}
	for _, fn := range fs {
		sig := fn.Signature
		if sig == "" {
			sig = signature
		}
		obj.Props = append(obj.Props, &Prop{Name: fn.Name, Type: &Raw{Text: sig}, Doc: fn.Doc})
	}
	if t.Base != nil {
		return &Intersection{Types: []Expr{&Ident{Name: t.Base.Name + suffix}, obj}}
	}
	return obj
}

// subdoc returns the declaration of a named record in the given family.
func (s *synth) subdoc(t *Type, n *Node, f Family) *Decl {
	d := &Decl{
		Name:      n.TypeName,
		Role:      RoleLeanSubdoc,
		Family:    f,
		Model:     t.Name,
		Path:      n.Path,
		Placement: placement(n),
		Doc:       n.Doc,
	}
	if f == Document {
		d.Name += "Document"
		d.Role = RoleSubdoc
	}
	obj := &Object{}
	if n.Tag != "" {
		obj.Props = append(obj.Props, &Prop{Name: s.key(t, n), Type: &Literal{Value: n.Tag}})
	}
	s.fields(obj, n, f)
	if n.ID {
		obj.Props = append(obj.Props, &Prop{Name: "_id", Type: s.objectID()})
	}
	switch {
	case n.Tag != "":
		d.Type = &Intersection{Types: []Expr{&Ident{Name: s.base(t, n).TypeName + suffix(f)}, obj}}
	case f == Lean || n.Kind == field.KindEmbedded:
		d.Type = obj
	case n.Single:
		d.Type = &Intersection{Types: []Expr{
			&Generic{Name: "mongoose.Document", Args: []Expr{objectIDRef, &Ident{Name: "unknown"}, &Ident{Name: n.TypeName}}},
			obj,
		}}
	default:
		d.Type = &Intersection{Types: []Expr{&Ident{Name: "mongoose.Types.Subdocument"}, obj}}
	}
	return d
}

func placement(n *Node) Placement {
	switch {
	case n.Kind == field.KindEmbedded:
		return PlacedNested
	case n.in == field.KindArray:
		return PlacedElement
	case n.in == field.KindMap:
		return PlacedValue
	default:
		return PlacedField
	}
}

// union returns the union holding the variant n.
func (s *synth) union(t *Type, n *Node) *Node {
	var u *Node
	t.Root.Walk(func(c *Node) {
		if c.Kind != field.KindUnion {
			return
		}
		for _, v := range c.Variants {
			if v == n {
				u = c
			}
		}
	})
	return u
}

func (s *synth) key(t *Type, n *Node) string {
	if u := s.union(t, n); u != nil {
		return u.Key
	}
	return t.Key
}

func (s *synth) base(t *Type, n *Node) *Node {
	if u := s.union(t, n); u != nil {
		return u.Base
	}
	return n
}

func suffix(f Family) string {
	if f == Document {
		return "Document"
	}
	return ""
}

// fields appends the properties of the fields of n.
func (s *synth) fields(obj *Object, n *Node, f Family) {
	for _, c := range n.Fields {
		obj.Props = append(obj.Props, &Prop{
			Name:     c.Name,
			Type:     s.nullable(c, s.expr(c, f)),
			Optional: optional(c),
			Doc:      c.Doc,
		})
	}
}

// optional reports if the property of n may be missing. Arrays default to
// empty and nested objects always exist, unless stated otherwise.
func optional(n *Node) bool {
	switch {
	case n.Required:
		return false
	case n.Kind == field.KindArray:
		return n.NoDefault
	case n.Kind == field.KindEmbedded:
		return false
	default:
		return true
	}
}

func (s *synth) nullable(n *Node, x Expr) Expr {
	if !n.Nullable {
		return x
	}
	if u, ok := x.(*Union); ok {
		return &Union{Types: append(append([]Expr(nil), u.Types...), nullType)}
	}
	return &Union{Types: []Expr{x, nullType}}
}

// expr returns the type of n in the given family.
func (s *synth) expr(n *Node, f Family) Expr {
	switch n.Kind {
	case field.KindPrimitive:
		if len(n.Enums) > 0 {
			u := &Union{Types: make([]Expr, len(n.Enums))}
			for i, e := range n.Enums {
				u.Types[i] = &Literal{Value: e.Value, Number: e.Number}
			}
			return u
		}
		return s.primitive(n.Type, f)
	case field.KindArray:
		elem := s.nullable(n.Elem, s.expr(n.Elem, f))
		c := PlainArray
		if f == Document {
			c = MongooseArray
			if k := n.Elem.Kind; k == field.KindSubdocument || k == field.KindUnion {
				c = DocumentArray
			}
		}
		return &Array{Elem: elem, Container: c}
	case field.KindMap:
		c := PlainMap
		if f == Document {
			c = MongooseMap
		}
		return &Map{Elem: s.nullable(n.Elem, s.expr(n.Elem, f)), Container: c}
	case field.KindReference:
		return s.ref(n, f)
	case field.KindSubdocument:
		return &Ident{Name: n.TypeName + suffix(f)}
	case field.KindEmbedded:
		if n.Named() {
			return &Ident{Name: n.TypeName + suffix(f)}
		}
		obj := &Object{}
		s.fields(obj, n, f)
		return obj
	case field.KindUnion:
		u := &Union{Types: []Expr{&Ident{Name: n.Base.TypeName + suffix(f)}}}
		for _, v := range n.Variants {
			u.Types = append(u.Types, &Ident{Name: v.TypeName + suffix(f)})
		}
		return u
	default:
		return anyType
	}
}

func (s *synth) primitive(t field.Type, f Family) Expr {
	switch t {
	case field.TypeString:
		return &Ident{Name: "string"}
	case field.TypeNumber:
		return &Ident{Name: "number"}
	case field.TypeBoolean:
		return &Ident{Name: "boolean"}
	case field.TypeDate:
		return s.date(f)
	case field.TypeBuffer:
		if f == Document && !s.g.NoMongoose {
			return &Ident{Name: "mongoose.Types.Buffer"}
		}
		return &Ident{Name: "Buffer"}
	case field.TypeDecimal128:
		if f == Document && !s.g.NoMongoose {
			return &Ident{Name: "mongoose.Types.Decimal128"}
		}
		return &Ident{Name: "number"}
	case field.TypeObjectID:
		return s.objectID()
	default:
		return anyType
	}
}

func (s *synth) date(f Family) Expr {
	if f == Lean && s.g.DatesAsStrings {
		return &Ident{Name: "string"}
	}
	return &Ident{Name: "Date"}
}

func (s *synth) objectID() Expr {
	if s.g.NoMongoose {
		return &Ident{Name: "string"}
	}
	return objectIDRef
}

// ref returns the type of a reference: the identifier of the target or the
// target itself, once populated. Unknown targets populate to any.
func (s *synth) ref(n *Node, f Family) Expr {
	t := n.RefType
	if t != nil {
		if _, ok := s.g.Model(t.Name); !ok {
			t = nil
		}
	}
	if t == nil {
		return &Union{Types: []Expr{&RefID{Fallback: s.primitive(n.Type, f)}, anyType}}
	}
	name := t.Name + suffix(f)
	id := &RefID{Target: name, Fallback: s.primitive(n.Type, f)}
	if !hasID(t) {
		id.Target = ""
	}
	return &Union{Types: []Expr{id, &Ident{Name: name}}}
}

// hasID reports if the documents of t carry an _id, declared or implicit.
func hasID(t *Type) bool {
	for t.Base != nil {
		t = t.Base
	}
	return t.ID || (t.Root != nil && t.Root.Field("_id") != nil)
}
