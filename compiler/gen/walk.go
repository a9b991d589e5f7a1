package gen

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/schema/field"
)

// walker converts raw field definitions into Node trees. It never fails on
// a field: unrecognized definitions fall back to field.TypeMixed.
type walker struct {
	model  string
	lookup func(string) *Type
	log    zerolog.Logger
}

// root walks the fields of a model into its root record.
func (w *walker) root(t *Type, fields *load.Value) (*Node, error) {
	root := &Node{Kind: field.KindEmbedded}
	switch {
	case fields.IsNull():
	case fields.IsMapping():
		root.noID = w.record(root, fields)
	default:
		return nil, NewSchemaError(t.Name, "", fmt.Sprintf("fields must be a mapping, got %s", fields), nil)
	}
	return root, nil
}

// walk converts the definition of the field name at path. The comment
// attached to the field key is used as documentation unless the definition
// carries its own.
func (w *walker) walk(name, path string, v *load.Value, comment string) *Node {
	n := &Node{Name: name, Path: path}
	w.def(n, v)
	if n.Doc == "" {
		n.Doc = comment
	}
	return n
}

func (w *walker) def(n *Node, v *load.Value) {
	switch {
	case v.IsNull():
		w.unknown(n, "empty definition")
	case v.IsScalar():
		w.scalar(n, v.Scalar)
	case v.IsSequence():
		w.array(n, v)
	case len(v.Entries) == 0:
		mixed(n)
	case v.Has("$schema"):
		w.schema(n, v)
	case isOptions(v):
		w.options(n, v)
	default:
		n.Kind = field.KindEmbedded
		n.noID = w.record(n, v)
	}
}

// isOptions reports if the mapping is a field options object, as opposed
// to a nested object with a field named "type".
func isOptions(v *load.Value) bool {
	t := v.Get("type")
	return t != nil && !(t.IsMapping() && t.Has("type"))
}

// record walks the entries of v into the fields of n. It reports if the
// entries disable the implicit _id with "_id: false".
func (w *walker) record(n *Node, v *load.Value) (noID bool) {
	for _, e := range v.Entries {
		if e.Key == "_id" {
			if b, ok := e.Value.Bool(); ok {
				noID = !b
				continue
			}
		}
		n.Fields = append(n.Fields, w.walk(e.Key, join(n.Path, e.Key), e.Value, e.Comment))
	}
	return noID
}

func (w *walker) scalar(n *Node, name string) {
	kind, typ, ok := field.Lookup(name)
	if !ok {
		w.unknown(n, fmt.Sprintf("unknown type %q", name))
		return
	}
	switch kind {
	case field.KindArray, field.KindMap:
		n.Kind = kind
		n.Elem = w.elem(n, nil)
	default:
		n.Kind = field.KindPrimitive
		n.Type = typ
	}
}

func (w *walker) array(n *Node, v *load.Value) {
	n.Kind = field.KindArray
	if len(v.Items) == 0 {
		n.Elem = w.elem(n, nil)
		return
	}
	if len(v.Items) > 1 {
		w.log.Warn().Str("model", w.model).Str("path", n.Path).Msg("array definition holds more than one element type, using the first")
	}
	n.Elem = w.elem(n, v.Items[0])
}

// elem walks the element of an array or the value of a map. Objects inside
// containers are promoted to subdocuments, as they need their own identity.
func (w *walker) elem(parent *Node, v *load.Value) *Node {
	e := &Node{Name: parent.Name, Path: parent.Path, in: parent.Kind}
	if v == nil {
		mixed(e)
		return e
	}
	w.def(e, v)
	switch e.Kind {
	case field.KindEmbedded:
		e.Kind = field.KindSubdocument
		e.ID = !e.noID && e.Field("_id") == nil
	case field.KindSubdocument:
		e.Single = false
	}
	return e
}

// schema walks a nested schema instance: {$schema: {...}, $options: {...}}.
func (w *walker) schema(n *Node, v *load.Value) {
	n.Kind = field.KindSubdocument
	n.Single = true
	if s := v.Get("$schema"); s.IsMapping() {
		n.noID = w.record(n, s)
	}
	if id, ok := v.Get("$options").Get("_id").Bool(); ok && !id {
		n.noID = true
	}
	n.ID = !n.noID && n.Field("_id") == nil
}

func (w *walker) options(n *Node, v *load.Value) {
	switch t := v.Get("type"); {
	case t.IsMapping() && len(t.Entries) > 0 && !t.Has("$schema"):
		// A plain object as type declares a single nested subdocument.
		n.Kind = field.KindSubdocument
		n.Single = true
		n.noID = w.record(n, t)
		n.ID = !n.noID && n.Field("_id") == nil
	default:
		w.def(n, t)
	}
	if of := v.Get("of"); of != nil && n.Kind.Container() {
		n.Elem = w.elem(n, of)
	}
	if r := v.Get("required"); r != nil {
		n.Required = required(r)
	}
	if b, ok := v.Get("nullable").Bool(); ok {
		n.Nullable = b
	}
	if e := v.Get("enum"); e != nil {
		w.enum(n, e)
	}
	if v.Has("ref") || v.Has("refPath") {
		w.ref(n, v)
	}
	if d := v.Entry("default"); d != nil && d.Value.IsNull() && n.Kind == field.KindArray {
		n.NoDefault = true
	}
	if doc := v.Get("doc").Text(); doc != "" {
		n.Doc = doc
	}
	if id, ok := v.Get("_id").Bool(); ok {
		if sub := subdocument(n); sub != nil {
			sub.noID = !id
			sub.ID = id && sub.Field("_id") == nil
		}
	}
	if d := v.Get("discriminators"); d != nil {
		w.union(n, v, d)
	}
}

// required evaluates the "required" option. Validator functions cannot be
// evaluated and leave the field optional.
func required(v *load.Value) bool {
	if v.IsSequence() && len(v.Items) > 0 {
		v = v.Items[0]
	}
	b, _ := v.Bool()
	return b
}

func (w *walker) enum(n *Node, v *load.Value) {
	if v.IsMapping() {
		v = v.Get("values")
	}
	target := n
	if n.Kind == field.KindArray {
		target = n.Elem
	}
	if !v.IsSequence() || target.Kind != field.KindPrimitive {
		w.log.Warn().Str("model", w.model).Str("path", n.Path).Msg("ignoring enum on a non-primitive field")
		return
	}
	for _, item := range v.Items {
		switch {
		case item.IsNull():
			target.Nullable = true
		case item.IsScalar():
			target.Enums = append(target.Enums, Enum{
				Value:  item.Scalar,
				Number: item.Tag == "!!int" || item.Tag == "!!float" || (target.Type == field.TypeNumber && isNumber(item.Scalar)),
			})
		}
	}
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// ref turns the primitive at the bottom of n into a reference. A ref that
// is not a model name (a function or a refPath) leaves the target unknown.
func (w *walker) ref(n *Node, v *load.Value) {
	target := n
	for target.Kind.Container() && target.Elem != nil {
		target = target.Elem
	}
	if target.Kind != field.KindPrimitive {
		w.log.Warn().Str("model", w.model).Str("path", n.Path).Msgf("ignoring ref on a %s field", target.Kind)
		return
	}
	target.Kind = field.KindReference
	if r := v.Get("ref"); r.IsScalar() {
		target.Ref = r.Scalar
		target.RefType = w.lookup(r.Scalar)
		if target.RefType == nil {
			w.log.Warn().Str("model", w.model).Str("path", n.Path).Str("ref", r.Scalar).Msg("reference to an unknown model")
		}
	}
}

// union turns the subdocument of n, or its array element, into a
// discriminated union whose variants are declared under "discriminators".
func (w *walker) union(n *Node, v, d *load.Value) {
	base := subdocument(n)
	if base == nil || !d.IsMapping() {
		w.log.Warn().Str("model", w.model).Str("path", n.Path).Msg("discriminators require a subdocument field")
		return
	}
	key := v.Get("discriminatorKey").Text()
	if key == "" {
		key = load.DefaultDiscriminatorKey
	}
	u := &Node{
		Name: base.Name,
		Path: base.Path,
		Kind: field.KindUnion,
		Key:  key,
		in:   base.in,
	}
	for _, e := range d.Entries {
		variant := &Node{
			Name:   base.Name,
			Path:   base.Path,
			Kind:   field.KindSubdocument,
			Single: base.Single,
			Tag:    e.Key,
			Doc:    e.Comment,
			in:     base.in,
		}
		def := e.Value
		if def.Has("$schema") {
			def = def.Get("$schema")
		}
		if def.IsMapping() {
			w.record(variant, def)
		}
		u.Variants = append(u.Variants, variant)
	}
	if base == n {
		b := *n
		b.Required, b.Nullable, b.Doc = false, false, ""
		u.Base = &b
		u.Required, u.Nullable, u.Doc = n.Required, n.Nullable, n.Doc
		*n = *u
		return
	}
	u.Base = base
	n.Elem = u
}

// subdocument returns the subdocument declared by n: n itself or its
// array element or map value.
func subdocument(n *Node) *Node {
	switch {
	case n.Kind == field.KindSubdocument:
		return n
	case n.Kind.Container() && n.Elem != nil && n.Elem.Kind == field.KindSubdocument:
		return n.Elem
	}
	return nil
}

func (w *walker) unknown(n *Node, reason string) {
	mixed(n)
	n.Unknown = true
	w.log.Warn().Str("model", w.model).Str("path", n.Path).Msg(reason + ", falling back to Mixed")
}

func mixed(n *Node) {
	n.Kind = field.KindPrimitive
	n.Type = field.TypeMixed
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
