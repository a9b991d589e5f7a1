package gen

import (
	"fmt"
	"strings"
)

// CheckDetach verifies that the lean shape of every record of the set has
// the properties of its document shape, in the same order and with the same
// optionality. Detaching a document into a plain object must never add,
// drop or reorder a property.
func CheckDetach(set *DeclarationSet) error {
	for _, d := range set.Decls {
		if d.Role != RoleLean && d.Role != RoleLeanSubdoc {
			continue
		}
		doc, ok := set.Lookup(d.Name + "Document")
		if !ok {
			return NewGenerationError("detach", set.Model.Name, fmt.Sprintf("%s has no document shape", d.Name), nil)
		}
		if err := detach(own(d.Type), own(doc.Type), nil); err != nil {
			return NewGenerationError("detach", set.Model.Name, fmt.Sprintf("%s and %s differ: %s", d.Name, doc.Name, err), nil)
		}
	}
	return nil
}

// own returns the object literal of a declaration: the last member of an
// intersection, or the declaration itself.
func own(x Expr) Expr {
	if i, ok := x.(*Intersection); ok && len(i.Types) > 0 {
		return i.Types[len(i.Types)-1]
	}
	return x
}

func detach(lean, doc Expr, path []string) error {
	switch l := lean.(type) {
	case *Object:
		d, ok := doc.(*Object)
		if !ok {
			return mismatch(path, "object against %T", doc)
		}
		if len(l.Props) != len(d.Props) {
			return mismatch(path, "%d properties against %d", len(l.Props), len(d.Props))
		}
		for i, p := range l.Props {
			q := d.Props[i]
			switch {
			case p.Name != q.Name:
				return mismatch(path, "property %q against %q", p.Name, q.Name)
			case p.Optional != q.Optional:
				return mismatch(append(path, p.Name), "optionality differs")
			}
			if err := detach(p.Type, q.Type, append(path, p.Name)); err != nil {
				return err
			}
		}
	case *Array:
		d, ok := doc.(*Array)
		if !ok || l.Container != PlainArray || d.Container == PlainArray {
			return mismatch(path, "array containers differ")
		}
		return detach(l.Elem, d.Elem, path)
	case *Map:
		d, ok := doc.(*Map)
		if !ok || l.Container != PlainMap || d.Container != MongooseMap {
			return mismatch(path, "map containers differ")
		}
		return detach(l.Elem, d.Elem, path)
	}
	return nil
}

func mismatch(path []string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if len(path) == 0 {
		return fmt.Errorf("%s", msg)
	}
	return fmt.Errorf("at %q: %s", strings.Join(path, "."), msg)
}
