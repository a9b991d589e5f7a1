package gen

import (
	"fmt"
	"strings"
)

// PopulateMode selects how a path that does not lead to a reference is
// handled.
type PopulateMode uint8

// List of populate modes.
const (
	// PopulateLenient returns the shape unchanged.
	PopulateLenient PopulateMode = iota
	// PopulateStrict fails with a *PathError.
	PopulateStrict
)

// Resolver resolves declared type names to their shapes.
type Resolver interface {
	Resolve(name string) (Expr, bool)
}

// maxResolve bounds the named types followed by a single populate call.
const maxResolve = 64

// Populate returns shape with the reference at the dotted path replaced by
// the referenced shape. Arrays and maps along the path are kept, with their
// container, and the reference is narrowed inside them. Unions along the
// path are populated in every member that holds the path.
//
// Only the properties on the path are copied. On a miss, the lenient mode
// returns shape itself.
func Populate(r Resolver, shape Expr, path string, mode PopulateMode) (Expr, error) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, &PathError{Path: path, Segment: s, Shape: describe(shape), Message: "empty path segment"}
		}
	}
	p := &populator{r: r, path: path}
	out, ok := p.descend(shape, segs)
	switch {
	case ok:
		return out, nil
	case mode == PopulateStrict:
		return nil, p.err
	default:
		return shape, nil
	}
}

type populator struct {
	r        Resolver
	path     string
	resolved int
	err      error
}

// descend applies the path to x. It reports false, and records the reason,
// if the path does not lead to a reference.
func (p *populator) descend(x Expr, segs []string) (Expr, bool) {
	switch t := x.(type) {
	case *Array:
		e, ok := p.descend(t.Elem, segs)
		if !ok {
			return x, false
		}
		return &Array{Elem: e, Container: t.Container}, true
	case *Map:
		e, ok := p.descend(t.Elem, segs)
		if !ok {
			return x, false
		}
		return &Map{Elem: e, Container: t.Container}, true
	case *Object:
		i := -1
		for j, prop := range t.Props {
			if prop.Name == segs[0] {
				i = j
				break
			}
		}
		if i < 0 {
			return p.miss(x, segs[0], "no such property")
		}
		var (
			typ Expr
			ok  bool
		)
		if len(segs) == 1 {
			typ, ok = p.narrow(t.Props[i].Type, segs[0])
		} else {
			typ, ok = p.descend(t.Props[i].Type, segs[1:])
		}
		if !ok {
			return x, false
		}
		props := make([]*Prop, len(t.Props))
		copy(props, t.Props)
		prop := *props[i]
		prop.Type = typ
		props[i] = &prop
		return &Object{Props: props}, true
	case *Ident:
		if p.resolved++; p.resolved > maxResolve {
			return p.miss(x, segs[0], "too many named types on the path")
		}
		resolved, ok := p.r.Resolve(t.Name)
		if !ok {
			return p.miss(x, segs[0], "unresolved type")
		}
		return p.descend(resolved, segs)
	case *Intersection:
		// The own properties of a declaration come last.
		for i := len(t.Types) - 1; i >= 0; i-- {
			m, ok := p.descend(t.Types[i], segs)
			if !ok {
				continue
			}
			types := make([]Expr, len(t.Types))
			copy(types, t.Types)
			types[i] = m
			return &Intersection{Types: types}, true
		}
		return x, false
	case *Union:
		var (
			types   = make([]Expr, len(t.Types))
			changed bool
		)
		for i, m := range t.Types {
			out, ok := p.descend(m, segs)
			types[i] = out
			changed = changed || ok
		}
		if !changed {
			return x, false
		}
		return &Union{Types: types}, true
	case *RefID:
		// The identifier member of a reference union holds no properties.
		return x, false
	default:
		return p.miss(x, segs[0], "cannot descend into this type")
	}
}

// narrow drops the identifier members of the reference union x, seeing
// through arrays, maps and nullable unions.
func (p *populator) narrow(x Expr, seg string) (Expr, bool) {
	switch t := x.(type) {
	case *Array:
		e, ok := p.narrow(t.Elem, seg)
		if !ok {
			return x, false
		}
		return &Array{Elem: e, Container: t.Container}, true
	case *Map:
		e, ok := p.narrow(t.Elem, seg)
		if !ok {
			return x, false
		}
		return &Map{Elem: e, Container: t.Container}, true
	case *Union:
		var (
			keep    = make([]Expr, 0, len(t.Types))
			changed bool
		)
		for _, m := range t.Types {
			switch m.(type) {
			case *RefID:
				changed = true
				continue
			case *Array, *Map:
				if n, ok := p.narrow(m, seg); ok {
					m, changed = n, true
				}
			}
			keep = append(keep, m)
		}
		switch {
		case !changed:
			return p.miss(x, seg, "not a reference")
		case len(keep) == 1:
			return keep[0], true
		default:
			return &Union{Types: keep}, true
		}
	default:
		return p.miss(x, seg, "not a reference")
	}
}

// miss records the first reason the path failed to apply.
func (p *populator) miss(x Expr, seg, msg string) (Expr, bool) {
	if p.err == nil {
		p.err = &PathError{Path: p.path, Segment: seg, Shape: describe(x), Message: msg}
	}
	return x, false
}

// describe returns a short description of x used in errors.
func describe(x Expr) string {
	switch t := x.(type) {
	case *Ident:
		return t.Name
	case *Literal:
		return "literal"
	case *Array:
		return "array"
	case *Map:
		return "map"
	case *Union:
		return "union"
	case *Intersection:
		return "intersection"
	case *Object:
		return "object"
	case *RefID:
		return "identifier"
	case *Generic:
		return t.Name
	case *Raw:
		return t.Text
	default:
		return fmt.Sprintf("%T", x)
	}
}
