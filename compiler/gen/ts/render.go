package ts

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/syssam/shapegen/compiler/gen"
)

// Render returns the TypeScript text of x. Object properties are written
// one per line, without indentation, each ending with a semicolon.
func Render(x gen.Expr) (string, error) {
	p := &printer{}
	p.expr(x)
	if p.err != nil {
		return "", p.err
	}
	return p.String(), nil
}

type printer struct {
	strings.Builder
	err error
}

func (p *printer) expr(x gen.Expr) {
	switch t := x.(type) {
	case *gen.Ident:
		p.WriteString(t.Name)
	case *gen.Literal:
		if t.Number {
			p.WriteString(t.Value)
		} else {
			p.WriteString(strconv.Quote(t.Value))
		}
	case *gen.Raw:
		p.WriteString(t.Text)
	case *gen.RefID:
		if t.Target == "" {
			p.expr(t.Fallback)
			return
		}
		p.WriteString(t.Target)
		p.WriteString(`["_id"]`)
	case *gen.Array:
		switch t.Container {
		case gen.MongooseArray:
			p.generic("mongoose.Types.Array", t.Elem)
		case gen.DocumentArray:
			p.generic("mongoose.Types.DocumentArray", t.Elem)
		default:
			p.operand(t.Elem, bare(t.Elem))
			p.WriteString("[]")
		}
	case *gen.Map:
		if t.Container == gen.MongooseMap {
			p.generic("mongoose.Types.Map", t.Elem)
			return
		}
		p.generic("Map", &gen.Ident{Name: "string"}, t.Elem)
	case *gen.Generic:
		p.generic(t.Name, t.Args...)
	case *gen.Union:
		for i, m := range t.Types {
			if i > 0 {
				p.WriteString(" | ")
			}
			_, inter := m.(*gen.Intersection)
			_, raw := m.(*gen.Raw)
			p.operand(m, !inter && !raw)
		}
	case *gen.Intersection:
		for i, m := range t.Types {
			if i > 0 {
				p.WriteString(" & ")
			}
			_, union := m.(*gen.Union)
			_, raw := m.(*gen.Raw)
			p.operand(m, !union && !raw)
		}
	case *gen.Object:
		if len(t.Props) == 0 {
			p.WriteString("{}")
			return
		}
		p.WriteString("{\n")
		for _, prop := range t.Props {
			if prop.Doc != "" {
				p.WriteString(Comment(prop.Doc))
				p.WriteByte('\n')
			}
			p.WriteString(Property(prop.Name))
			if prop.Optional {
				p.WriteByte('?')
			}
			p.WriteString(": ")
			p.expr(prop.Type)
			p.WriteString(";\n")
		}
		p.WriteString("}")
	default:
		if p.err == nil {
			p.err = fmt.Errorf("ts: unexpected expression %T", x)
		}
	}
}

func (p *printer) generic(name string, args ...gen.Expr) {
	p.WriteString(name)
	p.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			p.WriteString(", ")
		}
		p.expr(a)
	}
	p.WriteByte('>')
}

func (p *printer) operand(x gen.Expr, bare bool) {
	if bare {
		p.expr(x)
		return
	}
	p.WriteByte('(')
	p.expr(x)
	p.WriteByte(')')
}

// bare reports if x can be the element of an array suffix without
// parentheses.
func bare(x gen.Expr) bool {
	switch t := x.(type) {
	case *gen.Ident, *gen.Literal, *gen.RefID:
		return true
	case *gen.Array:
		return t.Container == gen.PlainArray
	}
	return false
}

// Property returns name as a property key, quoted if it is not an
// identifier.
func Property(name string) string {
	if name == "" {
		return `""`
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return strconv.Quote(name)
		}
	}
	return name
}
