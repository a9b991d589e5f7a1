package ts

import (
	"strings"

	"github.com/syssam/shapegen/compiler/gen"
)

// Comment returns doc as a JSDoc block. Text that already is a block
// comment is kept verbatim. Blank lines keep the " * " prefix.
func Comment(doc string) string {
	doc = strings.TrimRight(doc, "\n")
	if strings.HasPrefix(strings.TrimSpace(doc), "/*") {
		if !strings.HasSuffix(strings.TrimSpace(doc), "*/") {
			doc += " */"
		}
		return doc
	}
	lines := strings.Split(doc, "\n")
	if len(lines) == 1 {
		return "/** " + doc + " */"
	}
	return block(lines...)
}

func block(lines ...string) string {
	var b strings.Builder
	b.WriteString("/**\n")
	for _, l := range lines {
		b.WriteString(" * ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString(" */")
	return b.String()
}

// describe returns the documentation block of a declaration, or "" for
// declarations that go undocumented.
func describe(d *gen.Decl) string {
	var (
		m    = d.Model
		v    = lower(m)
		lean = []string{
			"",
			"This has all Mongoose getters & functions removed. This type will be returned from `" + m + "Document.toObject()`.",
			"```",
			"const " + v + "Object = " + v + ".toObject();",
			"```",
		}
		construct = []string{
			"",
			"Pass this type to the Mongoose Model constructor:",
			"```",
			"const " + m + " = mongoose.model<" + m + "Document, " + m + "Model>(\"" + m + "\", " + m + "Schema);",
			"```",
		}
	)
	switch d.Role {
	case gen.RoleLeanSubdoc:
		return block(append([]string{"Lean version of " + d.Name + "Document"}, lean...)...)
	case gen.RoleLean:
		lines := append([]string{"Lean version of " + m + "Document"}, lean...)
		lines[2] += " To avoid conflicts with model names, use the type alias `" + m + "Object`."
		return block(lines...)
	case gen.RoleObject:
		return block(
			"Lean version of "+m+"Document (type alias of `"+m+"`)",
			"",
			"Use this type alias to avoid conflicts with model names:",
			"```",
			"import { "+m+" } from \"../models\"",
			"import { "+m+"Object } from \"../interfaces/mongoose.gen.ts\"",
			"",
			"const "+v+"Object: "+m+"Object = "+v+".toObject();",
			"```",
		)
	case gen.RoleQuery:
		return block(
			"Mongoose Query type",
			"",
			"This type is returned from query functions. For most use cases, you should not need to use this type explicitly.",
		)
	case gen.RoleQueries:
		return block(
			"Mongoose Query helper types",
			"",
			"This type represents `"+m+"Schema.query`. For most use cases, you should not need to use this type explicitly.",
		)
	case gen.RoleModel:
		return block(append([]string{"Mongoose Model type"}, construct...)...)
	case gen.RoleSchema:
		return block(
			"Mongoose Schema type",
			"",
			"Assign this type to new "+m+" schema instances:",
			"```",
			"const "+m+"Schema: "+m+"Schema = new mongoose.Schema({ ... })",
			"```",
		)
	case gen.RoleSubdoc:
		kind := "Mongoose Subdocument type"
		if d.Placement == gen.PlacedNested {
			kind = "Mongoose nested object type"
		}
		var of string
		switch d.Placement {
		case gen.PlacedElement:
			of = "Type of `" + m + "Document[\"" + d.Path + "\"]` element."
		case gen.PlacedValue:
			of = "Type of `" + m + "Document[\"" + d.Path + "\"]` value."
		default:
			of = "Type of `" + m + "Document[\"" + d.Path + "\"]`."
		}
		return block(kind, "", of)
	case gen.RoleDocument:
		return block(append([]string{"Mongoose Document type"}, construct...)...)
	}
	return ""
}

// lower returns s with its first letter in lower case, the conventional
// name of a document variable.
func lower(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
