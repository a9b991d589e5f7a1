// Package ts renders declaration sets as TypeScript declarations for
// Mongoose models.
package ts

import (
	"fmt"
	"strings"

	"github.com/syssam/shapegen/compiler/gen"
)

// Emitter renders TypeScript declarations. It implements gen.Emitter.
type Emitter struct {
	cfg *gen.Config
}

var _ gen.Emitter = (*Emitter)(nil)

// New returns an emitter configured by c.
func New(c *gen.Config) *Emitter {
	return &Emitter{cfg: c}
}

// Name implements gen.Emitter.
func (*Emitter) Name() string { return "typescript" }

// Banner is the default opening of generated files.
const Banner = `/* tslint:disable */
/* eslint-disable */

// ######################################## THIS FILE WAS GENERATED BY SHAPEGEN ######################################## //

// NOTE: ANY CHANGES MADE WILL BE OVERWRITTEN ON SUBSEQUENT EXECUTIONS OF SHAPEGEN.
// ` + gen.Marker + "\n"

// Header implements gen.Emitter.
func (e *Emitter) Header(*gen.Graph) []byte {
	var b strings.Builder
	if h := e.cfg.Header; h != "" {
		b.WriteString(strings.TrimRight(h, "\n"))
		b.WriteByte('\n')
		if !strings.Contains(h, gen.Marker) {
			b.WriteString("// " + gen.Marker + "\n")
		}
	} else {
		b.WriteString(Banner)
	}
	if !e.cfg.NoMongoose {
		b.WriteString("\nimport mongoose from \"mongoose\";\n")
	}
	return []byte(b.String())
}

// Model implements gen.Emitter.
func (e *Emitter) Model(set *gen.DeclarationSet) ([]byte, error) {
	var b strings.Builder
	for i, d := range set.Decls {
		if i > 0 {
			b.WriteByte('\n')
		}
		text, err := Decl(d)
		if err != nil {
			return nil, err
		}
		b.WriteString(text)
	}
	return []byte(b.String()), nil
}

// Decl returns the text of one declaration, with its documentation.
func Decl(d *gen.Decl) (string, error) {
	if d.Type == nil {
		return "", fmt.Errorf("ts: declaration %s has no type", d.Name)
	}
	typ, err := Render(d.Type)
	if err != nil {
		return "", fmt.Errorf("ts: declaration %s: %w", d.Name, err)
	}
	var b strings.Builder
	if doc := describe(d); doc != "" {
		b.WriteString(doc)
		b.WriteByte('\n')
	}
	b.WriteString("export type ")
	b.WriteString(d.Name)
	b.WriteString(" = ")
	b.WriteString(typ)
	b.WriteByte('\n')
	return b.String(), nil
}

// Helpers implements gen.Emitter. The populate helpers only exist with the
// framework types.
func (e *Emitter) Helpers(*gen.Graph) []byte {
	if e.cfg.NoMongoose {
		return nil
	}
	return []byte(helpers)
}
