package gen

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/schema/field"
)

// Graph holds the models of a run and the declaration sets synthesized for
// them. A model that fails is reported in Failures and has no declaration
// set; the other models are unaffected.
type Graph struct {
	*Config
	// Nodes holds the top-level models in input order. Discriminator
	// variants are reachable through their base.
	Nodes []*Type
	// Sets holds the declaration set of each node, nil for failed ones.
	Sets []*DeclarationSet
	// Failures holds the per-model errors, in input order.
	Failures []*Failure

	registry *Registry
	models   map[string]*Type
	failed   map[*Type]bool
	decls    map[string]*Decl
	// index holds the input position of each node.
	index map[*Type]int
}

// Failure is a model that could not be generated.
type Failure struct {
	// Index holds the position of the model in the input.
	Index int
	Model string
	Err   error
}

// NewGraph builds the graph of the given schemas.
//
// Model and variant names are registered first, sequentially, so references
// resolve regardless of declaration order. Models are then walked in
// parallel, their record names claimed sequentially in input order, and
// their shapes synthesized in parallel. The returned error is non-nil only
// if the whole run cannot proceed; per-model errors are in Failures.
func NewGraph(ctx context.Context, c *Config, schemas ...*load.Schema) (*Graph, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil config", ErrMissingConfig)
	}
	g := &Graph{
		Config:   c,
		registry: NewRegistry(c.Collision),
		models:   make(map[string]*Type),
		failed:   make(map[*Type]bool),
		decls:    make(map[string]*Decl),
		index:    make(map[*Type]int),
	}
	for i, s := range schemas {
		t, err := g.register(s, nil)
		if err != nil {
			g.Failures = append(g.Failures, &Failure{Index: i, Model: s.Name, Err: err})
			continue
		}
		g.index[t] = i
		g.Nodes = append(g.Nodes, t)
	}
	walked := make([]error, len(g.Nodes))
	if err := g.each(ctx, func(i int, t *Type) { walked[i] = g.walk(t) }); err != nil {
		return nil, err
	}
	for i, t := range g.Nodes {
		err := walked[i]
		if err == nil {
			err = g.names(t)
		}
		if err != nil {
			g.fail(g.index[t], t, err)
		}
	}
	g.Sets = make([]*DeclarationSet, len(g.Nodes))
	var pending []int
	for i, t := range g.Nodes {
		if !g.failed[t] {
			pending = append(pending, i)
		}
	}
	if _, err := g.settle(ctx, pending); err != nil {
		return nil, err
	}
	return g, nil
}

// each runs fn on every model with the configured parallelism.
func (g *Graph) each(ctx context.Context, fn func(int, *Type)) error {
	all := make([]int, len(g.Nodes))
	for i := range all {
		all[i] = i
	}
	return g.eachOf(ctx, all, fn)
}

// eachOf runs fn on the models at the given positions.
func (g *Graph) eachOf(ctx context.Context, positions []int, fn func(int, *Type)) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers())
	for _, i := range positions {
		t := g.Nodes[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i, t)
			return nil
		})
	}
	return eg.Wait()
}

// settle synthesizes the models at the given positions. The models that
// refer to a model failing synthesis are synthesized again, until no new
// model fails, so no declaration names a model left out of the output.
// It returns the positions of the sets built, in input order.
func (g *Graph) settle(ctx context.Context, pending []int) ([]int, error) {
	built := make(map[int]bool)
	for len(pending) > 0 {
		errs := make([]error, len(g.Nodes))
		if err := g.eachOf(ctx, pending, func(i int, t *Type) {
			g.Sets[i], errs[i] = g.synthesize(t)
		}); err != nil {
			return nil, err
		}
		failed := make(map[*Type]bool)
		for _, i := range pending {
			t := g.Nodes[i]
			if errs[i] == nil {
				built[i] = true
				continue
			}
			g.Sets[i] = nil
			delete(built, i)
			g.fail(g.index[t], t, errs[i])
			failed[t] = true
		}
		pending = g.dependents(failed)
	}
	g.link()
	sort.SliceStable(g.Failures, func(i, j int) bool {
		return g.Failures[i].Index < g.Failures[j].Index
	})
	positions := make([]int, 0, len(built))
	for i := range built {
		positions = append(positions, i)
	}
	sort.Ints(positions)
	return positions, nil
}

// drop removes the models at the given positions from the output after
// they were synthesized, and synthesizes again the models that refer to
// them. It returns the positions of the sets built again. Dropped models
// are not reported in Failures.
func (g *Graph) drop(ctx context.Context, positions []int) ([]int, error) {
	failed := make(map[*Type]bool)
	for _, i := range positions {
		t := g.Nodes[i]
		g.Sets[i] = nil
		g.failed[t] = true
		for _, v := range t.Discriminators {
			g.failed[v] = true
		}
		g.release(t)
		failed[t] = true
	}
	return g.settle(ctx, g.dependents(failed))
}

// dependents returns the positions of the synthesized models that refer
// to one of the failed models or their variants.
func (g *Graph) dependents(failed map[*Type]bool) []int {
	if len(failed) == 0 {
		return nil
	}
	var out []int
	for i, t := range g.Nodes {
		if g.Sets[i] != nil && refers(t, failed) {
			out = append(out, i)
		}
	}
	return out
}

// refers reports if a field of t or of its variants references one of the
// given models or their variants.
func refers(t *Type, models map[*Type]bool) bool {
	found := false
	if t.Root != nil {
		t.Root.Walk(func(n *Node) {
			if r := n.RefType; n.Kind == field.KindReference && r != nil {
				for ; r != nil && !found; r = r.Base {
					found = models[r]
				}
			}
		})
	}
	for _, v := range t.Discriminators {
		found = found || refers(v, models)
	}
	return found
}

// link indexes the declarations of the built sets by name.
func (g *Graph) link() {
	clear(g.decls)
	for _, set := range g.Sets {
		if set == nil {
			continue
		}
		for _, d := range set.Decls {
			g.decls[d.Name] = d
		}
	}
}

// register creates the type of s and claims the names of its declaration
// family. A model failing to register releases everything it claimed.
func (g *Graph) register(s *load.Schema, base *Type) (*Type, error) {
	switch {
	case s.Name == "":
		return nil, NewSchemaError("", "", "model is missing a name", nil)
	case !validName(s.Name):
		return nil, NewSchemaError(s.Name, "", "model name is not a valid identifier", nil)
	}
	if other, ok := g.models[s.Name]; ok {
		return nil, NewSchemaError(s.Name, "", fmt.Sprintf("model declared twice (%s and %s)", other.Pos, s.Pos), nil)
	}
	t := &Type{
		schema:   s,
		Name:     s.Name,
		Pos:      s.Pos,
		ID:       s.Options.HasID(),
		Methods:  funcs(s.Methods),
		Statics:  funcs(s.Statics),
		Queries:  funcs(s.Query),
		Virtuals: virtuals(s.Virtuals),
	}
	if ts := s.Options.Timestamps; ts != nil {
		t.Timestamps = *ts
	}
	if base != nil {
		t.Base = base
		t.Key = base.schema.DiscriminatorKey()
		t.Value = s.DiscriminatorValue()
		// The base record carries the identifier and the timestamps.
		t.ID = false
		t.Timestamps = load.Timestamps{}
	}
	if err := g.registry.Claim(t.Name, "", t.Family(g.NoMongoose)...); err != nil {
		return nil, err
	}
	g.models[t.Name] = t
	for _, d := range s.Discriminators {
		v, err := g.register(d, t)
		if err != nil {
			g.release(t)
			return nil, err
		}
		t.Discriminators = append(t.Discriminators, v)
	}
	return t, nil
}

// release drops the names and registration of t and its variants.
func (g *Graph) release(t *Type) {
	for _, v := range t.Discriminators {
		g.release(v)
	}
	g.registry.Release(t.Name)
	delete(g.models, t.Name)
}

func (g *Graph) fail(i int, t *Type, err error) {
	g.failed[t] = true
	for _, v := range t.Discriminators {
		g.failed[v] = true
	}
	g.release(t)
	g.Failures = append(g.Failures, &Failure{Index: i, Model: t.Name, Err: err})
}

// walk builds the field trees of t and its variants. The model map is
// read-only at this stage.
func (g *Graph) walk(t *Type) error {
	w := &walker{
		model:  t.Name,
		lookup: func(name string) *Type { return g.models[name] },
		log:    g.Logger,
	}
	root, err := w.root(t, t.schema.Fields)
	if err != nil {
		return err
	}
	t.Root = root
	if t.ID && (root.noID || root.Field("_id") != nil) {
		t.ID = false
	}
	for _, v := range t.Discriminators {
		if err := g.walk(v); err != nil {
			return err
		}
	}
	return nil
}

// names claims the record names of t and its variants.
func (g *Graph) names(t *Type) error {
	if err := g.name(t); err != nil {
		return err
	}
	for _, v := range t.Discriminators {
		if err := g.names(v); err != nil {
			return err
		}
	}
	return nil
}

// Model returns the model (or variant) with the given name, if it is
// generated.
func (g *Graph) Model(name string) (*Type, bool) {
	t, ok := g.models[name]
	if !ok || g.failed[t] {
		return nil, false
	}
	return t, true
}

// Set returns the declaration set holding the named model or variant.
func (g *Graph) Set(name string) (*DeclarationSet, bool) {
	t, ok := g.Model(name)
	if !ok {
		return nil, false
	}
	for t.Base != nil {
		t = t.Base
	}
	for i, n := range g.Nodes {
		if n == t && g.Sets[i] != nil {
			return g.Sets[i], true
		}
	}
	return nil, false
}

// Lookup returns the declaration with the given name across all sets.
func (g *Graph) Lookup(name string) (*Decl, bool) {
	d, ok := g.decls[name]
	return d, ok
}

// Resolve implements Resolver.
func (g *Graph) Resolve(name string) (Expr, bool) {
	d, ok := g.Lookup(name)
	if !ok {
		return nil, false
	}
	return d.Type, true
}

// Populate returns the shape of the model in the given family with the
// references along path replaced by the populated documents.
func (g *Graph) Populate(model string, f Family, path string, mode PopulateMode) (Expr, error) {
	set, ok := g.Set(model)
	if !ok {
		return nil, NewSchemaError(model, "", "model is not generated", nil)
	}
	d, ok := set.Shape(model, f)
	if !ok {
		return nil, NewSchemaError(model, "", fmt.Sprintf("model has no %s shape", f), nil)
	}
	return Populate(g, d.Type, path, mode)
}

// Err returns the per-model failures joined, or nil.
func (g *Graph) Err() error {
	errs := make([]error, len(g.Failures))
	for i, f := range g.Failures {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

func funcs(fs load.Funcs) []*Func {
	out := make([]*Func, len(fs))
	for i, f := range fs {
		out[i] = &Func{Name: f.Name, Signature: f.Signature, Doc: f.Doc}
	}
	return out
}

func virtuals(vs load.Virtuals) []*Virtual {
	out := make([]*Virtual, len(vs))
	for i, v := range vs {
		out[i] = &Virtual{Name: v.Name, Get: v.Get, Set: v.Set, Doc: v.Doc}
	}
	return out
}

// validName reports if s can be used as a type name.
func validName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
