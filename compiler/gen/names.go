package gen

import (
	"strconv"

	"github.com/syssam/shapegen/schema/field"
)

// Registry records which model and path claimed each declaration name of a
// run. It is not safe for concurrent use: names are claimed sequentially, in
// model input order, which keeps collision outcomes deterministic.
type Registry struct {
	policy CollisionPolicy
	claims map[string]claim
}

type claim struct {
	model string
	path  string
}

// NewRegistry returns an empty registry resolving collisions with the given
// policy.
func NewRegistry(policy CollisionPolicy) *Registry {
	return &Registry{policy: policy, claims: make(map[string]claim)}
}

// Claim claims all names for the model path, or none of them. It fails with
// a *NameCollisionError naming the first owner on conflict.
func (r *Registry) Claim(model, path string, names ...string) error {
	for _, name := range names {
		if c, ok := r.claims[name]; ok {
			return &NameCollisionError{
				Model:      model,
				Name:       name,
				Path:       path,
				OtherModel: c.model,
				OtherPath:  c.path,
			}
		}
	}
	for _, name := range names {
		r.claims[name] = claim{model: model, path: path}
	}
	return nil
}

// Assign claims the base name and the names derived from it with the given
// suffixes. Under CollisionSuffix, a taken base is retried with the smallest
// free numeric suffix (Name2, Name3, ...). It returns the base name claimed.
func (r *Registry) Assign(model, path, base string, suffixes ...string) (string, error) {
	err := r.Claim(model, path, derive(base, suffixes)...)
	if err == nil || r.policy != CollisionSuffix {
		return base, err
	}
	for i := 2; ; i++ {
		name := base + strconv.Itoa(i)
		if r.Claim(model, path, derive(name, suffixes)...) == nil {
			return name, nil
		}
	}
}

func derive(base string, suffixes []string) []string {
	if len(suffixes) == 0 {
		return []string{base}
	}
	names := make([]string, len(suffixes))
	for i, s := range suffixes {
		names[i] = base + s
	}
	return names
}

// Release drops every name claimed by the model.
func (r *Registry) Release(model string) {
	for name, c := range r.claims {
		if c.model == model {
			delete(r.claims, name)
		}
	}
}

// Owner returns the model and path that claimed the name.
func (r *Registry) Owner(name string) (model, path string, ok bool) {
	c, ok := r.claims[name]
	return c.model, c.path, ok
}

// Len returns the number of claimed names.
func (r *Registry) Len() int { return len(r.claims) }

// record is a node emitted as its own declaration. stem holds the part of
// its name that follows the model name.
type record struct {
	node *Node
	stem string
}

// records returns the records of the model that are emitted as their own
// declarations, in post-order. Every subdocument is named, as are union
// bases and variants. An embedded object is inlined when it is a direct
// field of the root, and named when nested deeper or below an array
// element or a map value.
//
// Stems are built from the path segments, and the segment of a container
// is singular for its element and everything nested in it:
// "friends[].meta" of model User is UserFriendMeta.
func records(root *Node) []record {
	var out []record
	// depth counts the fields between n and the root. boxed is set below
	// an array element or a map value.
	var visit func(n *Node, stem string, depth int, boxed bool)
	visit = func(n *Node, stem string, depth int, boxed bool) {
		switch n.Kind {
		case field.KindEmbedded, field.KindSubdocument:
			for _, f := range n.Fields {
				visit(f, stem+pascal(f.Name), depth+1, boxed)
			}
			if n.Kind == field.KindSubdocument || (n != root && (depth > 1 || boxed)) {
				out = append(out, record{node: n, stem: stem})
			}
		case field.KindUnion:
			visit(n.Base, stem, depth, boxed)
			for _, v := range n.Variants {
				visit(v, stem, depth, boxed)
			}
		case field.KindArray, field.KindMap:
			if n.Elem != nil {
				visit(n.Elem, singular(stem), depth, true)
			}
		}
	}
	visit(root, "", 0, false)
	return out
}

// name claims the names of the records of model t. Union variants are named
// after their base and their tag.
func (g *Graph) name(t *Type) error {
	suffixes := []string{"", "Document"}
	if g.Config.NoMongoose {
		suffixes = []string{""}
	}
	bases := make(map[*Node]*Node)
	t.Root.Walk(func(n *Node) {
		if n.Kind == field.KindUnion {
			for _, v := range n.Variants {
				bases[v] = n.Base
			}
		}
	})
	for _, r := range records(t.Root) {
		n, base := r.node, t.Name+r.stem
		if b, ok := bases[n]; ok {
			base = b.TypeName + pascal(n.Tag)
		}
		name, err := g.registry.Assign(t.Name, n.Path, base, suffixes...)
		if err != nil {
			return err
		}
		if name != base {
			g.Config.Logger.Warn().
				Str("model", t.Name).
				Str("path", n.Path).
				Str("name", name).
				Msgf("name %q is taken, using a suffix", base)
		}
		n.TypeName = name
	}
	return nil
}
