package load

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Schema represents a model definition that was loaded from a schema source.
type Schema struct {
	Name           string    `yaml:"name"`
	Pos            string    `yaml:"-"`
	Fields         *Value    `yaml:"fields"`
	Options        Options   `yaml:"options"`
	Methods        Funcs     `yaml:"methods"`
	Statics        Funcs     `yaml:"statics"`
	Query          Funcs     `yaml:"query"`
	Virtuals       Virtuals  `yaml:"virtuals"`
	Discriminators []*Schema `yaml:"discriminators"`
	// Value is the discriminator value of a variant. Defaults to Name.
	Value string `yaml:"value"`

	line int
}

// Options holds the schema-level options that affect generated shapes.
type Options struct {
	ID               *bool       `yaml:"_id"`
	Timestamps       *Timestamps `yaml:"timestamps"`
	DiscriminatorKey string      `yaml:"discriminatorKey"`
}

// HasID reports if records of the schema carry an implicit _id.
func (o Options) HasID() bool { return o.ID == nil || *o.ID }

// Timestamps holds the names of the automatic timestamp fields.
// An empty name disables the corresponding field.
type Timestamps struct {
	CreatedAt string
	UpdatedAt string
}

// UnmarshalYAML accepts either a boolean or a {createdAt, updatedAt} mapping
// whose values are field names or booleans.
func (t *Timestamps) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var on bool
		if err := n.Decode(&on); err != nil {
			return fmt.Errorf("line %d: timestamps: %w", n.Line, err)
		}
		if on {
			t.CreatedAt, t.UpdatedAt = "createdAt", "updatedAt"
		}
		return nil
	case yaml.MappingNode:
		t.CreatedAt, t.UpdatedAt = "createdAt", "updatedAt"
		v := &Value{}
		if err := v.decode(n); err != nil {
			return err
		}
		for _, e := range v.Entries {
			var name *string
			switch e.Key {
			case "createdAt":
				name = &t.CreatedAt
			case "updatedAt":
				name = &t.UpdatedAt
			default:
				continue
			}
			if b, ok := e.Value.Bool(); ok {
				if !b {
					*name = ""
				}
				continue
			}
			if s := e.Value.Text(); s != "" {
				*name = s
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: timestamps must be a boolean or a mapping", n.Line)
	}
}

// Func is a named method, static or query helper of a model.
type Func struct {
	Name      string
	Signature string // Declared signature. Empty means the default signature.
	Doc       string
}

// Funcs is an ordered list of functions. It is decoded from a mapping of
// name to signature, or name to {signature, doc}.
type Funcs []*Func

// UnmarshalYAML implements yaml.Unmarshaler.
func (fs *Funcs) UnmarshalYAML(n *yaml.Node) error {
	v := &Value{}
	if err := v.decode(n); err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	if !v.IsMapping() {
		return fmt.Errorf("line %d: expect a mapping of function names", n.Line)
	}
	for _, e := range v.Entries {
		f := &Func{Name: e.Key, Doc: e.Comment}
		switch {
		case e.Value.IsScalar():
			f.Signature = e.Value.Scalar
		case e.Value.IsMapping():
			f.Signature = e.Value.Get("signature").Text()
			if d := e.Value.Get("doc").Text(); d != "" {
				f.Doc = d
			}
		case e.Value.IsNull():
		default:
			return fmt.Errorf("line %d: function %q: expect a signature or a mapping", e.Value.Line, e.Key)
		}
		*fs = append(*fs, f)
	}
	return nil
}

// Virtual is a computed property of a model.
type Virtual struct {
	Name string
	Get  string // Type returned by the getter. Empty means unknown.
	Set  string // Type accepted by the setter, if any.
	Doc  string
}

// Virtuals is an ordered list of virtuals. It is decoded from a mapping of
// name to type, or name to {get, set, doc}.
type Virtuals []*Virtual

// UnmarshalYAML implements yaml.Unmarshaler.
func (vs *Virtuals) UnmarshalYAML(n *yaml.Node) error {
	v := &Value{}
	if err := v.decode(n); err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	if !v.IsMapping() {
		return fmt.Errorf("line %d: expect a mapping of virtual names", n.Line)
	}
	for _, e := range v.Entries {
		vt := &Virtual{Name: e.Key, Doc: e.Comment}
		switch {
		case e.Value.IsScalar():
			vt.Get = e.Value.Scalar
		case e.Value.IsMapping():
			vt.Get = e.Value.Get("get").Text()
			vt.Set = e.Value.Get("set").Text()
			if d := e.Value.Get("doc").Text(); d != "" {
				vt.Doc = d
			}
		}
		*vs = append(*vs, vt)
	}
	return nil
}

// UnmarshalYAML records the position of the schema in its source.
func (s *Schema) UnmarshalYAML(n *yaml.Node) error {
	type plain Schema
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	s.line = n.Line
	return nil
}

// DiscriminatorKey returns the key that tags the variants of s.
func (s *Schema) DiscriminatorKey() string {
	if s.Options.DiscriminatorKey != "" {
		return s.Options.DiscriminatorKey
	}
	return DefaultDiscriminatorKey
}

// DiscriminatorValue returns the value that tags s as a variant.
func (s *Schema) DiscriminatorValue() string {
	if s.Value != "" {
		return s.Value
	}
	return s.Name
}

// DefaultDiscriminatorKey is the key used when a schema does not set one.
const DefaultDiscriminatorKey = "__t"

// File is the top-level structure of a schema source.
type File struct {
	Models []*Schema `yaml:"models"`
}

// Parse decodes the schema source data. The name is used for positions and
// error messages. JSON sources are accepted, as JSON is a subset of YAML.
func Parse(name string, data []byte) ([]*Schema, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load: parse %s: %w", name, err)
	}
	for i, s := range f.Models {
		if s == nil {
			return nil, fmt.Errorf("load: %s: model #%d is empty", name, i)
		}
		if err := s.setPos(name); err != nil {
			return nil, fmt.Errorf("load: %s: %w", name, err)
		}
	}
	return f.Models, nil
}

func (s *Schema) setPos(file string) error {
	if s.Name == "" {
		return fmt.Errorf("line %d: model is missing a name", s.line)
	}
	s.Pos = fmt.Sprintf("%s:%d", file, s.line)
	for _, d := range s.Discriminators {
		if d == nil {
			return fmt.Errorf("line %d: model %q has an empty discriminator", s.line, s.Name)
		}
		if err := d.setPos(file); err != nil {
			return err
		}
	}
	return nil
}
