package load

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueKind describes the YAML shape of a definition value.
type ValueKind uint8

// List of value kinds.
const (
	NullValue ValueKind = iota
	ScalarValue
	SequenceValue
	MappingValue
)

// Value is a raw field definition as written in a schema source. Mapping
// entries keep their declaration order, which drives the field order of every
// generated declaration.
type Value struct {
	Kind    ValueKind
	Scalar  string   // Scalar text, if ScalarValue.
	Tag     string   // Resolved YAML tag of a scalar (e.g. "!!str", "!!bool").
	Items   []*Value // Sequence items, if SequenceValue.
	Entries []*Entry // Mapping entries in declaration order, if MappingValue.
	Comment string   // Comment attached to the value node.
	Line    int
}

// Entry is a single key of a mapping Value.
type Entry struct {
	Key     string
	Value   *Value
	Comment string // Head or line comment attached to the key, without '#'.
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	return v.decode(n)
}

func (v *Value) decode(n *yaml.Node) error {
	v.Line = n.Line
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			v.Kind = NullValue
			return nil
		}
		return v.decode(n.Content[0])
	case yaml.AliasNode:
		return v.decode(n.Alias)
	case yaml.ScalarNode:
		v.Tag = n.ShortTag()
		v.Comment = Comment(n.LineComment)
		if v.Tag == "!!null" {
			v.Kind = NullValue
			return nil
		}
		v.Kind = ScalarValue
		v.Scalar = n.Value
	case yaml.SequenceNode:
		v.Kind = SequenceValue
		v.Items = make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			item := &Value{}
			if err := item.decode(c); err != nil {
				return err
			}
			v.Items = append(v.Items, item)
		}
	case yaml.MappingNode:
		v.Kind = MappingValue
		seen := make(map[string]bool, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			if seen[k.Value] {
				return fmt.Errorf("line %d: duplicate key %q", k.Line, k.Value)
			}
			seen[k.Value] = true
			e := &Entry{Key: k.Value, Value: &Value{}}
			if err := e.Value.decode(val); err != nil {
				return err
			}
			e.Comment = entryComment(k, val)
			v.Entries = append(v.Entries, e)
		}
	default:
		return fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
	}
	return nil
}

// entryComment returns the comment documenting a mapping key. A head comment
// wins over line comments on the key or on a scalar value.
func entryComment(k, v *yaml.Node) string {
	for _, c := range []string{k.HeadComment, k.LineComment, v.LineComment} {
		if c != "" {
			return Comment(c)
		}
	}
	return ""
}

// Comment strips the YAML comment markers from each line of c.
func Comment(c string) string {
	if c == "" {
		return ""
	}
	lines := strings.Split(c, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "#")
		lines[i] = strings.TrimPrefix(l, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// Get returns the value of the given key, or nil if v is not a
// mapping or does not hold the key.
func (v *Value) Get(key string) *Value {
	if e := v.Entry(key); e != nil {
		return e.Value
	}
	return nil
}

// Entry returns the mapping entry of the given key, or nil.
func (v *Value) Entry(key string) *Entry {
	if v == nil || v.Kind != MappingValue {
		return nil
	}
	for _, e := range v.Entries {
		if e.Key == key {
			return e
		}
	}
	return nil
}

// Has reports if v is a mapping holding the given key.
func (v *Value) Has(key string) bool { return v.Entry(key) != nil }

// IsNull reports if v is missing or explicitly null.
func (v *Value) IsNull() bool { return v == nil || v.Kind == NullValue }

// IsScalar reports if v is a scalar.
func (v *Value) IsScalar() bool { return v != nil && v.Kind == ScalarValue }

// IsSequence reports if v is a sequence.
func (v *Value) IsSequence() bool { return v != nil && v.Kind == SequenceValue }

// IsMapping reports if v is a mapping.
func (v *Value) IsMapping() bool { return v != nil && v.Kind == MappingValue }

// Bool returns the boolean value of a scalar. The second result is false
// if v does not hold a boolean.
func (v *Value) Bool() (bool, bool) {
	if !v.IsScalar() || v.Tag != "!!bool" {
		return false, false
	}
	switch strings.ToLower(v.Scalar) {
	case "true", "yes", "on":
		return true, true
	default:
		return false, true
	}
}

// Text returns the scalar text of v, or "" if v is not a scalar.
func (v *Value) Text() string {
	if !v.IsScalar() {
		return ""
	}
	return v.Scalar
}

// String implements fmt.Stringer, used in diagnostics.
func (v *Value) String() string {
	switch {
	case v == nil, v.Kind == NullValue:
		return "null"
	case v.Kind == ScalarValue:
		return v.Scalar
	case v.Kind == SequenceValue:
		items := make([]string, len(v.Items))
		for i, it := range v.Items {
			items[i] = it.String()
		}
		return "[" + strings.Join(items, ", ") + "]"
	default:
		entries := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			entries[i] = e.Key + ": " + e.Value.String()
		}
		return "{" + strings.Join(entries, ", ") + "}"
	}
}
