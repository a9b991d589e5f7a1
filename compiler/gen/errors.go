package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below.
var (
	// ErrInvalidSchema indicates a schema definition error.
	ErrInvalidSchema = errors.New("shapegen: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("shapegen: missing configuration")
	// ErrNameCollision indicates two paths derived the same declaration name.
	ErrNameCollision = errors.New("shapegen: name collision")
	// ErrUnknownPath indicates a populate path that names no field.
	ErrUnknownPath = errors.New("shapegen: unknown populate path")
	// ErrGenerationFailed indicates a failure while rendering or writing output.
	ErrGenerationFailed = errors.New("shapegen: code generation failed")
)

// message builds error strings of the form
// "shapegen: <what> <qualifiers>: <message>: <cause>".
type message struct{ strings.Builder }

func newMessage(what string) *message {
	m := &message{}
	m.WriteString("shapegen: ")
	m.WriteString(what)
	return m
}

// qualify appends format when v is not empty.
func (m *message) qualify(format, v string) *message {
	if v != "" {
		fmt.Fprintf(m, format, v)
	}
	return m
}

func (m *message) done(msg string, cause error) string {
	m.qualify(": %s", msg)
	if cause != nil {
		m.qualify(": %s", cause.Error())
	}
	return m.String()
}

// SchemaError reports a definition that cannot be turned into shapes.
type SchemaError struct {
	Model   string // Model name
	Field   string // Dotted field path, if any
	Message string
	Cause   error
}

// NewSchemaError returns a SchemaError.
func NewSchemaError(model, field, msg string, cause error) *SchemaError {
	return &SchemaError{Model: model, Field: field, Message: msg, Cause: cause}
}

func (e *SchemaError) Error() string {
	return newMessage("schema error").
		qualify(" on model %s", e.Model).
		qualify(" field %s", e.Field).
		done(e.Message, e.Cause)
}

func (e *SchemaError) Unwrap() error        { return e.Cause }
func (e *SchemaError) Is(target error) bool { return target == ErrInvalidSchema }

// ConfigError reports an invalid option value.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// NewConfigError returns a ConfigError.
func NewConfigError(option string, value any, msg string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: msg}
}

func (e *ConfigError) Error() string {
	m := newMessage("config error for ").qualify("%q", e.Option)
	if e.Value != nil {
		m.qualify(" (value: %s)", fmt.Sprint(e.Value))
	}
	return m.done(e.Message, nil)
}

func (e *ConfigError) Is(target error) bool { return target == ErrMissingConfig }

// NameCollisionError is returned when a model derives a declaration name
// that was already claimed in the same run. The first claimant in input
// order keeps the name.
type NameCollisionError struct {
	Model      string // Model that lost the claim
	Name       string // Derived declaration name
	Path       string // Path of the losing claimant
	OtherModel string // Model holding the name
	OtherPath  string // Path of the holder
}

func (e *NameCollisionError) Error() string {
	m := newMessage("name collision").
		qualify(" on model %s", e.Model).
		qualify(": %q", e.Name).
		qualify(" derived from %q", e.Path)
	m.WriteString(" is already declared")
	return m.qualify(" by model %s", e.OtherModel).
		qualify(" at %q", e.OtherPath).
		String()
}

func (e *NameCollisionError) Is(target error) bool { return target == ErrNameCollision }

// PathError is returned by a strict populate when a path segment does not
// lead to a field of the shape it is applied to.
type PathError struct {
	Path    string // Full dotted path
	Segment string // Segment that failed to match
	Shape   string // Name of the shape, if known
	Message string
}

func (e *PathError) Error() string {
	m := newMessage("populate path ")
	fmt.Fprintf(m, "%q", e.Path)
	return m.qualify(" segment %q", e.Segment).
		qualify(" on %s", e.Shape).
		done(e.Message, nil)
}

func (e *PathError) Is(target error) bool { return target == ErrUnknownPath }

// GenerationError reports a failure of one phase of the pipeline after the
// shapes were built: rendering, writing or parity checks.
type GenerationError struct {
	Phase   string // "render", "write", "detach", ...
	Model   string
	Message string
	Cause   error
}

// NewGenerationError returns a GenerationError.
func NewGenerationError(phase, model, msg string, cause error) *GenerationError {
	return &GenerationError{Phase: phase, Model: model, Message: msg, Cause: cause}
}

func (e *GenerationError) Error() string {
	return newMessage("generation error").
		qualify(" in phase %s", e.Phase).
		qualify(" (model: %s)", e.Model).
		done(e.Message, e.Cause)
}

func (e *GenerationError) Unwrap() error        { return e.Cause }
func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// IsSchemaError reports whether err wraps a *SchemaError.
func IsSchemaError(err error) bool { return as[*SchemaError](err) }

// IsConfigError reports whether err wraps a *ConfigError.
func IsConfigError(err error) bool { return as[*ConfigError](err) }

// IsNameCollisionError reports whether err wraps a *NameCollisionError.
func IsNameCollisionError(err error) bool { return as[*NameCollisionError](err) }

// IsPathError reports whether err wraps a *PathError.
func IsPathError(err error) bool { return as[*PathError](err) }

// IsGenerationError reports whether err wraps a *GenerationError.
func IsGenerationError(err error) bool { return as[*GenerationError](err) }

func as[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
