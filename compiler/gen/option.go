package gen

import (
	"errors"
	"runtime"

	"github.com/rs/zerolog"
)

// Config holds the configuration of a generation run.
type Config struct {
	// Header replaces the banner of the generated file. The "@generated"
	// marker is always kept.
	Header string
	// Target is the path of the generated declaration file.
	Target string
	// DatesAsStrings renders date fields of plain-object shapes as strings.
	DatesAsStrings bool
	// NoMongoose emits framework-free declarations: plain-object shapes and
	// their Object aliases only, with identifiers rendered as strings.
	NoMongoose bool
	// Workers bounds the number of models processed in parallel.
	// Zero means GOMAXPROCS.
	Workers int
	// Collision selects how duplicate derived names are handled.
	Collision CollisionPolicy
	// Strict skips writing the output if any model failed.
	Strict bool
	// Logger receives diagnostics. The zero value discards them.
	Logger zerolog.Logger
}

// CollisionPolicy defines how two paths deriving the same name are handled.
type CollisionPolicy string

// List of collision policies.
const (
	// CollisionError fails the model that claims the name second.
	CollisionError CollisionPolicy = "error"
	// CollisionSuffix appends the smallest free numeric suffix.
	CollisionSuffix CollisionPolicy = "suffix"
)

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the banner of the generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithTarget sets the output file.
func WithTarget(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("Target", nil, "target file cannot be empty")
		}
		c.Target = path
		return nil
	}
}

// WithDatesAsStrings renders dates of plain-object shapes as strings.
func WithDatesAsStrings(v bool) Option {
	return func(c *Config) error {
		c.DatesAsStrings = v
		return nil
	}
}

// WithNoMongoose enables the framework-free mode.
func WithNoMongoose(v bool) Option {
	return func(c *Config) error {
		c.NoMongoose = v
		return nil
	}
}

// WithWorkers sets the number of models processed in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithCollision sets the collision policy by name.
// Supported policies: "error", "suffix". An empty name selects "error".
func WithCollision(policy string) Option {
	return func(c *Config) error {
		switch p := CollisionPolicy(policy); p {
		case "", CollisionError:
			c.Collision = CollisionError
		case CollisionSuffix:
			c.Collision = p
		default:
			return NewConfigError("Collision", policy, "unsupported policy; use error or suffix")
		}
		return nil
	}
}

// WithStrict skips writing the output when any model fails.
func WithStrict(v bool) Option {
	return func(c *Config) error {
		c.Strict = v
		return nil
	}
}

// WithLogger sets the logger of the run.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Collision: CollisionError,
		Logger:    zerolog.Nop(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
