// Package config loads the configuration of the command line tool from
// defaults, an optional shapegen.yaml file, SHAPEGEN_* environment variables
// and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/load"
)

// FileName is the name of the discovered configuration file.
const FileName = "shapegen.yaml"

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "SHAPEGEN_"

// Config is the configuration of a run.
type Config struct {
	Schemas        []string  `koanf:"schemas"`
	Output         string    `koanf:"output"`
	Header         string    `koanf:"header"`
	DatesAsStrings bool      `koanf:"dates_as_strings"`
	NoMongoose     bool      `koanf:"no_mongoose"`
	Workers        int       `koanf:"workers"`
	Strict         bool      `koanf:"strict"`
	Collision      string    `koanf:"collision"`
	Log            LogConfig `koanf:"log"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// Defaults returns the default values of every key.
func Defaults() map[string]any {
	return map[string]any{
		"schemas":          []string{"schemas"},
		"output":           "src/types/mongoose.gen.ts",
		"header":           "",
		"dates_as_strings": false,
		"no_mongoose":      false,
		"workers":          0,
		"strict":           false,
		"collision":        string(gen.CollisionError),
		"log.level":        "info",
		"log.pretty":       false,
	}
}

// Load builds the configuration. If path is empty, the configuration file
// is discovered by walking up from dir; a missing file is not an error.
// Relative paths found in the file are resolved against its directory.
// Overrides hold the keys set on the command line.
func Load(dir, path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path == "" {
		path = Discover(dir)
	}
	if path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := resolve(fk, filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("config: resolve %s: %w", path, err)
		}
		if err := k.Merge(fk); err != nil {
			return nil, fmt.Errorf("config: merge %s: %w", path, err)
		}
	}
	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.File = path
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// envKey maps SHAPEGEN_LOG_LEVEL to log.level and SHAPEGEN_NO_MONGOOSE to
// no_mongoose.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

// resolve rewrites the relative paths of a configuration file against dir.
func resolve(k *koanf.Koanf, dir string) error {
	if k.Exists("schemas") {
		schemas := k.Strings("schemas")
		for i, s := range schemas {
			if !filepath.IsAbs(s) {
				schemas[i] = filepath.Join(dir, s)
			}
		}
		if err := k.Set("schemas", schemas); err != nil {
			return fmt.Errorf("schemas: %w", err)
		}
	}
	if out := k.String("output"); out != "" && !filepath.IsAbs(out) {
		if err := k.Set("output", filepath.Join(dir, out)); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}
	return nil
}

// Discover returns the path of the nearest configuration file in dir or
// one of its parents, or "".
func Discover(dir string) string {
	if dir == "" {
		return ""
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Validate checks the values of the configuration.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Schemas) == 0 {
		errs = append(errs, gen.NewConfigError("schemas", nil, "at least one schema path is required"))
	}
	if c.Output == "" {
		errs = append(errs, gen.NewConfigError("output", nil, "output file cannot be empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, gen.NewConfigError("workers", c.Workers, "workers cannot be negative"))
	}
	switch gen.CollisionPolicy(c.Collision) {
	case gen.CollisionError, gen.CollisionSuffix:
	default:
		errs = append(errs, gen.NewConfigError("collision", c.Collision, "unsupported policy; use error or suffix"))
	}
	return errors.Join(errs...)
}

// LoadConfig returns the schema loading configuration.
func (c *Config) LoadConfig() *load.Config {
	return &load.Config{Paths: c.Schemas}
}

// Options returns the generation options of the configuration.
func (c *Config) Options() []gen.Option {
	return []gen.Option{
		gen.WithTarget(c.Output),
		gen.WithHeader(c.Header),
		gen.WithDatesAsStrings(c.DatesAsStrings),
		gen.WithNoMongoose(c.NoMongoose),
		gen.WithWorkers(c.Workers),
		gen.WithStrict(c.Strict),
		gen.WithCollision(c.Collision),
	}
}
