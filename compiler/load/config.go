package load

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoSchema is returned when the configured paths match no schema source.
var ErrNoSchema = errors.New("load: no schema sources found")

// Extensions lists the file extensions recognized as schema sources.
var Extensions = []string{".yaml", ".yml", ".json"}

// Config holds the configuration for loading schema sources.
type Config struct {
	// Paths are files, directories or glob patterns of schema sources.
	Paths []string
}

// Files expands the configured paths into the sorted list of schema files.
// Directories are scanned (non-recursively) for files with a known extension.
func (c *Config) Files() ([]string, error) {
	var files []string
	for _, p := range c.Paths {
		matches, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !slices.Contains(files, m) {
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSchema, strings.Join(c.Paths, ", "))
	}
	return files, nil
}

func expand(p string) ([]string, error) {
	if strings.ContainsAny(p, "*?[") {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("load: bad pattern %q: %w", p, err)
		}
		slices.Sort(matches)
		return slices.DeleteFunc(matches, func(m string) bool { return !isSource(m) }), nil
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.Type()&fs.ModeType == 0 && isSource(e.Name()) {
			files = append(files, filepath.Join(p, e.Name()))
		}
	}
	return files, nil
}

func isSource(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Load reads and parses all schema sources, in file order and then in
// declaration order within each file.
func (c *Config) Load() ([]*Schema, error) {
	files, err := c.Files()
	if err != nil {
		return nil, err
	}
	var schemas []*Schema
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		s, err := Parse(f, data)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s...)
	}
	return schemas, nil
}
