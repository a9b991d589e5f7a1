// Package compiler runs the end-to-end pipeline: it loads schema sources,
// builds the model graph, renders the TypeScript declarations and writes,
// or checks, the generated file.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/gen/ts"
	"github.com/syssam/shapegen/compiler/load"
)

// ErrOutOfDate is returned by Check when the generated file differs from
// the file on disk.
var ErrOutOfDate = errors.New("shapegen: generated file is out of date")

// Result describes one run of the pipeline.
type Result struct {
	Graph *gen.Graph
	// Output holds the rendered file.
	Output []byte
	// Changed reports whether the target file was rewritten.
	Changed bool
	// Skipped reports whether writing was skipped in strict mode.
	Skipped  bool
	Duration time.Duration

	renderErr error
}

// Err returns the failures of individual models, joined, or nil. Failed
// models are left out of the output.
func (r *Result) Err() error {
	return errors.Join(r.Graph.Err(), r.renderErr)
}

// LoadGraph loads the schema sources and builds their graph.
func LoadGraph(ctx context.Context, lc *load.Config, c *gen.Config) (*gen.Graph, error) {
	if lc == nil {
		return nil, gen.NewConfigError("Schemas", nil, "missing load config")
	}
	schemas, err := lc.Load()
	if err != nil {
		return nil, err
	}
	return gen.NewGraph(ctx, c, schemas...)
}

// Render loads the schemas and renders the declaration file in memory.
// The returned error is fatal. Failures of individual models are reported
// by Result.Err.
func Render(ctx context.Context, lc *load.Config, c *gen.Config) (*Result, error) {
	start := time.Now()
	g, err := LoadGraph(ctx, lc, c)
	if err != nil {
		return nil, err
	}
	out, err := gen.Generate(ctx, g, ts.New(c))
	if out == nil && err != nil {
		return nil, err
	}
	res := &Result{Graph: g, Output: out, renderErr: err, Duration: time.Since(start)}
	log := c.Logger
	for _, set := range g.Sets {
		if set != nil {
			log.Debug().Str("model", set.Model.Name).Int("decls", len(set.Decls)).Msg("model synthesized")
		}
	}
	for _, f := range g.Failures {
		log.Error().Err(f.Err).Str("model", f.Model).Msg("model failed")
	}
	return res, nil
}

// Generate renders the declaration file and writes it to the configured
// target. In strict mode, nothing is written if any model failed.
func Generate(ctx context.Context, lc *load.Config, c *gen.Config, w *gen.Writer) (*Result, error) {
	if c == nil || c.Target == "" {
		return nil, gen.NewConfigError("Target", nil, "missing output file")
	}
	start := time.Now()
	res, err := Render(ctx, lc, c)
	if err != nil {
		return nil, err
	}
	log := c.Logger
	if c.Strict && res.Err() != nil {
		res.Skipped = true
		log.Warn().Str("output", c.Target).Msg("strict mode: output not written")
		return res, nil
	}
	if w == nil {
		w = gen.NewWriter()
	}
	if res.Changed, err = w.Write(ctx, c.Target, res.Output); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	log.Info().
		Str("output", c.Target).
		Int("models", len(res.Graph.Nodes)).
		Int("failed", len(res.Graph.Failures)).
		Int("bytes", len(res.Output)).
		Bool("changed", res.Changed).
		Dur("duration", res.Duration).
		Msg("generated")
	return res, nil
}

// Check renders the declaration file in memory and compares it with the
// configured target. It returns a unified diff and an error wrapping
// ErrOutOfDate when they differ.
func Check(ctx context.Context, lc *load.Config, c *gen.Config) (string, *Result, error) {
	if c == nil || c.Target == "" {
		return "", nil, gen.NewConfigError("Target", nil, "missing output file")
	}
	res, err := Render(ctx, lc, c)
	if err != nil {
		return "", nil, err
	}
	old, err := os.ReadFile(c.Target)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", nil, fmt.Errorf("shapegen: read %s: %w", c.Target, err)
	}
	if bytes.Equal(old, res.Output) {
		return "", res, nil
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(res.Output)),
		FromFile: c.Target,
		ToFile:   c.Target + " (generated)",
		Context:  3,
	})
	if err != nil {
		return "", nil, fmt.Errorf("shapegen: diff %s: %w", c.Target, err)
	}
	return diff, res, fmt.Errorf("%w: %s", ErrOutOfDate, c.Target)
}
