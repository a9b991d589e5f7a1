package gen

import (
	"bytes"
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Generate renders the declaration sets of the graph with the given emitter.
// Models are rendered in parallel and concatenated in input order. A model
// failing to render is dropped from the graph and reported in the returned
// error, along with the output of the others. The models referring to it
// are synthesized and rendered again without the reference.
func Generate(ctx context.Context, g *Graph, e Emitter) ([]byte, error) {
	if g == nil || g.Config == nil {
		return nil, NewConfigError("Graph", nil, "missing graph config")
	}
	var (
		chunks  = make([][]byte, len(g.Sets))
		errs    = make([]error, len(g.Sets))
		pending []int
	)
	for i, set := range g.Sets {
		if set != nil {
			pending = append(pending, i)
		}
	}
	for len(pending) > 0 {
		if err := render(ctx, g, e, pending, chunks, errs); err != nil {
			return nil, err
		}
		var failed []int
		for _, i := range pending {
			if errs[i] != nil {
				chunks[i] = nil
				failed = append(failed, i)
			}
		}
		rebuilt, err := g.drop(ctx, failed)
		if err != nil {
			return nil, err
		}
		for i, set := range g.Sets {
			if set == nil {
				chunks[i] = nil
			}
		}
		pending = rebuilt
	}
	var buf bytes.Buffer
	buf.Write(e.Header(g))
	for _, c := range chunks {
		if len(c) == 0 {
			continue
		}
		buf.WriteByte('\n')
		buf.Write(c)
	}
	if h := e.Helpers(g); len(h) > 0 {
		buf.WriteByte('\n')
		buf.Write(h)
	}
	return buf.Bytes(), errors.Join(errs...)
}

// render renders the sets at the given positions into chunks. Render
// failures are stored in errs.
func render(ctx context.Context, g *Graph, e Emitter, positions []int, chunks [][]byte, errs []error) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers())
	for _, i := range positions {
		set := g.Sets[i]
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			b, err := e.Model(set)
			if err != nil {
				errs[i] = NewGenerationError("emit", set.Model.Name, "render "+e.Name(), err)
				return nil
			}
			chunks[i] = b
			return nil
		})
	}
	return eg.Wait()
}
