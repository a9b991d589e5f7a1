package compiler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/load"
)

// extract writes the files of a txtar archive from testdata into a temporary
// directory and returns its path.
func extract(t *testing.T, name string) string {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	dir := t.TempDir()
	for _, f := range ar.Files {
		p := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, f.Data, 0o644))
	}
	return dir
}

// setup returns the load and generation configs of the shop fixture.
func setup(t *testing.T, opts ...gen.Option) (*load.Config, *gen.Config, string) {
	t.Helper()
	dir := extract(t, "shop.txtar")
	target := filepath.Join(dir, "types", "mongoose.gen.ts")
	c, err := gen.NewConfig(append([]gen.Option{gen.WithTarget(target)}, opts...)...)
	require.NoError(t, err)
	return &load.Config{Paths: []string{filepath.Join(dir, "schemas")}}, c, target
}

func TestGenerate(t *testing.T) {
	var (
		ctx           = context.Background()
		buf           bytes.Buffer
		lc, c, target = setup(t, gen.WithLogger(zerolog.New(zerolog.SyncWriter(&buf))))
		w             = gen.NewWriter()
	)

	res, err := Generate(ctx, lc, c, w)
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.True(t, res.Changed)
	assert.Len(t, res.Graph.Nodes, 2)

	out, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, res.Output, out)
	for _, want := range []string{
		"export type CustomerAddress = {\nstreet?: string;\ncity?: string;\n_id: mongoose.Types.ObjectId;\n}\n",
		"customer: Customer[\"_id\"] | Customer;\n",
		"items: mongoose.Types.DocumentArray<OrderItemDocument>;\n",
		"status?: \"pending\" | \"paid\";\n",
		"createdAt?: Date;\nupdatedAt?: Date;\n_id: mongoose.Types.ObjectId;\n",
	} {
		assert.Contains(t, string(out), want)
	}
	assert.Less(t, bytes.Index(out, []byte("export type Customer =")), bytes.Index(out, []byte("export type Order =")), "file order")
	assert.Contains(t, buf.String(), `"message":"generated"`)

	t.Run("idempotent", func(t *testing.T) {
		res, err := Generate(ctx, lc, c, w)
		require.NoError(t, err)
		assert.False(t, res.Changed)
		assert.Equal(t, out, res.Output)
		assert.Equal(t, 1, w.Metrics().FilesUnchanged)

		diff, _, err := Check(ctx, lc, c)
		require.NoError(t, err)
		assert.Empty(t, diff)
	})

	t.Run("out of date", func(t *testing.T) {
		customer := filepath.Join(lc.Paths[0], "customer.yaml")
		src, err := os.ReadFile(customer)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(customer, append(src, "      phone: String\n"...), 0o644))

		diff, res, err := Check(ctx, lc, c)
		require.ErrorIs(t, err, ErrOutOfDate)
		require.NotNil(t, res)
		assert.Contains(t, diff, "+phone?: string;\n")
		assert.Contains(t, diff, "--- "+target)

		after, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, out, after, "check never writes")
	})
}

func TestGenerateFailures(t *testing.T) {
	broken := func(t *testing.T, lc *load.Config) {
		t.Helper()
		p := filepath.Join(lc.Paths[0], "duplicate.yaml")
		require.NoError(t, os.WriteFile(p, []byte("models:\n  - name: Customer\n"), 0o644))
	}

	t.Run("partial output", func(t *testing.T) {
		lc, c, target := setup(t)
		broken(t, lc)
		res, err := Generate(context.Background(), lc, c, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, res.Err(), gen.ErrInvalidSchema)
		assert.True(t, res.Changed)
		out, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(out), "export type Order =")
	})

	t.Run("strict", func(t *testing.T) {
		lc, c, target := setup(t, gen.WithStrict(true))
		broken(t, lc)
		res, err := Generate(context.Background(), lc, c, nil)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Error(t, res.Err())
		_, err = os.Stat(target)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing schemas", func(t *testing.T) {
		_, c, _ := setup(t)
		_, err := Generate(context.Background(), &load.Config{Paths: []string{filepath.Join(t.TempDir(), "*.yaml")}}, c, nil)
		assert.ErrorIs(t, err, load.ErrNoSchema)
	})

	t.Run("missing target", func(t *testing.T) {
		lc, _, _ := setup(t)
		_, err := Generate(context.Background(), lc, gen.MustNewConfig(), nil)
		assert.True(t, gen.IsConfigError(err))
		_, _, err = Check(context.Background(), lc, gen.MustNewConfig())
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("canceled", func(t *testing.T) {
		lc, c, _ := setup(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Generate(ctx, lc, c, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCheckMissingFile(t *testing.T) {
	lc, c, target := setup(t)
	diff, _, err := Check(context.Background(), lc, c)
	require.ErrorIs(t, err, ErrOutOfDate)
	assert.Contains(t, diff, "+++ "+target+" (generated)")
	assert.Contains(t, diff, "+export type Customer = {")
}
