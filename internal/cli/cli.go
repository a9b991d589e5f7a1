// Package cli implements the shapegen command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/syssam/shapegen/compiler"
	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/gen/ts"
	"github.com/syssam/shapegen/internal/config"
	"github.com/syssam/shapegen/internal/logger"
	"github.com/syssam/shapegen/internal/watch"
)

// Version is the version of the tool, set at build time.
var Version = "dev"

// Run executes the command line with the given arguments.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// flags maps command line flags to configuration keys.
var flags = map[string]string{
	"schemas":          "schemas",
	"output":           "output",
	"header":           "header",
	"dates-as-strings": "dates_as_strings",
	"no-mongoose":      "no_mongoose",
	"workers":          "workers",
	"strict":           "strict",
	"collision":        "collision",
	"log-level":        "log.level",
	"log-pretty":       "log.pretty",
}

// env holds the state shared by the commands of one execution.
type env struct {
	stdout, stderr io.Writer
	configPath     string
}

// NewRootCmd returns the root command. Without a subcommand, it generates.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	e := &env{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "shapegen",
		Short:         "Generate TypeScript declarations from Mongoose schema definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	pf := root.PersistentFlags()
	pf.StringVarP(&e.configPath, "config", "c", "", "configuration file (default: nearest "+config.FileName+")")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.Bool("log-pretty", false, "human readable logs")
	pf.StringSliceP("schemas", "s", nil, "schema files, directories or glob patterns")
	pf.StringP("output", "o", "", "generated declaration file")
	pf.Int("workers", 0, "models processed in parallel (default: number of CPUs)")
	pf.String("collision", "", "name collision policy: error or suffix")

	generate := newGenerateCmd(e)
	root.Flags().AddFlagSet(generate.Flags())
	root.RunE = generate.RunE
	root.AddCommand(generate, newPopulateCmd(e), newVersionCmd(e))
	return root
}

// load returns the configuration of the command and its logger.
func (e *env) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	overrides := make(map[string]any)
	for name, key := range flags {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(name)
			overrides[key] = v
		case "int":
			v, _ := cmd.Flags().GetInt(name)
			overrides[key] = v
		case "stringSlice":
			v, _ := cmd.Flags().GetStringSlice(name)
			overrides[key] = v
		default:
			overrides[key] = f.Value.String()
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	c, err := config.Load(wd, e.configPath, overrides)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log, _ := logger.WithRun(logger.New(e.stderr, c.Log.Level, c.Log.Pretty))
	if c.File != "" {
		log.Debug().Str("file", c.File).Msg("configuration loaded")
	}
	return c, log, nil
}

// genConfig returns the generation config of c.
func genConfig(c *config.Config, log zerolog.Logger) (*gen.Config, error) {
	return gen.NewConfig(append(c.Options(), gen.WithLogger(log))...)
}

func newGenerateCmd(e *env) *cobra.Command {
	var check, watching, dump bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the declaration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, log, err := e.load(cmd)
			if err != nil {
				return err
			}
			gc, err := genConfig(c, log)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case dump:
				g, err := compiler.LoadGraph(ctx, c.LoadConfig(), gc)
				if err != nil {
					return err
				}
				dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true, MaxDepth: 8}
				for _, t := range g.Nodes {
					fmt.Fprintf(e.stdout, "%s (%s)\n", t.Name, t.Pos)
					dumper.Fdump(e.stdout, t.Root)
				}
				return g.Err()
			case check:
				diff, res, err := compiler.Check(ctx, c.LoadConfig(), gc)
				if errors.Is(err, compiler.ErrOutOfDate) {
					fmt.Fprint(e.stdout, diff)
					return err
				}
				if err != nil {
					return err
				}
				return res.Err()
			}
			w := gen.NewWriter()
			run := func(ctx context.Context) error {
				res, err := compiler.Generate(ctx, c.LoadConfig(), gc, w)
				if err != nil {
					return err
				}
				return res.Err()
			}
			if !watching {
				return run(ctx)
			}
			if err := run(ctx); err != nil {
				log.Error().Err(err).Msg("generation failed")
			}
			return watch.New(c.Schemas, log).Run(ctx, run)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&check, "check", false, "report whether the declaration file is up to date without writing it")
	f.BoolVarP(&watching, "watch", "w", false, "regenerate when schema sources change")
	f.BoolVar(&dump, "dump-nodes", false, "print the walked schema trees")
	f.String("header", "", "banner of the generated file")
	f.Bool("dates-as-strings", false, "type dates of plain objects as strings")
	f.Bool("no-mongoose", false, "emit framework-free declarations")
	f.Bool("strict", false, "write nothing if any model fails")
	cmd.MarkFlagsMutuallyExclusive("check", "watch", "dump-nodes")
	return cmd
}

func newPopulateCmd(e *env) *cobra.Command {
	var (
		model, path, family string
		strict              bool
	)
	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Print the shape of a model with a reference path populated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, ok := gen.ParseFamily(family)
			if !ok {
				return gen.NewConfigError("family", family, "use lean or document")
			}
			c, log, err := e.load(cmd)
			if err != nil {
				return err
			}
			gc, err := genConfig(c, log)
			if err != nil {
				return err
			}
			g, err := compiler.LoadGraph(cmd.Context(), c.LoadConfig(), gc)
			if err != nil {
				return err
			}
			mode := gen.PopulateLenient
			if strict {
				mode = gen.PopulateStrict
			}
			x, err := g.Populate(model, f, path, mode)
			if err != nil {
				return err
			}
			text, err := ts.Render(x)
			if err != nil {
				return err
			}
			fmt.Fprintln(e.stdout, text)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&model, "model", "m", "", "model name")
	fl.StringVarP(&path, "path", "p", "", "dotted reference path")
	fl.StringVarP(&family, "family", "f", "lean", "shape family: lean or document")
	fl.BoolVar(&strict, "strict", false, "fail if the path does not lead to a reference")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func newVersionCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(e.stdout, "shapegen %s\n", Version)
		},
	}
}
