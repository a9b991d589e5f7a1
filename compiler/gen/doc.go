// Package gen provides the type synthesis engine of shapegen.
//
// This package turns loaded schema definitions into declaration sets: for
// every model, the plain-object (lean) shape returned by lean queries and
// to-object conversion, the live-document shape, and the query, model and
// schema types of the model family.
//
// # Architecture
//
// The pipeline follows this flow:
//
//	Schema sources (*.yaml, *.json)
//	        ↓
//	   load.Schema (raw, ordered definitions)
//	        ↓
//	   Graph (Type and Node trees, claimed names)
//	        ↓
//	   DeclarationSet (shape IR per model)
//	        ↓
//	   Emitter (target language)
//
// NewGraph registers every model and discriminator variant name first, so
// references resolve regardless of declaration order. Models are then
// walked in parallel, the names of their subdocuments claimed sequentially
// in input order, and their shapes synthesized in parallel.
//
// The shape IR is made of Expr values (Ident, Literal, Array, Map, Union,
// Intersection, Object, RefID, Generic and Raw). A DeclarationSet holds the
// Decls of one model family, each tagged with its Role. The Registry owns
// every declaration name of a run; with the suffix policy it renames
// instead of failing.
//
// # Failures
//
// A failing model is recorded in Graph.Failures and left out of the
// output. Its references elsewhere degrade to an ObjectId or any union.
// The typed errors are SchemaError, ConfigError, NameCollisionError,
// PathError and GenerationError, each matching a sentinel with errors.Is:
//
//	g, err := gen.NewGraph(ctx, c, schemas...)
//	if err != nil {
//		return err
//	}
//	if errors.Is(g.Err(), gen.ErrNameCollision) {
//		// rename one of the colliding paths
//	}
//
// Options are functional:
//
//	c, err := gen.NewConfig(gen.WithTarget("src/types/mongoose.gen.ts"), gen.WithCollision("suffix"))
//
// Populate replaces the reference at a dotted path by the referenced shape
// and keeps every array and map crossed on the way:
//
//	shape, err := g.Populate("User", gen.Document, "friends.uid", gen.PopulateStrict)
package gen
