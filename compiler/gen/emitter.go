package gen

// Emitter renders declaration sets in a target language. Implementations
// must be safe for concurrent use: models are rendered in parallel.
type Emitter interface {
	// Name returns the name of the target language.
	Name() string
	// Header returns the banner and imports opening the output.
	Header(g *Graph) []byte
	// Model renders the declarations of one model and its variants.
	Model(set *DeclarationSet) ([]byte, error)
	// Helpers returns the declarations closing the output, if any.
	Helpers(g *Graph) []byte
}

// Marker tags files written by the generator. Existing files without it
// are never overwritten.
const Marker = "@generated"
