// Package embedding defines the text embedding capability used for duplicate
// detection, along with the providers that implement it.
//
// The same Embedder must be used to build an index and to query it: vectors
// from different models are not comparable.
package embedding

import "context"

// Embedder converts text into a fixed-length vector
type Embedder interface {
	// Embed returns the embedding of text. Implementations must be safe
	// for concurrent use.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Func adapts a plain function to the Embedder interface
type Func func(ctx context.Context, text string) ([]float32, error)

// Embed calls f
func (f Func) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
