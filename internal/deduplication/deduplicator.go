package deduplication

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/steveyegge/triage/internal/embedding"
	"github.com/steveyegge/triage/internal/types"
)

// Deduplicator finds a stored ticket that a new ticket repeats
type Deduplicator interface {
	// BuildIndex embeds every stored text once. An empty input yields an
	// empty index without calling the embedder.
	BuildIndex(ctx context.Context, texts []string) (*Index, error)

	// FindDuplicate compares query against its nearest neighbor in index.
	// Against an empty index it returns a non-duplicate decision without
	// calling the embedder.
	FindDuplicate(ctx context.Context, query string, index *Index) (*DuplicateDecision, error)
}

// DuplicateDecision is the result of checking one ticket against an index
type DuplicateDecision struct {
	// IsDuplicate is true if similarity >= threshold
	IsDuplicate bool `json:"is_duplicate"`

	// DuplicateOf is the stored text the query duplicates.
	// Only set when IsDuplicate is true
	DuplicateOf string `json:"duplicate_of,omitempty"`

	// Nearest is the closest stored text, duplicate or not
	Nearest string `json:"nearest,omitempty"`

	// Similarity is the cosine similarity between query and Nearest
	Similarity float64 `json:"similarity"`

	// ComparedCount is the number of stored texts searched
	ComparedCount int `json:"compared_count"`
}

// Validate checks if the decision has consistent values
func (d *DuplicateDecision) Validate() error {
	if d.Similarity < -1.0-1e-9 || d.Similarity > 1.0+1e-9 {
		return fmt.Errorf("similarity must be between -1.0 and 1.0 (got %.4f)", d.Similarity)
	}
	if d.IsDuplicate && d.DuplicateOf == "" {
		return fmt.Errorf("duplicate_of must be set when is_duplicate is true")
	}
	if !d.IsDuplicate && d.DuplicateOf != "" {
		return fmt.Errorf("duplicate_of should not be set when is_duplicate is false")
	}
	if d.ComparedCount < 0 {
		return fmt.Errorf("compared_count cannot be negative (got %d)", d.ComparedCount)
	}
	return nil
}

// EmbeddingDeduplicator implements Deduplicator with an Embedder and cosine similarity
type EmbeddingDeduplicator struct {
	embedder embedding.Embedder
	config   Config
}

// Compile-time check that EmbeddingDeduplicator implements Deduplicator
var _ Deduplicator = (*EmbeddingDeduplicator)(nil)

// NewEmbeddingDeduplicator creates a deduplicator. The embedder is used for
// both indexing and querying.
func NewEmbeddingDeduplicator(embedder embedding.Embedder, config Config) (*EmbeddingDeduplicator, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &EmbeddingDeduplicator{embedder: embedder, config: config}, nil
}

// Config returns the deduplicator's configuration
func (d *EmbeddingDeduplicator) Config() Config {
	return d.config
}

// BuildIndex embeds texts in order. Blank texts can never be a meaningful
// match and are left out of the index.
func (d *EmbeddingDeduplicator) BuildIndex(ctx context.Context, texts []string) (*Index, error) {
	index := &Index{}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			log.Printf("[WARN] Skipping blank stored ticket while building index")
			continue
		}
		vector, err := d.embedder.Embed(ctx, text)
		if err != nil {
			return nil, types.WrapExternal("embedding", "index", err)
		}
		if err := index.add(text, vector); err != nil {
			return nil, types.WrapExternal("embedding", "index", err)
		}
	}
	return index, nil
}

// FindDuplicate embeds query, takes its nearest stored neighbor and compares
// the two by cosine similarity against the threshold (inclusive).
func (d *EmbeddingDeduplicator) FindDuplicate(ctx context.Context, query string, index *Index) (*DuplicateDecision, error) {
	decision := &DuplicateDecision{ComparedCount: index.Len()}
	if index.Len() == 0 {
		return decision, nil
	}

	queryVector, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, types.WrapExternal("embedding", "query", err)
	}

	neighbor, ok, err := index.Nearest(queryVector)
	if err != nil {
		return nil, types.WrapExternal("embedding", "query", err)
	}
	if !ok {
		return decision, nil
	}

	neighborVector := neighbor.Vector
	if d.config.ReembedNeighbor {
		neighborVector, err = d.embedder.Embed(ctx, neighbor.Text)
		if err != nil {
			return nil, types.WrapExternal("embedding", "neighbor", err)
		}
	}

	decision.Nearest = neighbor.Text
	decision.Similarity = CosineSimilarity(queryVector, neighborVector)
	if decision.Similarity >= d.config.Threshold {
		decision.IsDuplicate = true
		decision.DuplicateOf = neighbor.Text
	}
	return decision, nil
}
