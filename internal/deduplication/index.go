package deduplication

import "fmt"

// Index is an exact nearest-neighbor index over the embeddings of one
// department's stored ticket texts. A nil or empty Index never matches.
type Index struct {
	entries   []indexEntry
	dimension int
}

type indexEntry struct {
	text   string
	vector []float32
}

// Neighbor is the closest stored text to a query vector
type Neighbor struct {
	Text   string
	Vector []float32
}

func (idx *Index) add(text string, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty embedding for stored ticket %q", truncate(text, 60))
	}
	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return fmt.Errorf("embedding dimension mismatch: got %d, index has %d", len(vector), idx.dimension)
	}
	idx.entries = append(idx.entries, indexEntry{text: text, vector: vector})
	return nil
}

// Len returns the number of indexed texts
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Nearest returns the stored entry with the smallest Euclidean distance to
// query. Ties keep the earliest stored entry. ok is false for an empty index.
func (idx *Index) Nearest(query []float32) (Neighbor, bool, error) {
	if idx.Len() == 0 {
		return Neighbor{}, false, nil
	}
	if len(query) != idx.dimension {
		return Neighbor{}, false, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), idx.dimension)
	}

	best := 0
	bestDist := squaredL2(query, idx.entries[0].vector)
	for i := 1; i < len(idx.entries); i++ {
		if d := squaredL2(query, idx.entries[i].vector); d < bestDist {
			best, bestDist = i, d
		}
	}

	entry := idx.entries[best]
	return Neighbor{Text: entry.text, Vector: entry.vector}, true, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
