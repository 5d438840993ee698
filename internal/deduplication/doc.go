// Package deduplication detects tickets that repeat one already stored for the
// same department.
//
// # Overview
//
// Every stored ticket text of a department is embedded into an in-memory
// Index. A new ticket is embedded, its nearest stored neighbor is looked up
// (k=1), and the cosine similarity between the two embeddings is computed
// explicitly. The neighbor is a duplicate when the similarity is at or above
// Config.Threshold (default 0.90, inclusive).
//
// The Index is ephemeral: it is rebuilt from the store on every submission
// and never persisted.
//
// # Embedding calls
//
//   - BuildIndex: one call per stored non-blank text, none for an empty store
//   - FindDuplicate: none against an empty index; otherwise one for the query
//     and, with Config.ReembedNeighbor (default), one more for the neighbor
//
// Errors from the embedder are returned wrapped as *types.ExternalServiceError
// and are not retried.
//
// # Merging
//
// MergeRequester applies the merge policy for a detected duplicate: the
// requester is placed at the front of the matching record's requester list
// unless already present. The stored text never changes.
//
// # Usage
//
//	dedup, err := deduplication.NewEmbeddingDeduplicator(embedder, deduplication.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	index, err := dedup.BuildIndex(ctx, texts)
//	if err != nil {
//	    return err
//	}
//	decision, err := dedup.FindDuplicate(ctx, ticket, index)
//	if err != nil {
//	    return err
//	}
//	if decision.IsDuplicate {
//	    records = deduplication.MergeRequester(records, decision.DuplicateOf, requester)
//	}
package deduplication
