// Package storage defines the department store used by the ticket processor.
package storage

import (
	"context"

	"github.com/steveyegge/triage/internal/types"
)

// Store loads and saves the full record list of a department.
// Save always rewrites the whole department; there is no incremental append.
type Store interface {
	// Load returns the department's records in stored order.
	// A department with no backing data yields an empty slice and nil error.
	Load(ctx context.Context, dept types.Department) ([]types.TicketRecord, error)

	// Save replaces the department's records with records.
	Save(ctx context.Context, dept types.Department, records []types.TicketRecord) error
}
