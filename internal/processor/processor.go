// Package processor routes a ticket to its department and stores it,
// merging it into an existing ticket when it is a duplicate.
package processor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/steveyegge/triage/internal/ai"
	"github.com/steveyegge/triage/internal/deduplication"
	"github.com/steveyegge/triage/internal/storage"
	"github.com/steveyegge/triage/internal/types"
)

// Config holds the collaborators of a Processor
type Config struct {
	Departments  *types.DepartmentTable
	Store        storage.Store
	Classifier   ai.Classifier
	Deduplicator deduplication.Deduplicator
}

// Processor runs the classify → load → index → search → merge-or-append → save
// flow for one ticket at a time per department.
type Processor struct {
	departments  *types.DepartmentTable
	store        storage.Store
	classifier   ai.Classifier
	deduplicator deduplication.Deduplicator
	locks        *storage.DepartmentLocks
}

// New creates a processor; every collaborator is required
func New(cfg *Config) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Departments == nil {
		return nil, fmt.Errorf("department table is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if cfg.Deduplicator == nil {
		return nil, fmt.Errorf("deduplicator is required")
	}

	return &Processor{
		departments:  cfg.Departments,
		store:        cfg.Store,
		classifier:   cfg.Classifier,
		deduplicator: cfg.Deduplicator,
		locks:        storage.NewDepartmentLocks(),
	}, nil
}

// Departments returns the department table the processor routes to
func (p *Processor) Departments() *types.DepartmentTable {
	return p.departments
}

// Process classifies ticket, then either merges requester into the stored
// duplicate or appends a new record. The department is loaded once and
// saved once; an unknown label or any collaborator failure returns before
// anything is written.
func (p *Processor) Process(ctx context.Context, ticket, requester string) (types.Result, error) {
	ticket, requester, err := normalizeSubmission(ticket, requester)
	if err != nil {
		return types.Result{}, err
	}

	requestID := uuid.NewString()[:8]

	label, err := p.classifier.Classify(ctx, ticket)
	if err != nil {
		return types.Result{}, types.WrapExternal("classifier", "classify", err)
	}
	dept, err := p.departments.Lookup(label)
	if err != nil {
		log.Printf("[WARN] [%s] Classifier returned unknown department %q", requestID, label)
		return types.Result{}, err
	}
	log.Printf("[%s] Ticket from %s classified as %q", requestID, requester, dept.Label)

	// The department stays locked from load to save so concurrent
	// submissions cannot overwrite each other.
	unlock := p.locks.Lock(dept.Label)
	defer unlock()

	records, err := p.store.Load(ctx, dept)
	if err != nil {
		return types.Result{}, fmt.Errorf("loading %s tickets: %w", dept.Label, err)
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	index, err := p.deduplicator.BuildIndex(ctx, texts)
	if err != nil {
		return types.Result{}, fmt.Errorf("indexing %s tickets: %w", dept.Label, err)
	}

	decision, err := p.deduplicator.FindDuplicate(ctx, ticket, index)
	if err != nil {
		return types.Result{}, fmt.Errorf("searching %s duplicates: %w", dept.Label, err)
	}
	if err := decision.Validate(); err != nil {
		return types.Result{}, fmt.Errorf("searching %s duplicates: %w", dept.Label, err)
	}

	if decision.IsDuplicate {
		merged := deduplication.MergeRequester(records, decision.DuplicateOf, requester)
		if err := p.store.Save(ctx, dept, merged); err != nil {
			return types.Result{}, fmt.Errorf("saving %s tickets: %w", dept.Label, err)
		}
		log.Printf("[%s] Duplicate of existing %s ticket (similarity %.3f, compared %d)",
			requestID, dept.Label, decision.Similarity, decision.ComparedCount)
		return types.DuplicateResult(dept.Label, decision.DuplicateOf), nil
	}

	records = append(records, types.NewTicketRecord(requester, ticket))
	if err := p.store.Save(ctx, dept, records); err != nil {
		return types.Result{}, fmt.Errorf("saving %s tickets: %w", dept.Label, err)
	}
	log.Printf("[%s] Saved new %s ticket (%d total)", requestID, dept.Label, len(records))
	return types.SavedResult(dept.Label), nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// normalizeSubmission trims both fields and folds line breaks in the ticket
// into spaces, since the department file holds one record per line. Names
// cannot contain the characters that delimit the requester list.
func normalizeSubmission(ticket, requester string) (string, string, error) {
	ticket = strings.TrimSpace(lineBreaks.Replace(ticket))
	requester = strings.TrimSpace(requester)

	if ticket == "" {
		return "", "", fmt.Errorf("%w: ticket text is required", types.ErrInvalidTicket)
	}
	if requester == "" {
		return "", "", fmt.Errorf("%w: requester name is required", types.ErrInvalidTicket)
	}
	if strings.ContainsAny(requester, ",[]\r\n") {
		return "", "", fmt.Errorf("%w: requester name cannot contain commas, brackets or line breaks", types.ErrInvalidTicket)
	}
	return ticket, requester, nil
}
