package types

import (
	"fmt"
	"strings"
)

// Result messages returned to callers of the ticket processor
const (
	MessageSaved           = "ticket saved"
	MessageDuplicatePrefix = "duplicate found: "
)

// TicketRecord is one stored ticket: the requesters who submitted it and its text.
// Text is never modified once stored; later duplicates only add requesters.
type TicketRecord struct {
	Requesters []string `json:"requesters" yaml:"requesters"`
	Text       string   `json:"text" yaml:"text"`
}

// NewTicketRecord creates a record with a single requester
func NewTicketRecord(requester, text string) TicketRecord {
	return TicketRecord{Requesters: []string{requester}, Text: text}
}

// HasRequester reports whether name is already listed (exact, case-sensitive match)
func (r *TicketRecord) HasRequester(name string) bool {
	for _, existing := range r.Requesters {
		if existing == name {
			return true
		}
	}
	return false
}

// AddRequester inserts name at the front of the requester list unless it is
// already present. Returns true if the record changed.
func (r *TicketRecord) AddRequester(name string) bool {
	if r.HasRequester(name) {
		return false
	}
	r.Requesters = append([]string{name}, r.Requesters...)
	return true
}

// Clone returns a deep copy of the record
func (r TicketRecord) Clone() TicketRecord {
	requesters := make([]string, len(r.Requesters))
	copy(requesters, r.Requesters)
	return TicketRecord{Requesters: requesters, Text: r.Text}
}

// Result is what a processed ticket reports back to the caller
type Result struct {
	Message    string `json:"message"`
	Department string `json:"department"`
	Duplicate  bool   `json:"duplicate"`
}

// SavedResult builds the result for a newly stored ticket
func SavedResult(department string) Result {
	return Result{Message: MessageSaved, Department: department}
}

// DuplicateResult builds the result for a ticket merged into an existing one
func DuplicateResult(department, existingText string) Result {
	return Result{
		Message:    MessageDuplicatePrefix + existingText,
		Department: department,
		Duplicate:  true,
	}
}

func (r Result) String() string {
	return fmt.Sprintf("%s (department: %s)", r.Message, r.Department)
}

// NormalizeLabel lower-cases and trims a classifier label
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
