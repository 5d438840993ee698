package deduplication

import "github.com/steveyegge/triage/internal/types"

// MergeRequester records that requester also submitted the stored ticket
// whose text equals duplicateText. The requester goes to the front of every
// matching record unless already listed there. Other records are returned
// unchanged. The input slice is not modified.
func MergeRequester(records []types.TicketRecord, duplicateText, requester string) []types.TicketRecord {
	merged := make([]types.TicketRecord, len(records))
	for i, record := range records {
		if record.Text == duplicateText {
			record = record.Clone()
			record.AddRequester(requester)
		}
		merged[i] = record
	}
	return merged
}
