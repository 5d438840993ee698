package textfile

import (
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// ParseLine decodes one stored line of the form "[name1, name2] ticket text".
// Leading and trailing whitespace is ignored. Lines that do not start with "["
// or have no closing "]" are rejected (ok=false); callers drop them.
// Names are split on commas inside the first bracket pair and empty names
// are discarded, so a name containing "," or "]" cannot round-trip.
func ParseLine(line string) (types.TicketRecord, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return types.TicketRecord{}, false
	}
	closing := strings.Index(line, "]")
	if closing < 0 {
		return types.TicketRecord{}, false
	}

	var requesters []string
	for _, name := range strings.Split(line[1:closing], ",") {
		if name = strings.TrimSpace(name); name != "" {
			requesters = append(requesters, name)
		}
	}

	return types.TicketRecord{
		Requesters: requesters,
		Text:       strings.TrimSpace(line[closing+1:]),
	}, true
}

// FormatRecord encodes a record as a single line without the trailing newline
func FormatRecord(record types.TicketRecord) string {
	line := "[" + strings.Join(record.Requesters, ", ") + "] " + record.Text
	return strings.TrimSpace(line)
}

// Parse decodes a whole department file, skipping malformed lines.
// skipped reports how many non-blank lines were dropped.
func Parse(content string) (records []types.TicketRecord, skipped int) {
	records = []types.TicketRecord{}
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped
}

// Format encodes records as a department file, one line per record
func Format(records []types.TicketRecord) string {
	var b strings.Builder
	for _, record := range records {
		b.WriteString(FormatRecord(record))
		b.WriteByte('\n')
	}
	return b.String()
}
