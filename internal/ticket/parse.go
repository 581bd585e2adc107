package ticket

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// rawRecord is one loosely-typed ticket as it appears in an uploaded batch.
// Uploaded data uses either the query/resolution or question/answer naming
// convention; normalisation happens here, not in the loader's callers.
type rawRecord struct {
	ID         json.RawMessage `json:"id"`
	Query      string          `json:"query"`
	Question   string          `json:"question"`
	Resolution string          `json:"resolution"`
	Answer     string          `json:"answer"`
	Category   string          `json:"category"`
}

// jsonEnvelope matches batches wrapped in an object with a "tickets" key.
type jsonEnvelope struct {
	Tickets []rawRecord `json:"tickets"`
}

// ParseJSON parses a JSON ticket batch. The payload may be a bare array or
// an object with a "tickets" key. Records missing a query or resolution are
// dropped; ids default to the 1-based record position.
func ParseJSON(data []byte) ([]Ticket, error) {
	var records []rawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		var env jsonEnvelope
		if envErr := json.Unmarshal(data, &env); envErr != nil {
			return nil, fmt.Errorf("ticket: invalid JSON batch: %w", err)
		}
		records = env.Tickets
	}

	tickets := make([]Ticket, 0, len(records))
	for i, r := range records {
		t := Ticket{
			ID:         normaliseID(r.ID, i),
			Query:      firstNonEmpty(r.Query, r.Question),
			Resolution: firstNonEmpty(r.Resolution, r.Answer),
			Category:   r.Category,
		}
		if t.Valid() {
			tickets = append(tickets, t)
		}
	}

	return tickets, nil
}

// ParseCSV parses a CSV ticket batch. The header row names the columns;
// id/ticket_id, query/question, and resolution/answer are all accepted.
func ParseCSV(data []byte) ([]Ticket, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ticket: invalid CSV batch: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, names ...string) string {
		for _, name := range names {
			if idx, ok := header[name]; ok && idx < len(row) {
				if v := strings.TrimSpace(row[idx]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	tickets := make([]Ticket, 0, len(rows)-1)
	for i, row := range rows[1:] {
		id := field(row, "id", "ticket_id")
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		t := Ticket{
			ID:         id,
			Query:      field(row, "query", "question"),
			Resolution: field(row, "resolution", "answer"),
			Category:   field(row, "category"),
		}
		if t.Valid() {
			tickets = append(tickets, t)
		}
	}

	return tickets, nil
}

// LoadFile reads a ticket batch from disk, dispatching on the file extension
// (.json or .csv). A missing or unreadable file yields ErrSourceUnavailable.
func LoadFile(path string) ([]Ticket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	case ".csv":
		return ParseCSV(data)
	default:
		return nil, fmt.Errorf("ticket: unsupported data source format %q (want .json or .csv)", path)
	}
}

// normaliseID coerces a raw JSON id (string, number, or absent) to a string,
// falling back to the 1-based record position.
func normaliseID(raw json.RawMessage, index int) string {
	if len(raw) > 0 {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n.String() != "" {
			return n.String()
		}
	}
	return strconv.Itoa(index + 1)
}

// firstNonEmpty returns the first non-empty string of its arguments.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
