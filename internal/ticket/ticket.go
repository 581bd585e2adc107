// Package ticket defines the support-ticket record model and the loaders
// that turn raw JSON or CSV batches into validated records. The indexing
// layer consumes only validated tickets — a record missing its query or
// resolution never reaches the vector store.
package ticket

import (
	"errors"
)

// ErrSourceUnavailable is returned when a ticket data source cannot be read
// (missing file, unreadable path).
var ErrSourceUnavailable = errors.New("ticket: data source unavailable")

// DefaultCategory is the sentinel label applied when a ticket has no
// category of its own.
const DefaultCategory = "general"

// Ticket is one resolved support case. Query is the indexed/embedded field;
// Resolution is returned as grounding evidence and is never embedded.
type Ticket struct {
	// ID is the opaque unique ticket identifier. Caller-supplied, or
	// positionally generated during parsing when absent.
	ID string `json:"id"`

	// Query is the customer question or issue description.
	Query string `json:"query"`

	// Resolution is how the issue was resolved.
	Resolution string `json:"resolution"`

	// Category is an optional label; empty means DefaultCategory.
	Category string `json:"category,omitempty"`
}

// Valid reports whether the ticket carries both of its required text fields.
// Invalid tickets are filtered out during parsing and indexing.
func (t Ticket) Valid() bool {
	return t.Query != "" && t.Resolution != ""
}
