package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateOnly is a custom type for handling date-only strings from JSON
type DateOnly struct {
	time.Time
}

// ParseDateOnly parses a YYYY-MM-DD string into a DateOnly
func ParseDateOnly(s string) (DateOnly, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DateOnly{}, fmt.Errorf("must be YYYY-MM-DD")
	}
	return DateOnly{Time: t}, nil
}

// UnmarshalJSON implements custom unmarshaling for date-only strings
func (d *DateOnly) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	// Handle null/empty dates
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements custom marshaling for date-only strings
func (d DateOnly) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format("2006-01-02"))
}

// String returns the date in YYYY-MM-DD form
func (d DateOnly) String() string {
	return d.Time.Format("2006-01-02")
}

// Status is an invoice payment status. The store layer treats status as
// opaque text; only ParseStatus produces validated values.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// ParseStatus validates a raw status string
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusUnpaid, StatusPaid, StatusOverdue:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status. Allowed: overdue, paid, unpaid")
}

// Invoice represents the core domain entity for an invoice
type Invoice struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	ClientName    string    `json:"client_name"`
	Amount        float64   `json:"amount"`
	IssueDate     *DateOnly `json:"issue_date"`
	DueDate       *DateOnly `json:"due_date"`
	Status        Status    `json:"status"`
	PDFPath       *string   `json:"pdf_path"`
}

// Sortable fields for invoice queries; anything else falls back to id.
var sortFields = map[string]bool{
	"id":             true,
	"invoice_number": true,
	"client_name":    true,
	"amount":         true,
	"issue_date":     true,
	"due_date":       true,
	"status":         true,
}

// InvoiceFilter represents filters, sorting and pagination for querying
// invoices. All filters are optional and conjunctive.
type InvoiceFilter struct {
	InvoiceNumber string
	ClientName    string
	Status        string
	IssueFrom     *DateOnly
	IssueTo       *DateOnly
	MinAmount     *float64
	MaxAmount     *float64

	Sort  string
	Order string

	Page  int
	Limit int
}

// DefaultPageLimit is the page size used when a request does not ask for
// one. The filter has no notion of "unset": callers wanting the default
// set it before querying.
const DefaultPageLimit = 10

// Normalize clamps pagination into range, defaults the sort direction and
// replaces unknown sort fields with id. Both repository backends rely on it
// so the query contract does not depend on the backing store.
func (f *InvoiceFilter) Normalize() {
	if !sortFields[f.Sort] {
		f.Sort = "id"
	}
	if f.Order != "desc" {
		f.Order = "asc"
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Offset returns the row offset for the current page
func (f *InvoiceFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
