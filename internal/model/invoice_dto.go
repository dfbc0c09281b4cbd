package model

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/billingworks/invoice-management-service/internal/domain"
)

// ErrNotANumber reports an amount that is neither a JSON number nor a
// numeric string. Handlers match it to name the field in the response.
var ErrNotANumber = errors.New("must be a number")

// Number is a float64 that also accepts numeric JSON strings, so clients
// may send amount as either 100 or "100".
type Number float64

// UnmarshalJSON implements custom unmarshaling for numbers and numeric strings
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return ErrNotANumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ErrNotANumber
	}
	*n = Number(v)
	return nil
}

// OptionalString distinguishes an absent JSON field from an explicit null.
// Set is true whenever the key was present in the payload; Value is nil for
// an explicit null.
type OptionalString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements custom unmarshaling for nullable optional strings
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// CreateInvoiceRequest represents the body of POST /v1/invoices. Pointer
// fields let the service report every missing required field at once.
type CreateInvoiceRequest struct {
	InvoiceNumber *string `json:"invoice_number"`
	ClientName    *string `json:"client_name"`
	Amount        *Number `json:"amount"`
	Status        *string `json:"status"`
	IssueDate     *string `json:"issue_date"`
	DueDate       *string `json:"due_date"`
}

// UpdateInvoiceRequest represents the body of PATCH /v1/invoices/{id}.
// Every field is optional; only supplied fields are validated and applied.
// Dates use OptionalString because an explicit null clears the date.
type UpdateInvoiceRequest struct {
	InvoiceNumber *string        `json:"invoice_number"`
	ClientName    *string        `json:"client_name"`
	Amount        *Number        `json:"amount"`
	Status        *string        `json:"status"`
	IssueDate     OptionalString `json:"issue_date"`
	DueDate       OptionalString `json:"due_date"`
}

// ListInvoicesQuery carries the raw query parameters of GET /v1/invoices.
// The service validates and converts them into a domain.InvoiceFilter.
type ListInvoicesQuery struct {
	InvoiceNumber string
	Client        string
	Status        string
	IssueFrom     string
	IssueTo       string
	MinAmount     string
	MaxAmount     string
	Sort          string
	Order         string
	Page          string
	Limit         string
}

// InvoiceListResponse represents the paginated list of invoices
type InvoiceListResponse struct {
	Items []domain.Invoice `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// MessageResponse represents a plain confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}
