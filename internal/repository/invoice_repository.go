package repository

import (
	"context"
	"errors"

	"github.com/billingworks/invoice-management-service/internal/domain"
)

// ErrNotFound is returned when a referenced invoice does not exist
var ErrNotFound = errors.New("invoice not found")

// InvoiceRepository defines the interface for invoice data storage
// operations. Implementations must keep each call transactionally isolated;
// no transaction spans multiple calls.
type InvoiceRepository interface {
	// Insert persists a new invoice, assigns its id and returns the stored record
	Insert(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)

	// GetByID retrieves an invoice by its id
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)

	// Update writes back a previously loaded invoice
	Update(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)

	// Delete removes an invoice by its id
	Delete(ctx context.Context, id int64) error

	// List retrieves invoices matching the filter plus the total number of
	// matching rows before pagination
	List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error)

	// Count returns the total number of stored invoices
	Count(ctx context.Context) (int, error)
}
