package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/billingworks/invoice-management-service/internal/domain"
)

// MemoryInvoiceRepository implements InvoiceRepository with an in-memory
// map. It backs unit tests and local runs without a database.
type MemoryInvoiceRepository struct {
	mutex    sync.RWMutex
	invoices map[int64]domain.Invoice
	nextID   int64
}

// NewMemoryInvoiceRepository creates an empty in-memory invoice repository
func NewMemoryInvoiceRepository() *MemoryInvoiceRepository {
	return &MemoryInvoiceRepository{
		invoices: make(map[int64]domain.Invoice),
		nextID:   1,
	}
}

// Insert persists a new invoice and assigns its id
func (r *MemoryInvoiceRepository) Insert(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	invoice.ID = r.nextID
	r.nextID++
	r.invoices[invoice.ID] = *invoice

	stored := *invoice
	return &stored, nil
}

// GetByID retrieves an invoice by its id
func (r *MemoryInvoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	invoice, ok := r.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &invoice, nil
}

// Update writes back a previously loaded invoice
func (r *MemoryInvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.invoices[invoice.ID]; !ok {
		return nil, ErrNotFound
	}
	r.invoices[invoice.ID] = *invoice

	stored := *invoice
	return &stored, nil
}

// Delete removes an invoice by its id
func (r *MemoryInvoiceRepository) Delete(ctx context.Context, id int64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.invoices[id]; !ok {
		return ErrNotFound
	}
	delete(r.invoices, id)
	return nil
}

// List retrieves invoices matching the filter with pagination, plus the
// total count of matching rows before pagination
func (r *MemoryInvoiceRepository) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	filter.Normalize()

	r.mutex.RLock()
	matched := make([]domain.Invoice, 0, len(r.invoices))
	for _, invoice := range r.invoices {
		if matchesFilter(&invoice, &filter) {
			matched = append(matched, invoice)
		}
	}
	r.mutex.RUnlock()

	sortInvoices(matched, filter.Sort, filter.Order)

	total := len(matched)
	offset := filter.Offset()
	if offset >= total {
		return []domain.Invoice{}, total, nil
	}
	end := offset + filter.Limit
	if end > total {
		end = total
	}

	return matched[offset:end], total, nil
}

// Count returns the total number of stored invoices
func (r *MemoryInvoiceRepository) Count(ctx context.Context) (int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.invoices), nil
}

// matchesFilter applies every supplied filter conjunctively
func matchesFilter(invoice *domain.Invoice, filter *domain.InvoiceFilter) bool {
	if filter.InvoiceNumber != "" &&
		!strings.Contains(strings.ToLower(invoice.InvoiceNumber), strings.ToLower(filter.InvoiceNumber)) {
		return false
	}
	if filter.ClientName != "" &&
		!strings.Contains(strings.ToLower(invoice.ClientName), strings.ToLower(filter.ClientName)) {
		return false
	}
	if filter.Status != "" && string(invoice.Status) != filter.Status {
		return false
	}
	if filter.IssueFrom != nil {
		if invoice.IssueDate == nil || invoice.IssueDate.Time.Before(filter.IssueFrom.Time) {
			return false
		}
	}
	if filter.IssueTo != nil {
		if invoice.IssueDate == nil || invoice.IssueDate.Time.After(filter.IssueTo.Time) {
			return false
		}
	}
	if filter.MinAmount != nil && invoice.Amount < *filter.MinAmount {
		return false
	}
	if filter.MaxAmount != nil && invoice.Amount > *filter.MaxAmount {
		return false
	}
	return true
}

// sortInvoices orders invoices by the allow-listed sort field with id as a
// secondary key so paging stays deterministic for equal sort values
func sortInvoices(invoices []domain.Invoice, field, order string) {
	desc := order == "desc"
	sort.Slice(invoices, func(i, j int) bool {
		a, b := &invoices[i], &invoices[j]
		if desc {
			a, b = b, a
		}

		var less, equal bool
		switch field {
		case "invoice_number":
			less = a.InvoiceNumber < b.InvoiceNumber
			equal = a.InvoiceNumber == b.InvoiceNumber
		case "client_name":
			less = a.ClientName < b.ClientName
			equal = a.ClientName == b.ClientName
		case "amount":
			less = a.Amount < b.Amount
			equal = a.Amount == b.Amount
		case "issue_date":
			less, equal = compareDates(a.IssueDate, b.IssueDate)
		case "due_date":
			less, equal = compareDates(a.DueDate, b.DueDate)
		case "status":
			less = a.Status < b.Status
			equal = a.Status == b.Status
		default:
			less = a.ID < b.ID
			equal = a.ID == b.ID
		}

		if equal {
			return invoices[i].ID < invoices[j].ID
		}
		return less
	})
}

// compareDates orders nil dates first when ascending; the postgres backend
// uses an explicit NULLS FIRST to match
func compareDates(a, b *domain.DateOnly) (less, equal bool) {
	switch {
	case a == nil && b == nil:
		return false, true
	case a == nil:
		return true, false
	case b == nil:
		return false, false
	default:
		return a.Time.Before(b.Time), a.Time.Equal(b.Time)
	}
}
