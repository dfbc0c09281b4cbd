package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/billingworks/invoice-management-service/internal/domain"
	"github.com/billingworks/invoice-management-service/internal/model"
	"github.com/billingworks/invoice-management-service/internal/repository"
	"github.com/billingworks/invoice-management-service/internal/storage"
)

// PDFContentType is the content type served for invoice attachments
const PDFContentType = "application/pdf"

// uploadPrefix is the blob key subdirectory for attachments
const uploadPrefix = "uploads"

// InvoiceService defines the business logic for managing invoices and
// their PDF attachments
type InvoiceService interface {
	Create(ctx context.Context, req model.CreateInvoiceRequest) (*domain.Invoice, error)
	List(ctx context.Context, query model.ListInvoicesQuery) (*model.InvoiceListResponse, error)
	Get(ctx context.Context, id int64) (*domain.Invoice, error)
	Update(ctx context.Context, id int64, req model.UpdateInvoiceRequest) (*domain.Invoice, error)
	Delete(ctx context.Context, id int64) error

	AttachPDF(ctx context.Context, id int64, filename string, file io.Reader) (*domain.Invoice, error)
	DetachPDF(ctx context.Context, id int64) (*domain.Invoice, bool, error)
	GetPDF(ctx context.Context, id int64) (io.ReadCloser, error)

	EnsureSeeded(ctx context.Context) error
}

// invoiceService implements InvoiceService
type invoiceService struct {
	repo  repository.InvoiceRepository
	blobs storage.BlobStore

	// seeded skips the emptiness check after the first EnsureSeeded call.
	// It is not synchronized: a concurrent first call could run the check
	// twice and insert the seed rows twice, which adds rows but never
	// corrupts state. The entry point calls EnsureSeeded once before
	// serving, so in practice there is no race.
	seeded bool
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(repo repository.InvoiceRepository, blobs storage.BlobStore) InvoiceService {
	return &invoiceService{
		repo:  repo,
		blobs: blobs,
	}
}

// Create validates the request and persists a new invoice with no attachment
func (s *invoiceService) Create(ctx context.Context, req model.CreateInvoiceRequest) (*domain.Invoice, error) {
	var missing []string
	if req.InvoiceNumber == nil {
		missing = append(missing, "invoice_number")
	}
	if req.ClientName == nil {
		missing = append(missing, "client_name")
	}
	if req.Amount == nil {
		missing = append(missing, "amount")
	}
	if req.Status == nil {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		verr := &ValidationError{Message: "Missing fields: " + strings.Join(missing, ", ")}
		for _, field := range missing {
			verr.Fields = append(verr.Fields, FieldError{Field: field, Message: "is required"})
		}
		return nil, verr
	}

	if *req.InvoiceNumber == "" {
		return nil, newFieldValidationError("invoice_number", "must not be empty")
	}
	if *req.ClientName == "" {
		return nil, newFieldValidationError("client_name", "must not be empty")
	}

	status, err := domain.ParseStatus(*req.Status)
	if err != nil {
		return nil, newFieldValidationError("status", err.Error())
	}

	issueDate, err := parseOptionalDate("issue_date", req.IssueDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := parseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	invoice := &domain.Invoice{
		InvoiceNumber: *req.InvoiceNumber,
		ClientName:    *req.ClientName,
		Amount:        float64(*req.Amount),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        status,
		PDFPath:       nil,
	}

	created, err := s.repo.Insert(ctx, invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return created, nil
}

// List validates the raw query parameters, queries the store and echoes the
// normalized page and limit back alongside the total match count
func (s *invoiceService) List(ctx context.Context, query model.ListInvoicesQuery) (*model.InvoiceListResponse, error) {
	filter := domain.InvoiceFilter{
		InvoiceNumber: query.InvoiceNumber,
		ClientName:    query.Client,
		Status:        query.Status,
		Sort:          query.Sort,
		Order:         query.Order,
		// An omitted limit means the default page size; a supplied one,
		// however small, is clamped by Normalize instead
		Limit: domain.DefaultPageLimit,
	}

	if query.IssueFrom != "" {
		d, err := domain.ParseDateOnly(query.IssueFrom)
		if err != nil {
			return nil, newFieldValidationError("issue_from", err.Error())
		}
		filter.IssueFrom = &d
	}
	if query.IssueTo != "" {
		d, err := domain.ParseDateOnly(query.IssueTo)
		if err != nil {
			return nil, newFieldValidationError("issue_to", err.Error())
		}
		filter.IssueTo = &d
	}
	if query.MinAmount != "" {
		v, err := strconv.ParseFloat(query.MinAmount, 64)
		if err != nil {
			return nil, newFieldValidationError("min_amount", "must be a number")
		}
		filter.MinAmount = &v
	}
	if query.MaxAmount != "" {
		v, err := strconv.ParseFloat(query.MaxAmount, 64)
		if err != nil {
			return nil, newFieldValidationError("max_amount", "must be a number")
		}
		filter.MaxAmount = &v
	}
	if query.Page != "" {
		v, err := strconv.Atoi(query.Page)
		if err != nil {
			return nil, newFieldValidationError("page", "must be an integer")
		}
		filter.Page = v
	}
	if query.Limit != "" {
		v, err := strconv.Atoi(query.Limit)
		if err != nil {
			return nil, newFieldValidationError("limit", "must be an integer")
		}
		filter.Limit = v
	}

	// Normalize here too so the echoed page/limit match what was applied
	filter.Normalize()

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	return &model.InvoiceListResponse{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Get retrieves a single invoice by id
func (s *invoiceService) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Invoice not found"}
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// Update applies a partial update. Every supplied field is validated before
// anything is written, so an invalid value leaves the record untouched.
func (s *invoiceService) Update(ctx context.Context, id int64, req model.UpdateInvoiceRequest) (*domain.Invoice, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.InvoiceNumber != nil && *req.InvoiceNumber == "" {
		return nil, newFieldValidationError("invoice_number", "must not be empty")
	}
	if req.ClientName != nil && *req.ClientName == "" {
		return nil, newFieldValidationError("client_name", "must not be empty")
	}

	var status domain.Status
	if req.Status != nil {
		status, err = domain.ParseStatus(*req.Status)
		if err != nil {
			return nil, newFieldValidationError("status", err.Error())
		}
	}

	var issueDate, dueDate *domain.DateOnly
	if req.IssueDate.Set && req.IssueDate.Value != nil {
		issueDate, err = parseOptionalDate("issue_date", req.IssueDate.Value)
		if err != nil {
			return nil, err
		}
	}
	if req.DueDate.Set && req.DueDate.Value != nil {
		dueDate, err = parseOptionalDate("due_date", req.DueDate.Value)
		if err != nil {
			return nil, err
		}
	}

	// All supplied fields validated; apply and write back
	if req.InvoiceNumber != nil {
		invoice.InvoiceNumber = *req.InvoiceNumber
	}
	if req.ClientName != nil {
		invoice.ClientName = *req.ClientName
	}
	if req.Amount != nil {
		invoice.Amount = float64(*req.Amount)
	}
	if req.Status != nil {
		invoice.Status = status
	}
	if req.IssueDate.Set {
		invoice.IssueDate = issueDate
	}
	if req.DueDate.Set {
		invoice.DueDate = dueDate
	}

	updated, err := s.repo.Update(ctx, invoice)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Invoice not found"}
		}
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return updated, nil
}

// Delete removes an invoice and, best effort, its attached PDF blob
func (s *invoiceService) Delete(ctx context.Context, id int64) error {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if invoice.PDFPath != nil {
		if err := s.deleteBlob(ctx, *invoice.PDFPath); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Message: "Invoice not found"}
		}
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// AttachPDF stores a PDF for the invoice and records its blob key. The blob
// write happens outside the row transaction: a crash between the two can
// leave a dangling blob or a dangling reference. That window is inherited
// from the original lifecycle and accepted.
func (s *invoiceService) AttachPDF(ctx context.Context, id int64, filename string, file io.Reader) (*domain.Invoice, error) {
	if file == nil {
		return nil, newFieldValidationError("file", "is required")
	}
	if filename == "" {
		return nil, newFieldValidationError("file", "has an empty filename")
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, newFieldValidationError("file", "must be a PDF")
	}

	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sanitized := storage.SanitizeFilename(filename)
	if sanitized == "" {
		return nil, newFieldValidationError("file", "has an invalid filename")
	}

	// Embedding the invoice id keeps keys distinct across invoices even
	// when clients upload identical filenames
	key := fmt.Sprintf("%s/invoice-%d-%s", uploadPrefix, id, sanitized)

	if invoice.PDFPath != nil {
		if err := s.deleteBlob(ctx, *invoice.PDFPath); err != nil {
			return nil, err
		}
	}

	if err := s.blobs.Save(ctx, key, file); err != nil {
		return nil, fmt.Errorf("failed to store PDF: %w", err)
	}

	invoice.PDFPath = &key
	updated, err := s.repo.Update(ctx, invoice)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Invoice not found"}
		}
		return nil, fmt.Errorf("failed to record PDF path: %w", err)
	}
	return updated, nil
}

// DetachPDF removes the invoice's attachment. The second return value is
// false when there was nothing to remove.
func (s *invoiceService) DetachPDF(ctx context.Context, id int64) (*domain.Invoice, bool, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if invoice.PDFPath == nil {
		return invoice, false, nil
	}

	if err := s.deleteBlob(ctx, *invoice.PDFPath); err != nil {
		return nil, false, err
	}

	invoice.PDFPath = nil
	updated, err := s.repo.Update(ctx, invoice)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, &NotFoundError{Message: "Invoice not found"}
		}
		return nil, false, fmt.Errorf("failed to clear PDF path: %w", err)
	}
	return updated, true, nil
}

// GetPDF opens the invoice's attachment for streaming
func (s *invoiceService) GetPDF(ctx context.Context, id int64) (io.ReadCloser, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if invoice.PDFPath == nil {
		return nil, &NotFoundError{Message: "PDF not uploaded"}
	}

	rc, err := s.blobs.Open(ctx, *invoice.PDFPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Reference went dangling, e.g. the blob was removed out of band
			return nil, &NotFoundError{Message: "PDF not uploaded"}
		}
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return rc, nil
}

// EnsureSeeded inserts three example invoices when the store is empty. It
// is idempotent: the count check prevents reseeding even across restarts,
// and the in-memory flag just avoids repeating the check.
func (s *invoiceService) EnsureSeeded(ctx context.Context) error {
	if s.seeded {
		return nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count invoices: %w", err)
	}

	if count == 0 {
		for _, invoice := range seedInvoices() {
			if _, err := s.repo.Insert(ctx, &invoice); err != nil {
				return fmt.Errorf("failed to seed invoices: %w", err)
			}
		}
	}

	s.seeded = true
	return nil
}

// deleteBlob removes a blob, tolerating one that is already gone
func (s *invoiceService) deleteBlob(ctx context.Context, key string) error {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to delete PDF blob: %w", err)
	}
	return nil
}

// parseOptionalDate parses a YYYY-MM-DD field, treating nil and empty
// string as absent
func parseOptionalDate(field string, value *string) (*domain.DateOnly, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	d, err := domain.ParseDateOnly(*value)
	if err != nil {
		return nil, newFieldValidationError(field, err.Error())
	}
	return &d, nil
}

// seedInvoices returns the fixed example records inserted into an empty store
func seedInvoices() []domain.Invoice {
	date := func(s string) *domain.DateOnly {
		d, _ := domain.ParseDateOnly(s)
		return &d
	}
	return []domain.Invoice{
		{
			InvoiceNumber: "INV-2025-0001",
			ClientName:    "Acme Corp",
			Amount:        1200.50,
			IssueDate:     date("2025-08-01"),
			DueDate:       date("2025-09-01"),
			Status:        domain.StatusUnpaid,
		},
		{
			InvoiceNumber: "INV-2025-0002",
			ClientName:    "Globex",
			Amount:        890.00,
			IssueDate:     date("2025-08-05"),
			DueDate:       date("2025-08-25"),
			Status:        domain.StatusPaid,
		},
		{
			InvoiceNumber: "INV-2025-0003",
			ClientName:    "Initech",
			Amount:        450.75,
			IssueDate:     date("2025-08-10"),
			DueDate:       date("2025-08-30"),
			Status:        domain.StatusOverdue,
		},
	}
}
