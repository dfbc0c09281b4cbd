package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billingworks/invoice-management-service/internal/domain"
)

// sortColumns maps allow-listed sort fields to column names. The filter's
// Normalize already rejects unknown fields, but keeping the map here means
// nothing caller-supplied is ever interpolated into SQL.
var sortColumns = map[string]string{
	"id":             "id",
	"invoice_number": "invoice_number",
	"client_name":    "client_name",
	"amount":         "amount",
	"issue_date":     "issue_date",
	"due_date":       "due_date",
	"status":         "status",
}

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL
type PostgresInvoiceRepository struct {
	db *pgxpool.Pool
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository
func NewPostgresInvoiceRepository(db *pgxpool.Pool) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{
		db: db,
	}
}

// Insert saves a new invoice and returns it with the generated id
func (r *PostgresInvoiceRepository) Insert(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, client_name, amount, issue_date, due_date, status, pdf_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, invoice.InvoiceNumber, invoice.ClientName, invoice.Amount,
		dateArg(invoice.IssueDate), dateArg(invoice.DueDate),
		string(invoice.Status), invoice.PDFPath).Scan(&invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	return invoice, nil
}

// GetByID retrieves an invoice by its id
func (r *PostgresInvoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, invoice_number, client_name, amount, issue_date, due_date, status, pdf_path
		FROM invoices
		WHERE id = $1
	`, id)

	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	return invoice, nil
}

// Update writes back a previously loaded invoice
func (r *PostgresInvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	commandTag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET invoice_number = $1, client_name = $2, amount = $3,
		    issue_date = $4, due_date = $5, status = $6, pdf_path = $7
		WHERE id = $8
	`, invoice.InvoiceNumber, invoice.ClientName, invoice.Amount,
		dateArg(invoice.IssueDate), dateArg(invoice.DueDate),
		string(invoice.Status), invoice.PDFPath, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return invoice, nil
}

// Delete removes an invoice by its id
func (r *PostgresInvoiceRepository) Delete(ctx context.Context, id int64) error {
	commandTag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List retrieves invoices matching the filter with pagination, plus the
// total count of matching rows before pagination
func (r *PostgresInvoiceRepository) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	filter.Normalize()

	// Build query conditions
	conditions := []string{}
	args := []interface{}{}
	argCount := 1

	if filter.InvoiceNumber != "" {
		conditions = append(conditions, fmt.Sprintf("invoice_number ILIKE $%d", argCount))
		args = append(args, "%"+filter.InvoiceNumber+"%")
		argCount++
	}
	if filter.ClientName != "" {
		conditions = append(conditions, fmt.Sprintf("client_name ILIKE $%d", argCount))
		args = append(args, "%"+filter.ClientName+"%")
		argCount++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, filter.Status)
		argCount++
	}
	if filter.IssueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date >= $%d", argCount))
		args = append(args, filter.IssueFrom.Time)
		argCount++
	}
	if filter.IssueTo != nil {
		conditions = append(conditions, fmt.Sprintf("issue_date <= $%d", argCount))
		args = append(args, filter.IssueTo.Time)
		argCount++
	}
	if filter.MinAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount >= $%d", argCount))
		args = append(args, *filter.MinAmount)
		argCount++
	}
	if filter.MaxAmount != nil {
		conditions = append(conditions, fmt.Sprintf("amount <= $%d", argCount))
		args = append(args, *filter.MaxAmount)
		argCount++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total matching rows
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM invoices %s`, whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	invoices := []domain.Invoice{}
	if total == 0 {
		return invoices, 0, nil
	}

	direction := "ASC"
	nulls := ""
	if filter.Order == "desc" {
		direction = "DESC"
	}
	if filter.Sort == "issue_date" || filter.Sort == "due_date" {
		// Pin null placement so both backends page identically
		if direction == "ASC" {
			nulls = " NULLS FIRST"
		} else {
			nulls = " NULLS LAST"
		}
	}
	// Secondary id key keeps paging deterministic for equal sort values
	orderClause := fmt.Sprintf("ORDER BY %s %s%s, id ASC", sortColumns[filter.Sort], direction, nulls)

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf(`
		SELECT id, invoice_number, client_name, amount, issue_date, due_date, status, pdf_path
		FROM invoices
		%s
		%s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderClause, argCount, argCount+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, total, nil
}

// Count returns the total number of stored invoices
func (r *PostgresInvoiceRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

// dateArg converts an optional DateOnly into a nullable query argument
func dateArg(d *domain.DateOnly) interface{} {
	if d == nil {
		return nil
	}
	return d.Time
}

// scanInvoice reads one invoice row, converting nullable columns
func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		invoice   domain.Invoice
		issueDate *time.Time
		dueDate   *time.Time
		status    string
	)
	if err := row.Scan(
		&invoice.ID, &invoice.InvoiceNumber, &invoice.ClientName, &invoice.Amount,
		&issueDate, &dueDate, &status, &invoice.PDFPath,
	); err != nil {
		return nil, err
	}

	if issueDate != nil {
		invoice.IssueDate = &domain.DateOnly{Time: *issueDate}
	}
	if dueDate != nil {
		invoice.DueDate = &domain.DateOnly{Time: *dueDate}
	}
	invoice.Status = domain.Status(status)

	return &invoice, nil
}
