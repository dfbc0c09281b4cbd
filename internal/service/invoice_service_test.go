package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billingworks/invoice-management-service/internal/domain"
	"github.com/billingworks/invoice-management-service/internal/model"
	"github.com/billingworks/invoice-management-service/internal/repository"
	"github.com/billingworks/invoice-management-service/internal/storage"
)

func newTestService(t *testing.T) (InvoiceService, *repository.MemoryInvoiceRepository, *storage.FileStore) {
	t.Helper()
	repo := repository.NewMemoryInvoiceRepository()
	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewInvoiceService(repo, blobs), repo, blobs
}

func strPtr(s string) *string { return &s }

func numPtr(v float64) *model.Number {
	n := model.Number(v)
	return &n
}

func validCreateRequest() model.CreateInvoiceRequest {
	return model.CreateInvoiceRequest{
		InvoiceNumber: strPtr("X1"),
		ClientName:    strPtr("Bob"),
		Amount:        numPtr(100),
		Status:        strPtr("unpaid"),
	}
}

func createInvoice(t *testing.T, svc InvoiceService) *domain.Invoice {
	t.Helper()
	invoice, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	return invoice
}

func attachTestPDF(t *testing.T, svc InvoiceService, id int64, filename, content string) *domain.Invoice {
	t.Helper()
	invoice, err := svc.AttachPDF(context.Background(), id, filename, strings.NewReader(content))
	require.NoError(t, err)
	return invoice
}

func TestCreateReturnsStoredRecord(t *testing.T) {
	svc, _, _ := newTestService(t)

	invoice := createInvoice(t, svc)
	assert.Equal(t, int64(1), invoice.ID)
	assert.Equal(t, "X1", invoice.InvoiceNumber)
	assert.Equal(t, "Bob", invoice.ClientName)
	assert.Equal(t, 100.0, invoice.Amount)
	assert.Equal(t, domain.StatusUnpaid, invoice.Status)
	assert.Nil(t, invoice.IssueDate)
	assert.Nil(t, invoice.PDFPath)

	// Round-trip: get by the returned id yields identical field values
	got, err := svc.Get(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice, got)
}

func TestCreateReportsAllMissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), model.CreateInvoiceRequest{ClientName: strPtr("Bob")})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Missing fields: invoice_number, amount, status", verr.Message)
	assert.Len(t, verr.Fields, 3)
}

func TestCreateRejectsInvalidStatus(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validCreateRequest()
	req.Status = strPtr("bogus")
	_, err := svc.Create(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "status", verr.Fields[0].Field)
}

func TestCreateRejectsMalformedDates(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validCreateRequest()
	req.IssueDate = strPtr("08/01/2025")
	_, err := svc.Create(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "issue_date", verr.Fields[0].Field)

	req = validCreateRequest()
	req.DueDate = strPtr("2025-13-40")
	_, err = svc.Create(context.Background(), req)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due_date", verr.Fields[0].Field)
}

func TestCreateParsesDates(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := validCreateRequest()
	req.IssueDate = strPtr("2025-08-01")
	req.DueDate = strPtr("2025-09-01")

	invoice, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, invoice.IssueDate)
	assert.Equal(t, "2025-08-01", invoice.IssueDate.String())
	require.NotNil(t, invoice.DueDate)
	assert.Equal(t, "2025-09-01", invoice.DueDate.String())
}

func TestGetMissingInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 42)

	var nferr *NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestUpdateAppliesOnlySuppliedFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	invoice := createInvoice(t, svc)

	updated, err := svc.Update(context.Background(), invoice.ID, model.UpdateInvoiceRequest{
		Status: strPtr("paid"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, updated.Status)
	assert.Equal(t, "X1", updated.InvoiceNumber)
	assert.Equal(t, "Bob", updated.ClientName)
	assert.Equal(t, 100.0, updated.Amount)
}

func TestUpdateInvalidValueLeavesRecordUntouched(t *testing.T) {
	svc, _, _ := newTestService(t)
	invoice := createInvoice(t, svc)
	ctx := context.Background()

	_, err := svc.Update(ctx, invoice.ID, model.UpdateInvoiceRequest{
		ClientName: strPtr("Carol"),
		Status:     strPtr("bogus"),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// Validate-before-mutate: the valid client_name change must not land
	got, err := svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.ClientName)
	assert.Equal(t, domain.StatusUnpaid, got.Status)
}

func TestUpdateClearsDateWithExplicitNull(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.IssueDate = strPtr("2025-08-01")
	invoice, err := svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, invoice.IssueDate)

	updated, err := svc.Update(ctx, invoice.ID, model.UpdateInvoiceRequest{
		IssueDate: model.OptionalString{Set: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.IssueDate)
}

func TestUpdateMissingInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), 42, model.UpdateInvoiceRequest{Status: strPtr("paid")})

	var nferr *NotFoundError
	assert.ErrorAs(t, err, &nferr)
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()

	invoice := createInvoice(t, svc)
	attached := attachTestPDF(t, svc, invoice.ID, "contract.pdf", "%PDF-1.4")
	require.NotNil(t, attached.PDFPath)

	require.NoError(t, svc.Delete(ctx, invoice.ID))

	var nferr *NotFoundError
	_, err := svc.Get(ctx, invoice.ID)
	assert.ErrorAs(t, err, &nferr)

	_, err = blobs.Open(ctx, *attached.PDFPath)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteToleratesMissingBlob(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()

	invoice := createInvoice(t, svc)
	attached := attachTestPDF(t, svc, invoice.ID, "contract.pdf", "%PDF-1.4")

	// Blob removed out of band; delete must still succeed
	require.NoError(t, blobs.Delete(ctx, *attached.PDFPath))
	assert.NoError(t, svc.Delete(ctx, invoice.ID))
}

func TestAttachPDFValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	invoice := createInvoice(t, svc)

	var verr *ValidationError

	_, err := svc.AttachPDF(ctx, invoice.ID, "contract.pdf", nil)
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AttachPDF(ctx, invoice.ID, "", strings.NewReader("x"))
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AttachPDF(ctx, invoice.ID, "notes.txt", strings.NewReader("x"))
	assert.ErrorAs(t, err, &verr)

	// The invoice's pdf_path stays unchanged after rejected uploads
	got, err := svc.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PDFPath)
}

func TestAttachPDFMissingInvoice(t *testing.T) {
	svc, _, _ := newTestService(t)

	var nferr *NotFoundError
	_, err := svc.AttachPDF(context.Background(), 42, "contract.pdf", strings.NewReader("x"))
	assert.ErrorAs(t, err, &nferr)
}

func TestAttachPDFStoresBlobAndKey(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	invoice := createInvoice(t, svc)

	updated := attachTestPDF(t, svc, invoice.ID, "My Contract.PDF", "%PDF-1.4 body")
	require.NotNil(t, updated.PDFPath)
	assert.Equal(t, "uploads/invoice-1-My_Contract.PDF", *updated.PDFPath)

	rc, err := blobs.Open(ctx, *updated.PDFPath)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
}

func TestAttachPDFReplacesPreviousBlob(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	invoice := createInvoice(t, svc)

	first := attachTestPDF(t, svc, invoice.ID, "first.pdf", "one")
	second := attachTestPDF(t, svc, invoice.ID, "second.pdf", "two")

	// Exactly one blob remains, reachable from the current pdf_path
	_, err := blobs.Open(ctx, *first.PDFPath)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rc, err := blobs.Open(ctx, *second.PDFPath)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}

func TestAttachPDFKeysDistinctAcrossInvoices(t *testing.T) {
	svc, _, _ := newTestService(t)

	a := createInvoice(t, svc)
	b := createInvoice(t, svc)

	attachedA := attachTestPDF(t, svc, a.ID, "contract.pdf", "a")
	attachedB := attachTestPDF(t, svc, b.ID, "contract.pdf", "b")

	assert.NotEqual(t, *attachedA.PDFPath, *attachedB.PDFPath)
}

func TestDetachPDF(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	invoice := createInvoice(t, svc)

	// Nothing attached yet: a distinct no-op success
	_, detached, err := svc.DetachPDF(ctx, invoice.ID)
	require.NoError(t, err)
	assert.False(t, detached)

	attached := attachTestPDF(t, svc, invoice.ID, "contract.pdf", "%PDF-1.4")

	updated, detached, err := svc.DetachPDF(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, detached)
	assert.Nil(t, updated.PDFPath)

	_, err = blobs.Open(ctx, *attached.PDFPath)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDetachPDFToleratesMissingBlob(t *testing.T) {
	svc, _, blobs := newTestService(t)
	ctx := context.Background()
	invoice := createInvoice(t, svc)

	attached := attachTestPDF(t, svc, invoice.ID, "contract.pdf", "%PDF-1.4")
	require.NoError(t, blobs.Delete(ctx, *attached.PDFPath))

	_, detached, err := svc.DetachPDF(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, detached)
}

func TestGetPDF(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	invoice := createInvoice(t, svc)

	var nferr *NotFoundError
	_, err := svc.GetPDF(ctx, invoice.ID)
	assert.ErrorAs(t, err, &nferr)

	attachTestPDF(t, svc, invoice.ID, "contract.pdf", "%PDF-1.4 body")

	rc, err := svc.GetPDF(ctx, invoice.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
}

func TestListValidatesParams(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var verr *ValidationError

	_, err := svc.List(ctx, model.ListInvoicesQuery{IssueFrom: "not-a-date"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "issue_from", verr.Fields[0].Field)

	_, err = svc.List(ctx, model.ListInvoicesQuery{MinAmount: "abc"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "min_amount", verr.Fields[0].Field)

	_, err = svc.List(ctx, model.ListInvoicesQuery{Page: "two"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "page", verr.Fields[0].Field)
}

func TestListEchoesClampedPageAndLimit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.List(ctx, model.ListInvoicesQuery{Page: "-5", Limit: "1000"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 100, resp.Limit)

	// A supplied non-positive limit is clamped to 1, not defaulted
	resp, err = svc.List(ctx, model.ListInvoicesQuery{Limit: "-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Limit)

	resp, err = svc.List(ctx, model.ListInvoicesQuery{Limit: "0"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Limit)

	// Only an omitted limit gets the default page size
	resp, err = svc.List(ctx, model.ListInvoicesQuery{})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.Limit)
}

func TestEnsureSeededPopulatesEmptyStore(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	resp, err := svc.List(ctx, model.ListInvoicesQuery{Sort: "id"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	first := resp.Items[0]
	assert.Equal(t, "INV-2025-0001", first.InvoiceNumber)
	assert.Equal(t, "Acme Corp", first.ClientName)
	assert.Equal(t, 1200.50, first.Amount)
	assert.Equal(t, "2025-08-01", first.IssueDate.String())
	assert.Equal(t, "2025-09-01", first.DueDate.String())
	assert.Equal(t, domain.StatusUnpaid, first.Status)

	assert.Equal(t, "Globex", resp.Items[1].ClientName)
	assert.Equal(t, domain.StatusPaid, resp.Items[1].Status)
	assert.Equal(t, "Initech", resp.Items[2].ClientName)
	assert.Equal(t, domain.StatusOverdue, resp.Items[2].Status)
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureSeeded(ctx))
	require.NoError(t, svc.EnsureSeeded(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEnsureSeededSkipsNonEmptyStore(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	createInvoice(t, svc)
	require.NoError(t, svc.EnsureSeeded(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
