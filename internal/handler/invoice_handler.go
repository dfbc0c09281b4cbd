package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billingworks/invoice-management-service/internal/model"
	"github.com/billingworks/invoice-management-service/internal/service"
)

// InvoiceHandler handles HTTP requests for invoice operations
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	maxFileSize    int64
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService service.InvoiceService, maxFileSize int64) *InvoiceHandler {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	return &InvoiceHandler{
		invoiceService: invoiceService,
		maxFileSize:    maxFileSize,
	}
}

// RegisterRoutes registers the handler's routes with the given router
func (h *InvoiceHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/v1/invoices", h.ListInvoices)
	router.POST("/v1/invoices", h.CreateInvoice)
	router.GET("/v1/invoices/:invoiceId", h.GetInvoice)
	router.PATCH("/v1/invoices/:invoiceId", h.UpdateInvoice)
	router.DELETE("/v1/invoices/:invoiceId", h.DeleteInvoice)
	router.POST("/v1/invoices/:invoiceId/pdf", h.AttachPDF)
	router.DELETE("/v1/invoices/:invoiceId/pdf", h.DetachPDF)
	router.GET("/v1/invoices/:invoiceId/pdf", h.GetPDF)
}

// respondServiceError maps service errors onto HTTP responses
func respondServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		respondBadRequest(c, verr.Message, validationDetails(verr)...)
		return
	}

	var nferr *service.NotFoundError
	if errors.As(err, &nferr) {
		respondNotFound(c, nferr.Message)
		return
	}

	respondInternalServerError(c, ErrInternalServer)
}

// respondBindError maps JSON binding failures onto HTTP responses. A bad
// amount is named explicitly; everything else is an opaque syntax problem.
func respondBindError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrNotANumber) {
		respondBadRequest(c, "amount must be a number",
			model.ErrorDetail{Field: "amount", Message: "must be a number"})
		return
	}
	respondBadRequest(c, ErrInvalidInput)
}

// ListInvoices handles the GET /v1/invoices endpoint
// @Summary List invoices
// @Description Get a paginated list of invoices with optional filters and sorting
// @Tags invoices
// @Produce json
// @Param invoice_number query string false "Invoice number substring filter"
// @Param client query string false "Client name substring filter"
// @Param status query string false "Exact status filter" Enums(unpaid, paid, overdue)
// @Param issue_from query string false "Issue date lower bound (YYYY-MM-DD)"
// @Param issue_to query string false "Issue date upper bound (YYYY-MM-DD)"
// @Param min_amount query number false "Minimum amount"
// @Param max_amount query number false "Maximum amount"
// @Param sort query string false "Sort field" default(id)
// @Param order query string false "Sort direction" Enums(asc, desc) default(asc)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} model.InvoiceListResponse "Paginated invoices"
// @Failure 400 {object} model.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	query := model.ListInvoicesQuery{
		InvoiceNumber: c.Query("invoice_number"),
		Client:        c.Query("client"),
		Status:        c.Query("status"),
		IssueFrom:     c.Query("issue_from"),
		IssueTo:       c.Query("issue_to"),
		MinAmount:     c.Query("min_amount"),
		MaxAmount:     c.Query("max_amount"),
		Sort:          c.Query("sort"),
		Order:         c.Query("order"),
		Page:          c.Query("page"),
		Limit:         c.Query("limit"),
	}

	resp, err := h.invoiceService.List(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, resp)
}

// CreateInvoice handles the POST /v1/invoices endpoint
// @Summary Create an invoice
// @Description Create a new invoice; invoice_number, client_name, amount and status are required
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body model.CreateInvoiceRequest true "Invoice fields"
// @Success 201 {object} domain.Invoice "Created invoice"
// @Failure 400 {object} model.ErrorResponse "Missing or invalid fields"
// @Failure 500 {object} model.ErrorResponse "Internal server error"
// @Router /v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req model.CreateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, invoice)
}

// GetInvoice handles the GET /v1/invoices/{invoiceId} endpoint
// @Summary Get an invoice
// @Description Retrieve a single invoice by its id
// @Tags invoices
// @Produce json
// @Param invoiceId path int true "Invoice ID"
// @Success 200 {object} domain.Invoice "Invoice"
// @Failure 400 {object} model.ErrorResponse "Invalid invoice ID"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, err := getInvoiceID(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, invoice)
}

// UpdateInvoice handles the PATCH /v1/invoices/{invoiceId} endpoint
// @Summary Update an invoice
// @Description Apply a partial update; only supplied fields are validated and changed
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoiceId path int true "Invoice ID"
// @Param invoice body model.UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} domain.Invoice "Updated invoice"
// @Failure 400 {object} model.ErrorResponse "Invalid field value"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [patch]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, err := getInvoiceID(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	var req model.UpdateInvoiceRequest
	if err := bindJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, invoice)
}

// DeleteInvoice handles the DELETE /v1/invoices/{invoiceId} endpoint
// @Summary Delete an invoice
// @Description Remove an invoice and its attached PDF, if any
// @Tags invoices
// @Produce json
// @Param invoiceId path int true "Invoice ID"
// @Success 200 {object} model.MessageResponse "Confirmation message"
// @Failure 400 {object} model.ErrorResponse "Invalid invoice ID"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	id, err := getInvoiceID(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, model.MessageResponse{Message: fmt.Sprintf("Invoice %d deleted", id)})
}

// AttachPDF handles the POST /v1/invoices/{invoiceId}/pdf endpoint
// @Summary Attach a PDF
// @Description Upload a PDF attachment for the invoice, replacing any existing one
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param invoiceId path int true "Invoice ID"
// @Param file formData file true "PDF file"
// @Success 200 {object} domain.Invoice "Updated invoice"
// @Failure 400 {object} model.ErrorResponse "No file or not a PDF"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Failure 413 {object} model.ErrorResponse "File exceeds the upload size limit"
// @Router /v1/invoices/{invoiceId}/pdf [post]
func (h *InvoiceHandler) AttachPDF(c *gin.Context) {
	id, err := getInvoiceID(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	// ParseMultipartForm's argument only sizes the in-memory buffer;
	// MaxBytesReader is what actually caps the upload
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize)
	if err := c.Request.ParseMultipartForm(h.maxFileSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondWithError(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large")
			return
		}
		respondBadRequest(c, "Failed to parse form data: "+err.Error())
		return
	}

	file, header, err := getFormFile(c, "file")
	if err != nil {
		respondBadRequest(c, "No file field provided")
		return
	}
	defer file.Close()

	invoice, err := h.invoiceService.AttachPDF(c.Request.Context(), id, header.Filename, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, invoice)
}

// DetachPDF handles the DELETE /v1/invoices/{invoiceId}/pdf endpoint
// @Summary Detach the PDF
// @Description Remove the invoice's PDF attachment; succeeds with a message when there is none
// @Tags invoices
// @Produce json
// @Param invoiceId path int true "Invoice ID"
// @Success 200 {object} domain.Invoice "Updated invoice"
// @Failure 400 {object} model.ErrorResponse "Invalid invoice ID"
// @Failure 404 {object} model.ErrorResponse "Invoice not found"
// @Router /v1/invoices/{invoiceId}/pdf [delete]
func (h *InvoiceHandler) DetachPDF(c *gin.Context) {
	id, err := getInvoiceID(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	invoice, detached, err := h.invoiceService.DetachPDF(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !detached {
		respondOK(c, model.MessageResponse{Message: "Nothing to delete"})
		return
	}

	respondOK(c, invoice)
}

// GetPDF handles the GET /v1/invoices/{invoiceId}/pdf endpoint
// @Summary Download the PDF
// @Description Stream the invoice's PDF attachment
// @Tags invoices
// @Produce application/pdf
// @Param invoiceId path int true "Invoice ID"
// @Success 200 {file} binary "PDF bytes"
// @Failure 404 {object} model.ErrorResponse "Invoice or attachment not found"
// @Router /v1/invoices/{invoiceId}/pdf [get]
func (h *InvoiceHandler) GetPDF(c *gin.Context) {
	id, err := getInvoiceID(c)
	if err != nil {
		respondBadRequest(c, ErrInvalidID)
		return
	}

	rc, err := h.invoiceService.GetPDF(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, service.PDFContentType, rc, nil)
}
