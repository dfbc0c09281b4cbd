package handler

import (
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/billingworks/invoice-management-service/internal/model"
	"github.com/billingworks/invoice-management-service/internal/service"
)

// getInvoiceID parses the invoice id path parameter
func getInvoiceID(c *gin.Context) (int64, error) {
	raw := c.Param("invoiceId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invoiceId must be an integer")
	}
	return id, nil
}

// getFormFile retrieves a file from multipart form data
func getFormFile(c *gin.Context, fieldName string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := c.Request.FormFile(fieldName)
	if err != nil {
		return nil, nil, fmt.Errorf("no %s provided", fieldName)
	}
	return file, header, nil
}

// bindJSON binds the JSON request body to a struct
func bindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return fmt.Errorf("invalid JSON format: %w", err)
	}
	return nil
}

// validationDetails converts service field errors to response details
func validationDetails(verr *service.ValidationError) []model.ErrorDetail {
	details := make([]model.ErrorDetail, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		details = append(details, model.ErrorDetail{
			Field:   fe.Field,
			Message: fe.Message,
		})
	}
	return details
}
