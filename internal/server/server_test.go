package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billingworks/invoice-management-service/internal/config"
	"github.com/billingworks/invoice-management-service/internal/handler"
	"github.com/billingworks/invoice-management-service/internal/repository"
	"github.com/billingworks/invoice-management-service/internal/service"
	"github.com/billingworks/invoice-management-service/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryInvoiceRepository()
	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	invoiceHandler := handler.NewInvoiceHandler(service.NewInvoiceService(repo, blobs), 0)

	cfg := &config.Config{
		Port:         8080,
		AllowOrigins: []string{"http://localhost:3000"},
		LogFormat:    "text",
		LogLevel:     "error",
	}
	return NewServer(cfg, invoiceHandler)
}

func serve(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.GetRouter().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIDocsRedirect(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodGet, "/api-docs")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api-docs/index.html", w.Header().Get("Location"))
}

func TestInvoiceRoutesRegistered(t *testing.T) {
	srv := newTestServer(t)

	w := serve(srv, http.MethodGet, "/v1/invoices")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(srv, http.MethodGet, "/v1/invoices/1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
