package main

import (
	"context"
	"fmt"
	"log"

	"github.com/billingworks/invoice-management-service/internal/config"
	"github.com/billingworks/invoice-management-service/internal/database"
	"github.com/billingworks/invoice-management-service/internal/handler"
	"github.com/billingworks/invoice-management-service/internal/repository"
	"github.com/billingworks/invoice-management-service/internal/server"
	"github.com/billingworks/invoice-management-service/internal/service"
	"github.com/billingworks/invoice-management-service/internal/storage"
)

func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Connect to the database
	log.Println("Connecting to database...")
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewPostgresInvoiceRepository(db.GetPool())

	// Initialize blob storage for PDF attachments
	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	invoiceService := service.NewInvoiceService(repo, blobs)

	// Seed example data once, before the first request is served
	if err := invoiceService.EnsureSeeded(ctx); err != nil {
		log.Fatalf("Failed to seed invoices: %v", err)
	}

	invoiceHandler := handler.NewInvoiceHandler(invoiceService, cfg.MaxUploadSize)

	// Create and start the server (blocking call)
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg, invoiceHandler)

	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server shutdown complete")
}

// newBlobStore selects the configured blob storage backend
func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewS3Store(&storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			AccessKeySecret: cfg.S3AccessKeySecret,
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
		})
	}
	return storage.NewFileStore(cfg.UploadDir)
}
