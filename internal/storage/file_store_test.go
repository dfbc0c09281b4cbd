package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"invoice.pdf":            "invoice.pdf",
		"my invoice.pdf":         "my_invoice.pdf",
		"../../etc/passwd":       "passwd",
		`c:\temp\Invoice (1).pdf`: "Invoice_1_.pdf",
		"über-rechnung.pdf":      "ber-rechnung.pdf",
		".pdf":                   "pdf",
	}

	for input, want := range cases {
		assert.Equal(t, want, SanitizeFilename(input), "input %q", input)
	}
}

func TestFileStoreSaveOpenDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "uploads/invoice-1-test.pdf"

	require.NoError(t, store.Save(ctx, key, strings.NewReader("%PDF-1.4 test")))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4 test", string(data))

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSaveReplacesExisting(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "uploads/invoice-2-test.pdf"

	require.NoError(t, store.Save(ctx, key, strings.NewReader("old")))
	require.NoError(t, store.Save(ctx, key, strings.NewReader("new")))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestFileStoreDeleteMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), "uploads/never-existed.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
