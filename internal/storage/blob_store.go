package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
)

// ErrNotFound is returned when a referenced blob does not exist
var ErrNotFound = errors.New("blob not found")

// BlobStore holds uploaded attachment bytes, addressed by a relative path
// key such as "uploads/invoice-7-contract.pdf".
type BlobStore interface {
	// Save writes the blob under the given key, replacing any existing blob
	Save(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader over the blob's bytes
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob; a missing blob yields ErrNotFound
	Delete(ctx context.Context, key string) error
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename reduces a client-supplied filename to a safe storage
// name: path separators are stripped and runs of unsafe characters collapse
// to a single underscore.
func SanitizeFilename(name string) string {
	// Keep only the final path element in case the client sent a path
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}
