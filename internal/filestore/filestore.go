// Package filestore persists transaction attachments (receipts, invoices)
// and hands back a stable URL the ledger stores on the row.
package filestore

import (
	"context"
	"io"
)

// BlobStore stores an attachment and returns its public URL.
type BlobStore interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectName string) error
	Close() error
}
