package store

import (
	"context"

	"github.com/docserve/docserve/internal/document"
)

// Store is the durable backend for documents and the sole source of
// truth. Put must not return nil until the backend has acknowledged the
// write durably; no other component may claim success for a write this
// interface has not acknowledged.
type Store interface {
	// Put stores doc, replacing any previous content under doc.ID.
	Put(ctx context.Context, doc *document.Document) error
	// Get returns the document for id, or document.ErrNotFound when no
	// prior Put succeeded for that id.
	Get(ctx context.Context, id string) (*document.Document, error)
	// Ping reports whether the backend is reachable and operable.
	Ping(ctx context.Context) error
}
