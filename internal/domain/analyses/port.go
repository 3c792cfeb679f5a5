package analyses

import (
	"context"
	"io"
)

// Repository port (interface untuk persistence).
// Records are append-only: there is no update.
type Repository interface {
	Create(ctx context.Context, d Draft) (*Analysis, error)
	Get(ctx context.Context, id AnalysisID) (*Analysis, error)
	// List returns every record, newest first; equal timestamps keep insertion order.
	List(ctx context.Context) ([]*Analysis, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id AnalysisID) error
}

// Generator port (interface untuk classifier)
type Generator interface {
	Generate(ctx context.Context, filename string, filesize int64) (Result, error)
}

// CaptureStore port (interface untuk penyimpanan capture mentah)
type CaptureStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (string, error)
}
