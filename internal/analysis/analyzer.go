package analysis

import (
	"context"

	"github.com/zombor/receipt-sorter/internal/extraction"
)

// Analyzer defines the interface for document-analysis providers
type Analyzer interface {
	// Analyze reads a receipt image/PDF and reports the labeled fields and
	// raw text it found
	Analyze(ctx context.Context, imageData []byte, contentType string) (*extraction.Response, error)
	// Close closes the analyzer and releases resources
	Close() error
}
