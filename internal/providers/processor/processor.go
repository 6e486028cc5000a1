package processor

import (
	"context"

	"github.com/calyxlabs/curator/internal/models"
)

// Chunk is one annotated slice of a processed document as returned by the
// external pipeline.
type Chunk struct {
	Index          int
	Text           string
	Metadata       models.AIMetadata
	Confidence     float64
	Filtered       bool
	FilteredReason string
}

// Request describes the document to process. Processors fetch the content
// themselves via the signed URL; originals never pass through this process.
type Request struct {
	DocumentID string
	DocType    models.DocType
	Filename   string
	MimeType   string
	SignedURL  string
}

// Provider chunks and annotates a document.
type Provider interface {
	Process(ctx context.Context, req Request) ([]Chunk, error)
}

// Registry maps the configured processor name to a live client.
type Registry map[models.ProcessorKind]Provider

func (r Registry) Get(p models.ProcessorKind) (Provider, bool) {
	prov, ok := r[p]
	return prov, ok
}
