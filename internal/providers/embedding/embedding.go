package embedding

import (
	"context"

	"github.com/calyxlabs/curator/internal/models"
)

// Provider computes the vector representation used for storage and search.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Registry maps the configured provider name to a live client.
type Registry map[models.EmbeddingProvider]Provider

func (r Registry) Get(p models.EmbeddingProvider) (Provider, bool) {
	prov, ok := r[p]
	return prov, ok
}
