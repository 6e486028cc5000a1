package postgres

import (
	"context"
	"fmt"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type SearchOptions struct {
	Threshold float64 // minimum cosine similarity
	Limit     int
	DocType   models.DocType // optional filter
	UseCases  []string       // optional overlap filter
}

type SearchResult struct {
	models.VectorRecord `gorm:"embedded"`
	Similarity          float64 `json:"similarity"`
}

type VectorRepository interface {
	Insert(ctx context.Context, v *models.VectorRecord) error
	Search(ctx context.Context, provider models.EmbeddingProvider, query pgvector.Vector, opts SearchOptions) ([]SearchResult, error)
	DeleteByChunk(ctx context.Context, chunkID string) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

type vectorRepo struct {
	db *gorm.DB
}

func NewVectorRepo(db *gorm.DB) VectorRepository {
	return &vectorRepo{db: db}
}

func (r *vectorRepo) Insert(ctx context.Context, v *models.VectorRecord) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func embeddingColumn(provider models.EmbeddingProvider) string {
	if provider == models.ProviderOpenAI {
		return "embedding_openai"
	}
	return "embedding_gemini"
}

// Search runs a cosine nearest-neighbor query against the column matching
// the provider. Similarity is 1 - cosine distance; rows below the threshold
// never come back and ordering is best-first.
func (r *vectorRepo) Search(ctx context.Context, provider models.EmbeddingProvider, query pgvector.Vector, opts SearchOptions) ([]SearchResult, error) {
	col := embeddingColumn(provider)

	sql := fmt.Sprintf(
		`SELECT *, 1 - (%s <=> ?) AS similarity
		 FROM vector_records
		 WHERE %s IS NOT NULL
		   AND 1 - (%s <=> ?) >= ?`, col, col, col)
	args := []any{query, query, opts.Threshold}

	if opts.DocType != "" {
		sql += " AND doc_type = ?"
		args = append(args, opts.DocType)
	}
	if len(opts.UseCases) > 0 {
		sql += " AND use_cases && ?"
		args = append(args, pq.Array(opts.UseCases))
	}

	sql += fmt.Sprintf(" ORDER BY %s <=> ? LIMIT ?", col)
	args = append(args, query, opts.Limit)

	var rows []SearchResult
	err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error
	return rows, err
}

func (r *vectorRepo) DeleteByChunk(ctx context.Context, chunkID string) error {
	return r.db.WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		Delete(&models.VectorRecord{}).Error
}

func (r *vectorRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&models.VectorRecord{}).Error
}
