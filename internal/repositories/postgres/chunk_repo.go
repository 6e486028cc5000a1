package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChunkRepository interface {
	InsertBatch(ctx context.Context, chunks []models.DocumentChunk) error
	GetByID(ctx context.Context, id string) (*models.DocumentChunk, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)
	// Review is a compare-and-swap: the update only applies while the chunk
	// is still in one of the from statuses. Reports whether a row moved.
	Review(ctx context.Context, id string, from []models.ReviewStatus, to models.ReviewStatus, reviewerID, notes string, at time.Time) (bool, error)
	UpdateMetadata(ctx context.Context, id string, merged datatypes.JSON, editorID string, at time.Time) error
	CountByStatus(ctx context.Context, documentID string) (map[models.ReviewStatus]int64, error)
}

type chunkRepo struct {
	db *gorm.DB
}

func NewChunkRepo(db *gorm.DB) ChunkRepository {
	return &chunkRepo{db: db}
}

func (r *chunkRepo) InsertBatch(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(chunks, 200).Error
}

func (r *chunkRepo) GetByID(ctx context.Context, id string) (*models.DocumentChunk, error) {
	var c models.DocumentChunk
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &c, err
}

func (r *chunkRepo) ListByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	var rows []models.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("chunk_index ASC").
		Find(&rows).Error
	return rows, err
}

func (r *chunkRepo) Review(ctx context.Context, id string, from []models.ReviewStatus, to models.ReviewStatus, reviewerID, notes string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.DocumentChunk{}).
		Where("id = ? AND review_status IN ?", id, from).
		Updates(map[string]any{
			"review_status": to,
			"curator_notes": notes,
			"reviewed_by":   reviewerID,
			"reviewed_at":   at,
		})
	return tx.RowsAffected > 0, tx.Error
}

func (r *chunkRepo) UpdateMetadata(ctx context.Context, id string, merged datatypes.JSON, editorID string, at time.Time) error {
	tx := r.db.WithContext(ctx).
		Model(&models.DocumentChunk{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ai_metadata":        merged,
			"metadata_edited":    true,
			"metadata_edited_by": editorID,
			"metadata_edited_at": at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *chunkRepo) CountByStatus(ctx context.Context, documentID string) (map[models.ReviewStatus]int64, error) {
	var rows []struct {
		ReviewStatus models.ReviewStatus
		N            int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.DocumentChunk{}).
		Select("review_status, COUNT(*) AS n").
		Where("document_id = ?", documentID).
		Group("review_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.ReviewStatus]int64, len(rows))
	for _, row := range rows {
		out[row.ReviewStatus] = row.N
	}
	return out, nil
}
