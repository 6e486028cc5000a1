package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/utils"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Insert(ctx context.Context, d *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, limit int) ([]models.Document, error)
	// TransitionStatus is a compare-and-swap on processing_status; reports
	// whether the row moved.
	TransitionStatus(ctx context.Context, id string, from []models.DocumentStatus, to models.DocumentStatus, at time.Time) (bool, error)
	// MarkFailed moves any non-terminal document to failed with a message.
	MarkFailed(ctx context.Context, id, message string, at time.Time) error
	SetTotalChunks(ctx context.Context, id string, total int, at time.Time) error
	IncrementApproved(ctx context.Context, id string, at time.Time) error
	IncrementRejected(ctx context.Context, id string, at time.Time) error
}

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Insert(ctx context.Context, d *models.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &d, err
}

func (r *documentRepo) List(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Document
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *documentRepo) TransitionStatus(ctx context.Context, id string, from []models.DocumentStatus, to models.DocumentStatus, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND processing_status IN ?", id, from).
		Updates(map[string]any{"processing_status": to, "updated_at": at})
	return tx.RowsAffected > 0, tx.Error
}

func (r *documentRepo) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND processing_status NOT IN ?", id,
			[]models.DocumentStatus{models.DocStatusCompleted, models.DocStatusFailed}).
		Updates(map[string]any{
			"processing_status": models.DocStatusFailed,
			"error_message":     message,
			"updated_at":        at,
		}).Error
}

func (r *documentRepo) SetTotalChunks(ctx context.Context, id string, total int, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{"total_chunks": total, "updated_at": at}).Error
}

// Counter bumps are single-statement atomic increments; the chunk-level CAS
// guarantees each chunk triggers at most one of them.
func (r *documentRepo) IncrementApproved(ctx context.Context, id string, at time.Time) error {
	return r.increment(ctx, id, "approved_chunks", at)
}

func (r *documentRepo) IncrementRejected(ctx context.Context, id string, at time.Time) error {
	return r.increment(ctx, id, "rejected_chunks", at)
}

func (r *documentRepo) increment(ctx context.Context, id, column string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			column:       gorm.Expr(column+" + 1"),
			"updated_at": at,
		}).Error
}
