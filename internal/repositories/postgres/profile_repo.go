package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	// CreateIfAbsent inserts the profile unless one already exists for the
	// same identity; reports whether a row was written.
	CreateIfAbsent(ctx context.Context, p *models.Profile) (bool, error)
	UpdateName(ctx context.Context, id, fullName string, at time.Time) error
	UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

func (r *profileRepo) List(ctx context.Context) ([]models.Profile, error) {
	var rows []models.Profile
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *profileRepo) CreateIfAbsent(ctx context.Context, p *models.Profile) (bool, error) {
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(p)
	return tx.RowsAffected > 0, tx.Error
}

func (r *profileRepo) UpdateName(ctx context.Context, id, fullName string, at time.Time) error {
	return r.updateFields(ctx, id, map[string]any{"full_name": fullName, "updated_at": at})
}

func (r *profileRepo) UpdateRole(ctx context.Context, id string, role models.Role, at time.Time) error {
	return r.updateFields(ctx, id, map[string]any{"role": role, "updated_at": at})
}

func (r *profileRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return r.updateFields(ctx, id, map[string]any{"is_active": active, "updated_at": at})
}

func (r *profileRepo) updateFields(ctx context.Context, id string, fields map[string]any) error {
	tx := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
