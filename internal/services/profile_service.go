package services

import (
	"context"
	"errors"
	"time"

	"github.com/calyxlabs/curator/internal/authz"
	"github.com/calyxlabs/curator/internal/models"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/utils"
	"github.com/sirupsen/logrus"
)

type ProfileService interface {
	// EnsureProfile loads the caller's profile, provisioning one on first
	// sight. Provisioning is best-effort: a failed insert is logged and
	// swallowed so identity registration never fails on a profile-row race.
	EnsureProfile(ctx context.Context, id, email, fullName string) (*models.Profile, error)
	Get(ctx context.Context, id string) (*models.Profile, error)
	List(ctx context.Context, actor *models.Profile) ([]models.Profile, error)
	UpdateName(ctx context.Context, id, fullName string) (*models.Profile, error)
	UpdateRole(ctx context.Context, actor *models.Profile, targetID string, role models.Role) error
	SetActive(ctx context.Context, actor *models.Profile, targetID string, active bool) error
}

type profileService struct {
	profiles pgrepo.ProfileRepository
	log      *logrus.Logger
}

func NewProfileService(profiles pgrepo.ProfileRepository, log *logrus.Logger) ProfileService {
	if log == nil {
		log = logrus.New()
	}
	return &profileService{profiles: profiles, log: log}
}

func (s *profileService) EnsureProfile(ctx context.Context, id, email, fullName string) (*models.Profile, error) {
	const op = "ProfileService.EnsureProfile"

	if id == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "missing identity", nil)
	}

	p, err := s.profiles.GetByID(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to load profile", err)
	}

	now := time.Now().UTC()
	fresh := &models.Profile{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Best-effort first-sight provisioning: a lost race or a store hiccup
	// must not fail the request that triggered it.
	if _, err := s.profiles.CreateIfAbsent(ctx, fresh); err != nil {
		s.log.WithError(err).WithField("user_id", id).Error("profile auto-creation failed; continuing with defaults")
	}

	if p, err := s.profiles.GetByID(ctx, id); err == nil {
		return p, nil
	}
	return fresh, nil
}

func (s *profileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	const op = "ProfileService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) List(ctx context.Context, actor *models.Profile) ([]models.Profile, error) {
	const op = "ProfileService.List"

	if !authz.IsAdmin(actor) {
		return nil, utils.E(utils.CodeForbidden, op, "admin role required", nil)
	}
	rows, err := s.profiles.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list profiles", err)
	}
	return rows, nil
}

func (s *profileService) UpdateName(ctx context.Context, id, fullName string) (*models.Profile, error) {
	const op = "ProfileService.UpdateName"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if err := s.profiles.UpdateName(ctx, id, fullName, time.Now().UTC()); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return s.Get(ctx, id)
}

func (s *profileService) UpdateRole(ctx context.Context, actor *models.Profile, targetID string, role models.Role) error {
	const op = "ProfileService.UpdateRole"

	if !authz.IsAdmin(actor) {
		return utils.E(utils.CodeForbidden, op, "admin role required", nil)
	}
	if actor.ID == targetID {
		return utils.E(utils.CodeForbidden, op, "cannot change your own role", nil)
	}
	switch role {
	case models.RoleUser, models.RoleCurator, models.RoleAdmin:
	default:
		return utils.E(utils.CodeInvalidArgument, op, "role must be user, curator, or admin", nil)
	}

	if err := s.profiles.UpdateRole(ctx, targetID, role, time.Now().UTC()); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update role", err)
	}
	return nil
}

func (s *profileService) SetActive(ctx context.Context, actor *models.Profile, targetID string, active bool) error {
	const op = "ProfileService.SetActive"

	if !authz.IsAdmin(actor) {
		return utils.E(utils.CodeForbidden, op, "admin role required", nil)
	}
	if actor.ID == targetID && !active {
		return utils.E(utils.CodeForbidden, op, "cannot deactivate yourself", nil)
	}

	if err := s.profiles.SetActive(ctx, targetID, active, time.Now().UTC()); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to update active flag", err)
	}
	return nil
}
