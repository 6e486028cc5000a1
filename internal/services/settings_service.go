package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/calyxlabs/curator/internal/authz"
	"github.com/calyxlabs/curator/internal/cache"
	"github.com/calyxlabs/curator/internal/models"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/utils"
)

// ActiveConfig is the process-wide pipeline configuration, resolved per
// request from the settings table (never held as ambient global state).
type ActiveConfig struct {
	Provider  models.EmbeddingProvider `json:"provider"`
	Processor models.ProcessorKind     `json:"documentProcessor"`
}

type SettingsService interface {
	All(ctx context.Context) (map[string]json.RawMessage, error)
	Active(ctx context.Context) (ActiveConfig, error)
	Update(ctx context.Context, actor *models.Profile, provider, processor string) (ActiveConfig, error)
}

const (
	settingsCacheKey = "settings:active"
	settingsCacheTTL = 30 * time.Second
)

type settingsService struct {
	settings pgrepo.SettingRepository
	cache    cache.Cache // optional
}

func NewSettingsService(settings pgrepo.SettingRepository, c cache.Cache) SettingsService {
	return &settingsService{settings: settings, cache: c}
}

func (s *settingsService) All(ctx context.Context) (map[string]json.RawMessage, error) {
	const op = "SettingsService.All"

	rows, err := s.settings.All(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load settings", err)
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Value)
	}
	return out, nil
}

func (s *settingsService) Active(ctx context.Context) (ActiveConfig, error) {
	const op = "SettingsService.Active"

	cfg := ActiveConfig{Provider: models.ProviderGemini, Processor: models.ProcessorFlowise}

	if s.cache != nil {
		if hit, err := s.cache.GetJSON(ctx, settingsCacheKey, &cfg); err == nil && hit {
			return cfg, nil
		}
	}

	if p, err := s.readValue(ctx, models.SettingAIProvider, "provider"); err != nil {
		return cfg, utils.E(utils.CodeInternal, op, "failed to resolve ai provider", err)
	} else if p != "" {
		cfg.Provider = models.EmbeddingProvider(p)
	}

	if p, err := s.readValue(ctx, models.SettingDocumentProcessor, "processor"); err != nil {
		return cfg, utils.E(utils.CodeInternal, op, "failed to resolve document processor", err)
	} else if p != "" {
		cfg.Processor = models.ProcessorKind(p)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, settingsCacheKey, cfg, settingsCacheTTL)
	}
	return cfg, nil
}

// readValue extracts a single string field from a setting's JSON value;
// a missing row is not an error (defaults apply).
func (s *settingsService) readValue(ctx context.Context, key, field string) (string, error) {
	row, err := s.settings.Get(ctx, key)
	if errors.Is(err, utils.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var val map[string]string
	if err := json.Unmarshal(row.Value, &val); err != nil {
		return "", err
	}
	return val[field], nil
}

func (s *settingsService) Update(ctx context.Context, actor *models.Profile, provider, processor string) (ActiveConfig, error) {
	const op = "SettingsService.Update"

	if !authz.IsAdmin(actor) {
		return ActiveConfig{}, utils.E(utils.CodeForbidden, op, "admin role required", nil)
	}
	if provider == "" && processor == "" {
		return ActiveConfig{}, utils.E(utils.CodeInvalidArgument, op, "provider or documentProcessor is required", nil)
	}
	if provider != "" && !models.ValidProvider(models.EmbeddingProvider(provider)) {
		return ActiveConfig{}, utils.E(utils.CodeInvalidArgument, op, "provider must be gemini or openai", nil)
	}
	if processor != "" && !models.ValidProcessor(models.ProcessorKind(processor)) {
		return ActiveConfig{}, utils.E(utils.CodeInvalidArgument, op, "documentProcessor must be flowise or direct_gemini", nil)
	}

	now := time.Now().UTC()
	if provider != "" {
		if err := s.upsert(ctx, models.SettingAIProvider, map[string]string{"provider": provider}, actor.ID, now); err != nil {
			return ActiveConfig{}, utils.E(utils.CodeInternal, op, "failed to persist ai provider", err)
		}
	}
	if processor != "" {
		if err := s.upsert(ctx, models.SettingDocumentProcessor, map[string]string{"processor": processor}, actor.ID, now); err != nil {
			return ActiveConfig{}, utils.E(utils.CodeInternal, op, "failed to persist document processor", err)
		}
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, settingsCacheKey)
	}
	return s.Active(ctx)
}

func (s *settingsService) upsert(ctx context.Context, key string, val map[string]string, actorID string, at time.Time) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return s.settings.Upsert(ctx, &models.Setting{
		Key:       key,
		Value:     b,
		UpdatedAt: at,
		UpdatedBy: actorID,
	})
}
