package services

import (
	"context"
	"testing"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/utils"
)

func TestActiveDefaults(t *testing.T) {
	svc := NewSettingsService(newFakeSettingRepo(), nil)

	cfg, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if cfg.Provider != models.ProviderGemini {
		t.Fatalf("provider = %q, want gemini", cfg.Provider)
	}
	if cfg.Processor != models.ProcessorFlowise {
		t.Fatalf("processor = %q, want flowise", cfg.Processor)
	}
}

func TestUpdateRequiresAdmin(t *testing.T) {
	svc := NewSettingsService(newFakeSettingRepo(), nil)

	_, err := svc.Update(context.Background(), curator(), "openai", "")
	if !utils.IsCode(err, utils.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestUpdateValidatesEnums(t *testing.T) {
	svc := NewSettingsService(newFakeSettingRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Update(ctx, admin(), "", ""); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("empty update err = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := svc.Update(ctx, admin(), "cohere", ""); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("bad provider err = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := svc.Update(ctx, admin(), "", "langchain"); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("bad processor err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestUpdatePersistsAndReturnsActive(t *testing.T) {
	repo := newFakeSettingRepo()
	svc := NewSettingsService(repo, nil)
	ctx := context.Background()

	cfg, err := svc.Update(ctx, admin(), "openai", "direct_gemini")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if cfg.Provider != models.ProviderOpenAI || cfg.Processor != models.ProcessorDirectGemini {
		t.Fatalf("active = %+v", cfg)
	}

	// partial update only touches the supplied key
	cfg, err = svc.Update(ctx, admin(), "gemini", "")
	if err != nil {
		t.Fatalf("partial Update: %v", err)
	}
	if cfg.Provider != models.ProviderGemini || cfg.Processor != models.ProcessorDirectGemini {
		t.Fatalf("active after partial = %+v", cfg)
	}

	if s, err := repo.Get(ctx, models.SettingAIProvider); err != nil || s.UpdatedBy != "admin-1" {
		t.Fatalf("setting row = %+v err = %v", s, err)
	}
}
