package services

import (
	"context"
	"strings"

	"github.com/calyxlabs/curator/internal/authz"
	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/providers/embedding"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/utils"
	"github.com/pgvector/pgvector-go"
)

const (
	defaultSearchThreshold = 0.7
	defaultSearchLimit     = 10
	maxSearchLimit         = 100
)

type SearchInput struct {
	Query     string
	Threshold float64 // 0 means default
	Limit     int     // 0 means default
	DocType   models.DocType
	UseCases  []string
}

type SearchService interface {
	Search(ctx context.Context, actor *models.Profile, in SearchInput) ([]pgrepo.SearchResult, error)
	// PurgeDocument removes every vector record derived from a document.
	PurgeDocument(ctx context.Context, actor *models.Profile, documentID string) error
	PurgeChunk(ctx context.Context, actor *models.Profile, chunkID string) error
}

type searchService struct {
	vectors   pgrepo.VectorRepository
	settings  SettingsService
	providers embedding.Registry
}

func NewSearchService(vectors pgrepo.VectorRepository, settings SettingsService, providers embedding.Registry) SearchService {
	return &searchService{vectors: vectors, settings: settings, providers: providers}
}

func (s *searchService) Search(ctx context.Context, actor *models.Profile, in SearchInput) ([]pgrepo.SearchResult, error) {
	const op = "SearchService.Search"

	if strings.TrimSpace(in.Query) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "query is required", nil)
	}
	if in.Threshold == 0 {
		in.Threshold = defaultSearchThreshold
	}
	if in.Threshold < 0 || in.Threshold > 1 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "threshold must be within [0,1]", nil)
	}
	if in.Limit <= 0 {
		in.Limit = defaultSearchLimit
	}
	if in.Limit > maxSearchLimit {
		in.Limit = maxSearchLimit
	}
	if in.DocType != "" && !models.ValidDocType(in.DocType) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "docType must be one of fhir, vbc, grants, billing", nil)
	}

	cfg, err := s.settings.Active(ctx)
	if err != nil {
		return nil, err
	}
	provider, ok := s.providers.Get(cfg.Provider)
	if !ok {
		return nil, utils.E(utils.CodeUnavailable, op, "active embedding provider is not configured", nil)
	}

	vec, err := provider.Embed(ctx, in.Query)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "embedding provider failed", err)
	}

	rows, err := s.vectors.Search(ctx, cfg.Provider, pgvector.NewVector(vec), pgrepo.SearchOptions{
		Threshold: in.Threshold,
		Limit:     in.Limit,
		DocType:   in.DocType,
		UseCases:  in.UseCases,
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "vector search failed", err)
	}
	return rows, nil
}

func (s *searchService) PurgeDocument(ctx context.Context, actor *models.Profile, documentID string) error {
	const op = "SearchService.PurgeDocument"

	if !authz.IsAdmin(actor) {
		return utils.E(utils.CodeForbidden, op, "admin role required", nil)
	}
	if documentID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}
	if err := s.vectors.DeleteByDocument(ctx, documentID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete vector records", err)
	}
	return nil
}

func (s *searchService) PurgeChunk(ctx context.Context, actor *models.Profile, chunkID string) error {
	const op = "SearchService.PurgeChunk"

	if !authz.IsAdmin(actor) {
		return utils.E(utils.CodeForbidden, op, "admin role required", nil)
	}
	if chunkID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "chunk id is required", nil)
	}
	if err := s.vectors.DeleteByChunk(ctx, chunkID); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete vector record", err)
	}
	return nil
}
