package services

import (
	"context"
	"testing"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/providers/embedding"
	"github.com/calyxlabs/curator/internal/utils"
)

func searchFixture() (SearchService, *fakeVectorRepo, *fakeEmbedder) {
	vectors := &fakeVectorRepo{}
	embedder := &fakeEmbedder{dims: 768}
	settings := NewSettingsService(newFakeSettingRepo(), nil)
	providers := embedding.Registry{models.ProviderGemini: embedder}

	return NewSearchService(vectors, settings, providers), vectors, embedder
}

func TestSearchAppliesDefaults(t *testing.T) {
	svc, vectors, embedder := searchFixture()

	_, err := svc.Search(context.Background(), curator(), SearchInput{Query: "prior authorization"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if embedder.calls != 1 {
		t.Fatalf("embed calls = %d, want 1", embedder.calls)
	}
	if vectors.lastOpts.Threshold != 0.7 || vectors.lastOpts.Limit != 10 {
		t.Fatalf("opts = %+v, want defaults 0.7/10", vectors.lastOpts)
	}
	if vectors.lastProvider != models.ProviderGemini {
		t.Fatalf("provider = %q, want gemini", vectors.lastProvider)
	}
}

func TestSearchForwardsFilters(t *testing.T) {
	svc, vectors, _ := searchFixture()

	_, err := svc.Search(context.Background(), curator(), SearchInput{
		Query:     "risk adjustment",
		Threshold: 0.85,
		Limit:     25,
		DocType:   models.DocTypeVBC,
		UseCases:  []string{"contracting"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	opts := vectors.lastOpts
	if opts.Threshold != 0.85 || opts.Limit != 25 || opts.DocType != models.DocTypeVBC {
		t.Fatalf("opts = %+v", opts)
	}
	if len(opts.UseCases) != 1 || opts.UseCases[0] != "contracting" {
		t.Fatalf("use cases = %v", opts.UseCases)
	}
}

func TestSearchValidation(t *testing.T) {
	svc, _, _ := searchFixture()
	ctx := context.Background()

	if _, err := svc.Search(ctx, curator(), SearchInput{Query: "  "}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("blank query err = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := svc.Search(ctx, curator(), SearchInput{Query: "x", Threshold: 1.5}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("bad threshold err = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := svc.Search(ctx, curator(), SearchInput{Query: "x", DocType: "memo"}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("bad docType err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestSearchCapsLimit(t *testing.T) {
	svc, vectors, _ := searchFixture()

	if _, err := svc.Search(context.Background(), curator(), SearchInput{Query: "x", Limit: 5000}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if vectors.lastOpts.Limit != 100 {
		t.Fatalf("limit = %d, want capped at 100", vectors.lastOpts.Limit)
	}
}

func TestPurgeRequiresAdmin(t *testing.T) {
	svc, _, _ := searchFixture()
	ctx := context.Background()

	if err := svc.PurgeDocument(ctx, curator(), "doc-1"); !utils.IsCode(err, utils.CodeForbidden) {
		t.Fatalf("PurgeDocument err = %v, want FORBIDDEN", err)
	}
	if err := svc.PurgeChunk(ctx, curator(), "chunk-1"); !utils.IsCode(err, utils.CodeForbidden) {
		t.Fatalf("PurgeChunk err = %v, want FORBIDDEN", err)
	}
	if err := svc.PurgeDocument(ctx, admin(), "doc-1"); err != nil {
		t.Fatalf("PurgeDocument as admin: %v", err)
	}
}

func TestSearchUnavailableWithoutProvider(t *testing.T) {
	vectors := &fakeVectorRepo{}
	settings := NewSettingsService(newFakeSettingRepo(), nil)
	svc := NewSearchService(vectors, settings, embedding.Registry{})

	_, err := svc.Search(context.Background(), curator(), SearchInput{Query: "x"})
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("err = %v, want UNAVAILABLE", err)
	}
}
