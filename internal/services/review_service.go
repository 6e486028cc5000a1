package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calyxlabs/curator/internal/authz"
	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/providers/embedding"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/review"
	"github.com/calyxlabs/curator/internal/utils"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// reviewable are the statuses a curator decision may move a chunk out of.
// Anything terminal stays terminal: re-reviewing is a conflict, which also
// guarantees the document counters move at most once per chunk.
var reviewable = []models.ReviewStatus{models.ReviewPending, models.ReviewEnriching}

type ReviewOutcome struct {
	DocumentID string          `json:"document_id"`
	Progress   review.Progress `json:"progress"`
	Completed  bool            `json:"completed"`
}

type ReviewService interface {
	Approve(ctx context.Context, reviewer *models.Profile, chunkID, notes string) (*ReviewOutcome, error)
	Reject(ctx context.Context, reviewer *models.Profile, chunkID string) (*ReviewOutcome, error)
	EditMetadata(ctx context.Context, editor *models.Profile, chunkID string, partial map[string]any) (datatypes.JSON, error)
}

type reviewService struct {
	docs      pgrepo.DocumentRepository
	chunks    pgrepo.ChunkRepository
	vectors   pgrepo.VectorRepository
	settings  SettingsService
	providers embedding.Registry
	notifier  ProgressNotifier // optional
	log       *logrus.Logger
}

func NewReviewService(
	docs pgrepo.DocumentRepository,
	chunks pgrepo.ChunkRepository,
	vectors pgrepo.VectorRepository,
	settings SettingsService,
	providers embedding.Registry,
	notifier ProgressNotifier,
	log *logrus.Logger,
) ReviewService {
	if log == nil {
		log = logrus.New()
	}
	return &reviewService{
		docs:      docs,
		chunks:    chunks,
		vectors:   vectors,
		settings:  settings,
		providers: providers,
		notifier:  notifier,
		log:       log,
	}
}

func (s *reviewService) Approve(ctx context.Context, reviewer *models.Profile, chunkID, notes string) (*ReviewOutcome, error) {
	const op = "ReviewService.Approve"

	chunk, doc, err := s.loadForReview(ctx, op, reviewer, chunkID)
	if err != nil {
		return nil, err
	}

	meta, err := chunk.ParsedMetadata()
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "chunk metadata is corrupt", err)
	}
	if chunk.ConfidenceScore < 0 || chunk.ConfidenceScore > 1 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "confidence_score must be within [0,1]", nil)
	}
	if meta.RelevanceScore < 0 || meta.RelevanceScore > 1 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "relevance_score must be within [0,1]", nil)
	}

	cfg, err := s.settings.Active(ctx)
	if err != nil {
		return nil, err
	}
	provider, ok := s.providers.Get(cfg.Provider)
	if !ok {
		return nil, utils.E(utils.CodeUnavailable, op, "active embedding provider is not configured", nil)
	}

	vec, err := provider.Embed(ctx, chunk.ChunkText)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "embedding provider failed", err)
	}
	if len(vec) != cfg.Provider.Dimensions() {
		return nil, utils.E(utils.CodeInternal, op,
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(vec), cfg.Provider.Dimensions()), nil)
	}

	now := time.Now().UTC()
	moved, err := s.chunks.Review(ctx, chunk.ID, reviewable, models.ReviewApproved, reviewer.ID, notes, now)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update chunk", err)
	}
	if !moved {
		return nil, utils.E(utils.CodeConflict, op, "chunk has already been reviewed", nil)
	}

	record := &models.VectorRecord{
		ID:             uuid.NewString(),
		ChunkID:        chunk.ID,
		DocumentID:     doc.ID,
		Content:        chunk.ChunkText,
		DocType:        doc.DocType,
		Topic:          meta.Topic,
		Subtopic:       meta.Subtopic,
		UseCases:       meta.UseCases,
		KeyConcepts:    meta.KeyConcepts,
		RelevanceScore: meta.RelevanceScore,
		CuratorNotes:   notes,
		SourceDocument: doc.OriginalFilename,
		CuratorName:    reviewer.FullName,
		ApprovedDate:   now,
		ApprovedBy:     reviewer.ID,
		LastUpdated:    now,
	}
	if cfg.Provider == models.ProviderOpenAI {
		record.EmbeddingOpenAI = pgvector.NewVector(vec)
	} else {
		record.EmbeddingGemini = pgvector.NewVector(vec)
	}

	if err := s.vectors.Insert(ctx, record); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist vector record", err)
	}

	if err := s.docs.IncrementApproved(ctx, doc.ID, now); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to bump approved counter", err)
	}

	return s.finishReview(ctx, op, doc)
}

func (s *reviewService) Reject(ctx context.Context, reviewer *models.Profile, chunkID string) (*ReviewOutcome, error) {
	const op = "ReviewService.Reject"

	chunk, doc, err := s.loadForReview(ctx, op, reviewer, chunkID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	moved, err := s.chunks.Review(ctx, chunk.ID, reviewable, models.ReviewRejected, reviewer.ID, "", now)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update chunk", err)
	}
	if !moved {
		return nil, utils.E(utils.CodeConflict, op, "chunk has already been reviewed", nil)
	}

	if err := s.docs.IncrementRejected(ctx, doc.ID, now); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to bump rejected counter", err)
	}

	return s.finishReview(ctx, op, doc)
}

func (s *reviewService) EditMetadata(ctx context.Context, editor *models.Profile, chunkID string, partial map[string]any) (datatypes.JSON, error) {
	const op = "ReviewService.EditMetadata"

	if !authz.CanReview(editor) {
		return nil, utils.E(utils.CodeForbidden, op, "curator role required", nil)
	}
	if chunkID == "" || len(partial) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "chunk id and metadata are required", nil)
	}
	if v, ok := partial["relevance_score"]; ok {
		if f, ok := v.(float64); !ok || f < 0 || f > 1 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "relevance_score must be within [0,1]", nil)
		}
	}

	chunk, err := s.chunks.GetByID(ctx, chunkID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "chunk not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load chunk", err)
	}

	merged := map[string]any{}
	if len(chunk.AIMetadata) > 0 {
		if err := json.Unmarshal(chunk.AIMetadata, &merged); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "chunk metadata is corrupt", err)
		}
	}
	// shallow merge: supplied keys override, everything else survives
	for k, v := range partial {
		merged[k] = v
	}

	b, err := json.Marshal(merged)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to encode metadata", err)
	}

	if err := s.chunks.UpdateMetadata(ctx, chunkID, b, editor.ID, time.Now().UTC()); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "chunk not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to persist metadata", err)
	}
	return b, nil
}

func (s *reviewService) loadForReview(ctx context.Context, op string, reviewer *models.Profile, chunkID string) (*models.DocumentChunk, *models.Document, error) {
	if !authz.CanReview(reviewer) {
		return nil, nil, utils.E(utils.CodeForbidden, op, "curator role required", nil)
	}
	if chunkID == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "chunk id is required", nil)
	}

	chunk, err := s.chunks.GetByID(ctx, chunkID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeNotFound, op, "chunk not found", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load chunk", err)
	}

	doc, err := s.docs.GetByID(ctx, chunk.DocumentID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, nil, utils.E(utils.CodeNotFound, op, "document not found", err)
		}
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load document", err)
	}
	return chunk, doc, nil
}

// finishReview recomputes progress from chunk rows, flips the document to
// completed once every chunk is terminal, and notifies live listeners.
func (s *reviewService) finishReview(ctx context.Context, op string, doc *models.Document) (*ReviewOutcome, error) {
	counts, err := s.chunks.CountByStatus(ctx, doc.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count chunks", err)
	}

	var p review.Progress
	for status, n := range counts {
		p.Total += int(n)
		switch status {
		case models.ReviewApproved:
			p.Approved += int(n)
		case models.ReviewRejected:
			p.Rejected += int(n)
		case models.ReviewFiltered:
			p.Filtered += int(n)
		default:
			p.Pending += int(n)
		}
	}

	out := &ReviewOutcome{DocumentID: doc.ID, Progress: p}

	terminal := p.Approved + p.Rejected + p.Filtered
	if doc.TotalChunks > 0 && terminal >= doc.TotalChunks {
		moved, err := s.docs.TransitionStatus(ctx, doc.ID,
			[]models.DocumentStatus{models.DocStatusReview, models.DocStatusProcessing},
			models.DocStatusCompleted, time.Now().UTC())
		if err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to complete document", err)
		}
		out.Completed = moved || doc.ProcessingStatus == models.DocStatusCompleted
	}

	if s.notifier != nil {
		payload := map[string]any{
			"type":        "review_progress",
			"document_id": doc.ID,
			"progress":    p,
			"completed":   out.Completed,
		}
		if err := s.notifier.PublishProgress(ctx, doc.ID, payload); err != nil {
			s.log.WithError(err).WithField("document_id", doc.ID).Warn("failed to publish review progress")
		}
	}
	return out, nil
}
