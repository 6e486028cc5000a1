package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/calyxlabs/curator/internal/authz"
	"github.com/calyxlabs/curator/internal/models"
	mongorepo "github.com/calyxlabs/curator/internal/repositories/mongo"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/review"
	"github.com/calyxlabs/curator/internal/storage"
	"github.com/calyxlabs/curator/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type UploadInput struct {
	Title            string
	Description      string
	DocType          models.DocType
	OriginalFilename string
	MimeType         string
	ObjectName       string
	Size             int64
	Body             io.Reader
}

type DocumentService interface {
	Upload(ctx context.Context, actor *models.Profile, in UploadInput) (*models.Document, error)
	// Process hands the document to the external pipeline: CAS
	// pending -> processing, record a job, enqueue for the worker pool.
	Process(ctx context.Context, actor *models.Profile, docID string) error
	Get(ctx context.Context, actor *models.Profile, id string) (*models.Document, error)
	List(ctx context.Context, actor *models.Profile, limit int) ([]models.Document, error)
	ListChunks(ctx context.Context, actor *models.Profile, docID string) ([]models.DocumentChunk, error)
	Progress(ctx context.Context, actor *models.Profile, docID string) (review.Progress, error)
}

type documentService struct {
	docs     pgrepo.DocumentRepository
	chunks   pgrepo.ChunkRepository
	jobs     mongorepo.JobRepository // optional
	uploader storage.Uploader
	queue    ProcessQueue
	settings SettingsService
	log      *logrus.Logger
}

func NewDocumentService(
	docs pgrepo.DocumentRepository,
	chunks pgrepo.ChunkRepository,
	jobs mongorepo.JobRepository,
	uploader storage.Uploader,
	queue ProcessQueue,
	settings SettingsService,
	log *logrus.Logger,
) DocumentService {
	if log == nil {
		log = logrus.New()
	}
	return &documentService{
		docs:     docs,
		chunks:   chunks,
		jobs:     jobs,
		uploader: uploader,
		queue:    queue,
		settings: settings,
		log:      log,
	}
}

func (s *documentService) Upload(ctx context.Context, actor *models.Profile, in UploadInput) (*models.Document, error) {
	const op = "DocumentService.Upload"

	if !authz.CanReview(actor) {
		return nil, utils.E(utils.CodeForbidden, op, "curator role required", nil)
	}
	if !models.ValidDocType(in.DocType) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "documentType must be one of fhir, vbc, grants, billing", nil)
	}
	if in.ObjectName == "" || in.Body == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "file is required", nil)
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}

	storedPath, err := s.uploader.Upload(ctx, in.ObjectName, in.MimeType, in.Body)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to store file", err)
	}

	now := time.Now().UTC()
	meta, _ := json.Marshal(map[string]string{"title": in.Title})
	row := &models.Document{
		ID:               uuid.NewString(),
		Filename:         in.ObjectName,
		OriginalFilename: in.OriginalFilename,
		DocType:          in.DocType,
		Description:      in.Description,
		StoragePath:      storedPath,
		FileSize:         in.Size,
		MimeType:         in.MimeType,
		UploadedBy:       actor.ID,
		ProcessingStatus: models.DocStatusPending,
		Metadata:         meta,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.docs.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist document", err)
	}
	return row, nil
}

func (s *documentService) Process(ctx context.Context, actor *models.Profile, docID string) error {
	const op = "DocumentService.Process"

	if !authz.CanReview(actor) {
		return utils.E(utils.CodeForbidden, op, "curator role required", nil)
	}
	if docID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}

	doc, err := s.docs.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "document not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load document", err)
	}

	now := time.Now().UTC()
	moved, err := s.docs.TransitionStatus(ctx, doc.ID,
		[]models.DocumentStatus{models.DocStatusPending}, models.DocStatusProcessing, now)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to transition document", err)
	}
	if !moved {
		return utils.E(utils.CodeConflict, op, "document is not pending", nil)
	}

	cfg, err := s.settings.Active(ctx)
	if err != nil {
		cfg = ActiveConfig{Processor: models.ProcessorFlowise}
	}

	// Job tracking is auxiliary state; losing it must not block processing.
	if s.jobs != nil {
		job := &models.ProcessingJob{
			DocumentID: doc.ID,
			Processor:  string(cfg.Processor),
			Stage:      "queued",
			StartedAt:  now,
			ExpiresAt:  now.Add(24 * time.Hour),
		}
		if err := s.jobs.Insert(ctx, job); err != nil {
			s.log.WithError(err).WithField("document_id", doc.ID).Warn("failed to record processing job")
		}
	}

	if err := s.queue.Enqueue(ctx, doc.ID); err != nil {
		// hand-off failed: put the document back so process can be retried
		if _, rerr := s.docs.TransitionStatus(ctx, doc.ID,
			[]models.DocumentStatus{models.DocStatusProcessing}, models.DocStatusPending, time.Now().UTC()); rerr != nil {
			s.log.WithError(rerr).WithField("document_id", doc.ID).Error("failed to revert document after enqueue failure")
		}
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue document for processing", err)
	}
	return nil
}

func (s *documentService) Get(ctx context.Context, actor *models.Profile, id string) (*models.Document, error) {
	const op = "DocumentService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "document id is required", nil)
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "document not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load document", err)
	}
	return doc, nil
}

func (s *documentService) List(ctx context.Context, actor *models.Profile, limit int) ([]models.Document, error) {
	const op = "DocumentService.List"

	rows, err := s.docs.List(ctx, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list documents", err)
	}
	return rows, nil
}

func (s *documentService) ListChunks(ctx context.Context, actor *models.Profile, docID string) ([]models.DocumentChunk, error) {
	const op = "DocumentService.ListChunks"

	if _, err := s.Get(ctx, actor, docID); err != nil {
		return nil, err
	}
	rows, err := s.chunks.ListByDocument(ctx, docID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list chunks", err)
	}
	return rows, nil
}

func (s *documentService) Progress(ctx context.Context, actor *models.Profile, docID string) (review.Progress, error) {
	chunks, err := s.ListChunks(ctx, actor, docID)
	if err != nil {
		return review.Progress{}, err
	}
	return review.Summarize(chunks), nil
}
