package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/providers/processor"
	mongorepo "github.com/calyxlabs/curator/internal/repositories/mongo"
	pgrepo "github.com/calyxlabs/curator/internal/repositories/postgres"
	"github.com/calyxlabs/curator/internal/services"
	"github.com/calyxlabs/curator/internal/storage"
)

const DefaultStream = "documents:process"

// Queue is the producer side of the processing stream.
type Queue struct {
	Redis  *redis.Client
	Stream string
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{Redis: rdb, Stream: DefaultStream}
}

func (q *Queue) Enqueue(ctx context.Context, documentID string) error {
	stream := q.Stream
	if stream == "" {
		stream = DefaultStream
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"document_id": documentID,
			"ts_unix":     strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
}

// ProcessWorkerPool consumes queued documents, runs the configured external
// processor, writes the resulting chunk rows, and advances document status.
type ProcessWorkerPool struct {
	Redis      *redis.Client
	Docs       pgrepo.DocumentRepository
	Chunks     pgrepo.ChunkRepository
	Jobs       mongorepo.JobRepository // optional
	Settings   services.SettingsService
	Processors processor.Registry
	Signer     storage.Signer
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ProcessWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Docs == nil || p.Chunks == nil || p.Settings == nil || len(p.Processors) == 0 {
		return errors.New("ProcessWorkerPool missing dependency: Redis/Docs/Chunks/Settings/Processors must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = "process-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ProcessWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    5,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *ProcessWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	docID, _ := msg.Values["document_id"].(string)
	if docID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"document_id": docID,
	})

	doc, err := p.Docs.GetByID(ctx, docID)
	if err != nil {
		log.WithError(err).Warn("document vanished before processing")
		return
	}
	if doc.ProcessingStatus != models.DocStatusProcessing {
		log.WithField("status", doc.ProcessingStatus).Warn("document is not in processing state; skipping")
		return
	}

	cfg, err := p.Settings.Active(ctx)
	if err != nil {
		p.fail(ctx, log, doc, "failed to resolve pipeline configuration")
		return
	}
	proc, ok := p.Processors.Get(cfg.Processor)
	if !ok {
		p.fail(ctx, log, doc, "configured document processor is not available")
		return
	}

	signedURL := ""
	if p.Signer != nil {
		signedURL, err = p.Signer.SignedGetURL(ctx, doc.StoragePath, 30*time.Minute)
		if err != nil {
			p.fail(ctx, log, doc, "failed to sign document url")
			return
		}
	}

	p.setStage(ctx, doc.ID, "chunking")
	p.publish(ctx, doc.ID, map[string]any{
		"type": "processing", "document_id": doc.ID, "stage": "chunking",
	})

	chunks, err := proc.Process(ctx, processor.Request{
		DocumentID: doc.ID,
		DocType:    doc.DocType,
		Filename:   doc.OriginalFilename,
		MimeType:   doc.MimeType,
		SignedURL:  signedURL,
	})
	if err != nil {
		log.WithError(err).Error("processor failed")
		p.fail(ctx, log, doc, "document processing failed")
		return
	}

	now := time.Now().UTC()
	rows := make([]models.DocumentChunk, 0, len(chunks))
	for _, c := range chunks {
		meta, merr := json.Marshal(c.Metadata)
		if merr != nil {
			meta = nil
		}
		status := models.ReviewPending
		if c.Filtered {
			status = models.ReviewFiltered
		}
		rows = append(rows, models.DocumentChunk{
			ID:              uuid.NewString(),
			DocumentID:      doc.ID,
			ChunkIndex:      c.Index,
			ChunkText:       c.Text,
			ChunkSize:       len(c.Text),
			AIMetadata:      meta,
			ConfidenceScore: c.Confidence,
			ReviewStatus:    status,
			IsFiltered:      c.Filtered,
			FilteredReason:  c.FilteredReason,
			CreatedAt:       now,
		})
	}

	if err := p.Chunks.InsertBatch(ctx, rows); err != nil {
		log.WithError(err).Error("failed to insert chunks")
		p.fail(ctx, log, doc, "failed to persist chunks")
		return
	}
	if err := p.Docs.SetTotalChunks(ctx, doc.ID, len(rows), now); err != nil {
		log.WithError(err).Error("failed to set total_chunks")
	}
	p.setProgress(ctx, doc.ID, len(rows))

	// Zero chunks means there is nothing to review.
	target := models.DocStatusReview
	if len(rows) == 0 {
		target = models.DocStatusCompleted
	}
	if _, err := p.Docs.TransitionStatus(ctx, doc.ID,
		[]models.DocumentStatus{models.DocStatusProcessing}, target, time.Now().UTC()); err != nil {
		log.WithError(err).Error("failed to transition document")
		return
	}

	p.setStage(ctx, doc.ID, "done")
	p.publish(ctx, doc.ID, map[string]any{
		"type": "processing", "document_id": doc.ID, "stage": "done",
		"total_chunks": len(rows), "status": string(target),
	})
	log.WithField("chunks", len(rows)).Info("document processed")
}

func (p *ProcessWorkerPool) fail(ctx context.Context, log *logrus.Entry, doc *models.Document, msg string) {
	if err := p.Docs.MarkFailed(ctx, doc.ID, msg, time.Now().UTC()); err != nil {
		log.WithError(err).Error("failed to mark document failed")
	}
	if p.Jobs != nil {
		_ = p.Jobs.Fail(ctx, doc.ID, msg)
	}
	p.publish(ctx, doc.ID, map[string]any{
		"type": "processing", "document_id": doc.ID, "stage": "failed", "message": msg,
	})
}

func (p *ProcessWorkerPool) setStage(ctx context.Context, docID, stage string) {
	if p.Jobs != nil {
		_ = p.Jobs.SetStage(ctx, docID, stage)
	}
}

func (p *ProcessWorkerPool) setProgress(ctx context.Context, docID string, n int) {
	if p.Jobs != nil {
		_ = p.Jobs.SetProgress(ctx, docID, n)
	}
}

func (p *ProcessWorkerPool) publish(ctx context.Context, docID string, payload map[string]any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = p.Redis.Publish(ctx, services.ProgressChannel(docID), string(b)).Err()
}
