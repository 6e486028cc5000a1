package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/calyxlabs/curator/internal/models"
	"github.com/calyxlabs/curator/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type JobRepository interface {
	Insert(ctx context.Context, j *models.ProcessingJob) error
	SetStage(ctx context.Context, documentID, stage string) error
	SetProgress(ctx context.Context, documentID string, chunksWritten int) error
	Fail(ctx context.Context, documentID, message string) error
	LatestByDocument(ctx context.Context, documentID string) (*models.ProcessingJob, error)
}

type jobRepo struct {
	col *mongo.Collection
}

func NewJobRepo(db *mongo.Database) JobRepository {
	return &jobRepo{col: db.Collection("processing_jobs")}
}

func (r *jobRepo) Insert(ctx context.Context, j *models.ProcessingJob) error {
	now := time.Now().UTC()
	if j.StartedAt.IsZero() {
		j.StartedAt = now
	}
	j.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, j)
	return err
}

func (r *jobRepo) SetStage(ctx context.Context, documentID, stage string) error {
	return r.update(ctx, documentID, bson.M{"stage": stage})
}

func (r *jobRepo) SetProgress(ctx context.Context, documentID string, chunksWritten int) error {
	return r.update(ctx, documentID, bson.M{"chunks_written": chunksWritten})
}

func (r *jobRepo) Fail(ctx context.Context, documentID, message string) error {
	return r.update(ctx, documentID, bson.M{"stage": "failed", "error": message})
}

func (r *jobRepo) update(ctx context.Context, documentID string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	// only the most recent job for the document is live state
	_, err := r.col.UpdateOne(ctx,
		bson.M{"document_id": documentID},
		bson.M{"$set": set},
		options.Update(),
	)
	return err
}

func (r *jobRepo) LatestByDocument(ctx context.Context, documentID string) (*models.ProcessingJob, error) {
	var j models.ProcessingJob
	err := r.col.FindOne(ctx,
		bson.M{"document_id": documentID},
		options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}}),
	).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &j, err
}
