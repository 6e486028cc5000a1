package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessingJob tracks one pipeline run for a document. Short-lived
// operational state (TTL-indexed), not the source of truth for document
// status.
type ProcessingJob struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DocumentID string             `bson:"document_id" json:"document_id"`
	Processor  string             `bson:"processor" json:"processor"` // flowise|direct_gemini

	Stage         string `bson:"stage" json:"stage"` // queued|chunking|enriching|done|failed
	ChunksWritten int    `bson:"chunks_written" json:"chunks_written"`
	Error         string `bson:"error,omitempty" json:"error,omitempty"`

	StartedAt time.Time `bson:"started_at" json:"started_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}
