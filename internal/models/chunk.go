package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewApproved  ReviewStatus = "approved"
	ReviewRejected  ReviewStatus = "rejected"
	ReviewFiltered  ReviewStatus = "filtered"
	ReviewEnriching ReviewStatus = "enriching"
)

// Terminal reports whether a chunk counts toward document completion.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected || s == ReviewFiltered
}

// AIMetadata is the annotation shape the pipeline attaches to each chunk.
// Persisted as JSONB; curators may shallow-merge edits on top of it.
type AIMetadata struct {
	Topic          string   `json:"topic,omitempty"`
	Subtopic       string   `json:"subtopic,omitempty"`
	RelevanceScore float64  `json:"relevance_score,omitempty"`
	UseCases       []string `json:"use_cases,omitempty"`
	KeyConcepts    []string `json:"key_concepts,omitempty"`
	Acronyms       []string `json:"acronyms,omitempty"`
}

type DocumentChunk struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DocumentID string `gorm:"column:document_id;type:uuid;index;uniqueIndex:uniq_doc_chunk_index" json:"document_id"`
	ChunkIndex int    `gorm:"column:chunk_index;uniqueIndex:uniq_doc_chunk_index" json:"chunk_index"`
	ChunkText  string `gorm:"column:chunk_text;type:text" json:"chunk_text"`
	ChunkSize  int    `gorm:"column:chunk_size" json:"chunk_size"`

	AIMetadata      datatypes.JSON `gorm:"column:ai_metadata;type:jsonb" json:"ai_metadata"`
	ConfidenceScore float64        `gorm:"column:confidence_score" json:"confidence_score"`

	ReviewStatus ReviewStatus `gorm:"column:review_status;type:text;index" json:"review_status"`
	CuratorNotes string       `gorm:"column:curator_notes;type:text" json:"curator_notes,omitempty"`
	ReviewedBy   *string      `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time   `gorm:"column:reviewed_at;type:timestamptz" json:"reviewed_at,omitempty"`

	IsFiltered     bool   `gorm:"column:is_filtered" json:"is_filtered"`
	FilteredReason string `gorm:"column:filtered_reason;type:text" json:"filtered_reason,omitempty"`

	MetadataEdited   bool       `gorm:"column:metadata_edited" json:"metadata_edited"`
	MetadataEditedBy *string    `gorm:"column:metadata_edited_by;type:uuid" json:"metadata_edited_by,omitempty"`
	MetadataEditedAt *time.Time `gorm:"column:metadata_edited_at;type:timestamptz" json:"metadata_edited_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (DocumentChunk) TableName() string { return "document_chunks" }

// ParsedMetadata decodes the JSONB annotation; an empty column yields the
// zero value.
func (c *DocumentChunk) ParsedMetadata() (AIMetadata, error) {
	var m AIMetadata
	if len(c.AIMetadata) == 0 {
		return m, nil
	}
	err := json.Unmarshal(c.AIMetadata, &m)
	return m, err
}
