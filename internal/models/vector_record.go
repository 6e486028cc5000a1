package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// VectorRecord is the searchable copy of an approved chunk. Insert-only:
// written exactly once when a curator approves, deleted only via admin
// action or FK cascade. One embedding column per provider; only the column
// of the provider active at approval time is populated.
type VectorRecord struct {
	ID         string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ChunkID    string `gorm:"column:chunk_id;type:uuid;uniqueIndex" json:"chunk_id"`
	DocumentID string `gorm:"column:document_id;type:uuid;index" json:"document_id"`
	Content    string `gorm:"column:content;type:text" json:"content"`

	EmbeddingGemini pgvector.Vector `gorm:"column:embedding_gemini;type:vector(768)" json:"-"`
	EmbeddingOpenAI pgvector.Vector `gorm:"column:embedding_openai;type:vector(1536)" json:"-"`

	DocType  DocType `gorm:"column:doc_type;type:text;index" json:"doc_type"`
	Topic    string  `gorm:"column:topic;type:text" json:"topic,omitempty"`
	Subtopic string  `gorm:"column:subtopic;type:text" json:"subtopic,omitempty"`

	UseCases    pq.StringArray `gorm:"column:use_cases;type:text[]" json:"use_cases,omitempty"`
	KeyConcepts pq.StringArray `gorm:"column:key_concepts;type:text[]" json:"key_concepts,omitempty"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]" json:"tags,omitempty"`

	RelevanceScore float64 `gorm:"column:relevance_score" json:"relevance_score"`
	CuratorNotes   string  `gorm:"column:curator_notes;type:text" json:"curator_notes,omitempty"`

	SourceDocument string `gorm:"column:source_document;type:text" json:"source_document,omitempty"`
	SourceURL      string `gorm:"column:source_url;type:text" json:"source_url,omitempty"`
	SourcePage     int    `gorm:"column:source_page" json:"source_page,omitempty"`
	Domain         string `gorm:"column:domain;type:text" json:"domain,omitempty"`

	CuratorName  string    `gorm:"column:curator_name;type:text" json:"curator_name,omitempty"`
	ApprovedDate time.Time `gorm:"column:approved_date;type:timestamptz" json:"approved_date"`
	ApprovedBy   string    `gorm:"column:approved_by;type:uuid" json:"approved_by"`
	LastUpdated  time.Time `gorm:"column:last_updated;type:timestamptz" json:"last_updated"`
}

func (VectorRecord) TableName() string { return "vector_records" }
