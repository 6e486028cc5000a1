package models

import (
	"time"

	"gorm.io/datatypes"
)

type DocumentStatus string

const (
	DocStatusPending    DocumentStatus = "pending"
	DocStatusProcessing DocumentStatus = "processing"
	DocStatusReview     DocumentStatus = "review"
	DocStatusCompleted  DocumentStatus = "completed"
	DocStatusFailed     DocumentStatus = "failed"
)

type DocType string

const (
	DocTypeFHIR    DocType = "fhir"
	DocTypeVBC     DocType = "vbc"
	DocTypeGrants  DocType = "grants"
	DocTypeBilling DocType = "billing"
)

func ValidDocType(t DocType) bool {
	switch t {
	case DocTypeFHIR, DocTypeVBC, DocTypeGrants, DocTypeBilling:
		return true
	}
	return false
}

type Document struct {
	ID               string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Filename         string         `gorm:"column:filename;type:text" json:"filename"`
	OriginalFilename string         `gorm:"column:original_filename;type:text" json:"original_filename"`
	DocType          DocType        `gorm:"column:doc_type;type:text" json:"doc_type"`
	Description      string         `gorm:"column:description;type:text" json:"description"`
	StoragePath      string         `gorm:"column:storage_path;type:text" json:"storage_path"`
	FileSize         int64          `gorm:"column:file_size;type:bigint" json:"file_size"`
	MimeType         string         `gorm:"column:mime_type;type:text" json:"mime_type"`
	UploadedBy       string         `gorm:"column:uploaded_by;type:uuid;index" json:"uploaded_by"`
	ProcessingStatus DocumentStatus `gorm:"column:processing_status;type:text;index" json:"processing_status"`

	// Counters only ever move forward; each chunk bumps them at most once.
	TotalChunks    int `gorm:"column:total_chunks" json:"total_chunks"`
	ApprovedChunks int `gorm:"column:approved_chunks" json:"approved_chunks"`
	RejectedChunks int `gorm:"column:rejected_chunks" json:"rejected_chunks"`

	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	ErrorMessage string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Document) TableName() string { return "documents" }
