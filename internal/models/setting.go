package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setting keys. Values are small JSON objects, e.g.
// ai_provider -> {"provider":"gemini"}, document_processor -> {"processor":"flowise"}.
const (
	SettingAIProvider        = "ai_provider"
	SettingDocumentProcessor = "document_processor"
)

type EmbeddingProvider string

const (
	ProviderGemini EmbeddingProvider = "gemini"
	ProviderOpenAI EmbeddingProvider = "openai"
)

// Dimensions is fixed per provider; vector columns are sized to match.
func (p EmbeddingProvider) Dimensions() int {
	if p == ProviderOpenAI {
		return 1536
	}
	return 768
}

func ValidProvider(p EmbeddingProvider) bool {
	return p == ProviderGemini || p == ProviderOpenAI
}

type ProcessorKind string

const (
	ProcessorFlowise      ProcessorKind = "flowise"
	ProcessorDirectGemini ProcessorKind = "direct_gemini"
)

func ValidProcessor(p ProcessorKind) bool {
	return p == ProcessorFlowise || p == ProcessorDirectGemini
}

type Setting struct {
	Key       string         `gorm:"column:key;type:text;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
	UpdatedBy string         `gorm:"column:updated_by;type:uuid" json:"updated_by"`
}

func (Setting) TableName() string { return "settings" }
