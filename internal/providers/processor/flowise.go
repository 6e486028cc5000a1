package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Flowise invokes a Flowise chatflow that performs chunking and metadata
// enrichment, returning a JSON chunk list.
type Flowise struct {
	baseURL string
	flowID  string
	apiKey  string
	hc      *http.Client
}

func NewFlowise(baseURL, flowID, apiKey string) *Flowise {
	return &Flowise{
		baseURL: baseURL,
		flowID:  flowID,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 5 * time.Minute},
	}
}

type flowiseChunk struct {
	Index          int      `json:"chunk_index"`
	Text           string   `json:"chunk_text"`
	Topic          string   `json:"topic"`
	Subtopic       string   `json:"subtopic"`
	RelevanceScore float64  `json:"relevance_score"`
	UseCases       []string `json:"use_cases"`
	KeyConcepts    []string `json:"key_concepts"`
	Acronyms       []string `json:"acronyms"`
	Confidence     float64  `json:"confidence_score"`
	Filtered       bool     `json:"filtered"`
	FilteredReason string   `json:"filtered_reason"`
}

type flowiseResponse struct {
	Chunks []flowiseChunk `json:"chunks"`
}

func (f *Flowise) Process(ctx context.Context, req Request) ([]Chunk, error) {
	if f.baseURL == "" || f.flowID == "" {
		return nil, errors.New("flowise: base url and flow id are required")
	}

	payload, err := json.Marshal(map[string]any{
		"question": "process document",
		"overrideConfig": map[string]any{
			"documentId":  req.DocumentID,
			"documentUrl": req.SignedURL,
			"docType":     string(req.DocType),
			"mimeType":    req.MimeType,
			"filename":    req.Filename,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/prediction/%s", f.baseURL, f.flowID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if f.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("flowise: status %d: %s", resp.StatusCode, string(b))
	}

	// Flowise wraps tool output in a "json" field when the flow ends with a
	// structured output node; fall back to the raw body otherwise.
	var envelope struct {
		JSON json.RawMessage `json:"json"`
		Text string          `json:"text"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	chunkJSON := raw
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if len(envelope.JSON) > 0 {
			chunkJSON = envelope.JSON
		} else if envelope.Text != "" {
			chunkJSON = []byte(envelope.Text)
		}
	}

	var out flowiseResponse
	if err := json.Unmarshal(chunkJSON, &out); err != nil {
		return nil, fmt.Errorf("flowise: unexpected response shape: %w", err)
	}
	return convertFlowiseChunks(out.Chunks), nil
}

func convertFlowiseChunks(in []flowiseChunk) []Chunk {
	out := make([]Chunk, 0, len(in))
	for i, c := range in {
		idx := c.Index
		if idx == 0 && i > 0 {
			idx = i
		}
		ch := Chunk{
			Index:          idx,
			Text:           c.Text,
			Confidence:     c.Confidence,
			Filtered:       c.Filtered,
			FilteredReason: c.FilteredReason,
		}
		ch.Metadata.Topic = c.Topic
		ch.Metadata.Subtopic = c.Subtopic
		ch.Metadata.RelevanceScore = c.RelevanceScore
		ch.Metadata.UseCases = c.UseCases
		ch.Metadata.KeyConcepts = c.KeyConcepts
		ch.Metadata.Acronyms = c.Acronyms
		out = append(out, ch)
	}
	return out
}
