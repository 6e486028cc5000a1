package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
)

// VertexGemini is the direct_gemini processor: it pulls the document text
// and asks Gemini to chunk and annotate it in one structured-output call.
type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel
	hc     *http.Client
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"

	return &VertexGemini{
		client: c,
		model:  m,
		hc:     &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

const chunkPrompt = `Split the document below into coherent chunks of roughly 200-500 words.
For each chunk produce a JSON object with: chunk_index (0-based), chunk_text,
topic, subtopic, relevance_score (0..1), use_cases (string array),
key_concepts (string array), acronyms (string array), confidence_score (0..1).
Reply with a JSON object {"chunks":[...]} and nothing else.

Document type: %s

Document:
%s`

func (v *VertexGemini) Process(ctx context.Context, req Request) ([]Chunk, error) {
	text, err := v.fetchText(ctx, req.SignedURL)
	if err != nil {
		return nil, fmt.Errorf("direct_gemini: fetch document: %w", err)
	}

	prompt := fmt.Sprintf(chunkPrompt, req.DocType, text)

	it := v.model.GenerateContentStream(ctx, vertexgenai.Text(prompt))

	var sb strings.Builder
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("direct_gemini: generate: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(vertexgenai.Text); ok {
					sb.WriteString(string(t))
				}
			}
		}
	}

	var out flowiseResponse // same wire shape as the Flowise flow emits
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		return nil, fmt.Errorf("direct_gemini: unexpected model output: %w", err)
	}
	return convertFlowiseChunks(out.Chunks), nil
}

func (v *VertexGemini) fetchText(ctx context.Context, signedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := v.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d fetching document", resp.StatusCode)
	}

	const maxBytes = 20 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
