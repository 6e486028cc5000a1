package embedding

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

const geminiEmbedModel = "text-embedding-004" // 768 dims

// Gemini calls the Generative Language embedContent endpoint.
type Gemini struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{
		apiKey:  apiKey,
		baseURL: "https://generativelanguage.googleapis.com/v1beta",
		hc:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gemini) Dimensions() int { return 768 }

type geminiEmbedRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.apiKey == "" {
		return nil, errors.New("gemini embedding: api key is not set")
	}

	var body geminiEmbedRequest
	body.Model = "models/" + geminiEmbedModel
	body.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.baseURL, geminiEmbedModel, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("gemini embedding: status %d: %s", resp.StatusCode, string(b))
	}

	var out geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, errors.New("gemini embedding: empty embedding in response")
	}
	return out.Embedding.Values, nil
}
