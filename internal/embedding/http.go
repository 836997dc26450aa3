package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPEmbedder calls an Ollama-compatible embedding server. Images are sent base64
// encoded in the "images" field of the same endpoint, so the configured model must be
// multimodal for image queries.
type HTTPEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// NewHTTPEmbedder creates a client for the server at baseURL. dimensions is the expected
// vector length; responses of another length are rejected.
func NewHTTPEmbedder(baseURL, model string, dimensions int, timeout time.Duration) *HTTPEmbedder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPEmbedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedText embeds text.
func (e *HTTPEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, embedRequest{Model: e.model, Prompt: text})
}

// EmbedImage embeds raw image bytes.
func (e *HTTPEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image: %w", ErrNoInput)
	}
	return e.embed(ctx, embedRequest{
		Model:  e.model,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
}

func (e *HTTPEmbedder) embed(ctx context.Context, in embedRequest) ([]float32, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embed request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("embed decode: %w", err)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embed: server returned an empty vector")
	}
	if e.dimensions > 0 && len(result.Embedding) != e.dimensions {
		return nil, fmt.Errorf("%w: server returned %d, want %d", ErrDimensionMismatch, len(result.Embedding), e.dimensions)
	}

	out := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		out[i] = float32(v)
	}
	return out, nil
}

// Dimensions returns the expected embedding dimension.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases idle connections.
func (e *HTTPEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
