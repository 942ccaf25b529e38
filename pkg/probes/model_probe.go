package probes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/driftworks/stackpulse/pkg/types"
)

// OllamaModelProbe lists the models loaded in a local Ollama instance.
type OllamaModelProbe struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewOllamaModelProbe creates a model lister for the given Ollama base URL.
func NewOllamaModelProbe(baseURL string, timeout time.Duration) *OllamaModelProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OllamaModelProbe{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{},
	}
}

// ollamaTagsResponse mirrors the /api/tags payload.
type ollamaTagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

// ListModels fetches /api/tags. The agent treats any error as "no models
// this cycle"; the error is still returned for the live query surface.
func (p *OllamaModelProbe) ListModels(ctx context.Context) ([]types.ModelInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list models: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var tags ollamaTagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}

	models := make([]types.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, types.ModelInfo{
			Name:       m.Name,
			SizeBytes:  m.Size,
			ModifiedAt: m.ModifiedAt,
		})
	}
	return models, nil
}

// Ensure OllamaModelProbe implements ModelLister
var _ ModelLister = (*OllamaModelProbe)(nil)
