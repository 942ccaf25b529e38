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

// PipelinesProbe lists the pipelines registered with the pipelines service.
// The service requires a static bearer credential.
type PipelinesProbe struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

// NewPipelinesProbe creates a pipeline lister for the given base URL and token.
func NewPipelinesProbe(baseURL, token string, timeout time.Duration) *PipelinesProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PipelinesProbe{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// pipelinesResponse mirrors the /pipelines payload.
type pipelinesResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"data"`
}

// ListPipelines fetches /pipelines. The agent treats any error (including
// 401 from a bad credential) as "no pipelines this cycle".
func (p *PipelinesProbe) ListPipelines(ctx context.Context) ([]types.PipelineInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.baseURL+"/pipelines", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list pipelines: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var pr pipelinesResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("decode pipelines: %w", err)
	}

	pipelines := make([]types.PipelineInfo, 0, len(pr.Data))
	for _, entry := range pr.Data {
		pipelines = append(pipelines, types.PipelineInfo{
			ID:   entry.ID,
			Name: entry.Name,
			Type: entry.Type,
		})
	}
	return pipelines, nil
}

// Ensure PipelinesProbe implements PipelineLister
var _ PipelineLister = (*PipelinesProbe)(nil)
