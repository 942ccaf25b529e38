package probes

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/driftworks/stackpulse/pkg/types"
)

// timingHeader is set by the FastAPI middleware the stack services run;
// when present it is reported as the probe's response time.
const timingHeader = "X-Process-Time"

// HTTPProber probes a fixed set of services over HTTP.
type HTTPProber struct {
	services []types.ServiceDescriptor
	timeout  time.Duration
	client   *http.Client
}

// NewHTTPProber creates a prober for the given descriptor set. Each probe is
// bounded by timeout via its own request context, so a slow backend cannot
// stall the others.
func NewHTTPProber(services []types.ServiceDescriptor, timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		services: services,
		timeout:  timeout,
		client:   &http.Client{},
	}
}

// Probe issues one health request per service, concurrently. Exactly one
// ServiceStatus is produced per descriptor regardless of outcome.
func (p *HTTPProber) Probe(ctx context.Context) (map[string]types.ServiceStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make(map[string]types.ServiceStatus, len(p.services))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, sd := range p.services {
		wg.Add(1)
		go func(sd types.ServiceDescriptor) {
			defer wg.Done()
			status := p.probeOne(ctx, sd)
			mu.Lock()
			results[sd.Key] = status
			mu.Unlock()
		}(sd)
	}
	wg.Wait()

	return results, nil
}

func (p *HTTPProber) probeOne(ctx context.Context, sd types.ServiceDescriptor) types.ServiceStatus {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := strings.TrimRight(sd.BaseURL, "/") + sd.HealthPath

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return types.NewUnhealthyStatus(sd.Key, "invalid request: "+err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return types.NewUnhealthyStatus(sd.Key, err.Error())
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.NewUnhealthyStatus(sd.Key, "unexpected status "+resp.Status)
	}

	return types.NewHealthyStatus(sd.Key, resp.Header.Get(timingHeader))
}

// Ensure HTTPProber implements ServiceProber
var _ ServiceProber = (*HTTPProber)(nil)
