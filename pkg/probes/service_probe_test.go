package probes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/driftworks/stackpulse/pkg/types"
)

func descriptorFor(key, baseURL string) types.ServiceDescriptor {
	return types.ServiceDescriptor{
		Key:         key,
		DisplayName: key,
		BaseURL:     baseURL,
		HealthPath:  "/health",
	}
}

func TestProbeHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("X-Process-Time", "0.004")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber([]types.ServiceDescriptor{descriptorFor("webui", srv.URL)}, 5*time.Second)
	statuses, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	s, ok := statuses["webui"]
	if !ok {
		t.Fatal("missing status entry for webui")
	}
	if s.Status != types.StateHealthy {
		t.Errorf("Status = %q, want healthy", s.Status)
	}
	if s.ResponseTime != "0.004" {
		t.Errorf("ResponseTime = %q, want %q", s.ResponseTime, "0.004")
	}
	if s.Error != "" {
		t.Errorf("Error = %q, want empty", s.Error)
	}
}

func TestProbeHealthyWithoutTimingHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber([]types.ServiceDescriptor{descriptorFor("webui", srv.URL)}, 5*time.Second)
	statuses, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if statuses["webui"].ResponseTime != "unknown" {
		t.Errorf("ResponseTime = %q, want %q", statuses["webui"].ResponseTime, "unknown")
	}
}

func TestProbeNon2xxIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProber([]types.ServiceDescriptor{descriptorFor("webui", srv.URL)}, 5*time.Second)
	statuses, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	s := statuses["webui"]
	if s.Status != types.StateUnhealthy {
		t.Errorf("Status = %q, want unhealthy", s.Status)
	}
	if s.Error == "" {
		t.Error("Error should carry the failure message")
	}
}

func TestProbeTimeoutIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold the request open until the probe gives up on it.
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewHTTPProber([]types.ServiceDescriptor{descriptorFor("slow", srv.URL)}, 50*time.Millisecond)

	start := time.Now()
	statuses, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("probe took %v, timeout not enforced", elapsed)
	}

	s := statuses["slow"]
	if s.Status != types.StateUnhealthy {
		t.Errorf("Status = %q, want unhealthy", s.Status)
	}
	if s.Error == "" {
		t.Error("Error should be non-empty on timeout")
	}
}

func TestProbeConnectionRefusedIsUnhealthy(t *testing.T) {
	// Reserve an address and close it so nothing is listening.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	p := NewHTTPProber([]types.ServiceDescriptor{descriptorFor("gone", deadURL)}, time.Second)
	statuses, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if statuses["gone"].Status != types.StateUnhealthy {
		t.Errorf("Status = %q, want unhealthy", statuses["gone"].Status)
	}
}

func TestProbeOneEntryPerDescriptor(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	services := []types.ServiceDescriptor{
		descriptorFor("a", healthy.URL),
		descriptorFor("b", failing.URL),
		descriptorFor("c", "http://127.0.0.1:1"), // nothing listens here
	}

	p := NewHTTPProber(services, time.Second)
	statuses, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	if len(statuses) != len(services) {
		t.Fatalf("len(statuses) = %d, want %d", len(statuses), len(services))
	}
	for _, sd := range services {
		if _, ok := statuses[sd.Key]; !ok {
			t.Errorf("missing status for %q", sd.Key)
		}
	}
	if statuses["a"].Status != types.StateHealthy {
		t.Errorf("a: Status = %q, want healthy", statuses["a"].Status)
	}
	if statuses["b"].Status != types.StateUnhealthy {
		t.Errorf("b: Status = %q, want unhealthy", statuses["b"].Status)
	}
	if statuses["c"].Status != types.StateUnhealthy {
		t.Errorf("c: Status = %q, want unhealthy", statuses["c"].Status)
	}
}

func TestProbeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewHTTPProber([]types.ServiceDescriptor{descriptorFor("x", "http://127.0.0.1:1")}, time.Second)
	if _, err := p.Probe(ctx); err == nil {
		t.Error("Expected round-level error for cancelled context")
	}
}
