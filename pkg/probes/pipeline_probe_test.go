package probes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestListPipelines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pipelines" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer test-token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"mem0_memory_filter","name":"Mem0 Memory Filter","type":"filter"},
			{"id":"langfuse_tracking","name":"Langfuse Tracking","type":"filter"}
		]}`))
	}))
	defer srv.Close()

	p := NewPipelinesProbe(srv.URL, "test-token", 5*time.Second)
	pipelines, err := p.ListPipelines(context.Background())
	if err != nil {
		t.Fatalf("ListPipelines: %v", err)
	}

	if len(pipelines) != 2 {
		t.Fatalf("len(pipelines) = %d, want 2", len(pipelines))
	}
	if pipelines[0].ID != "mem0_memory_filter" {
		t.Errorf("pipelines[0].ID = %q, want %q", pipelines[0].ID, "mem0_memory_filter")
	}
	if pipelines[1].Name != "Langfuse Tracking" {
		t.Errorf("pipelines[1].Name = %q, want %q", pipelines[1].Name, "Langfuse Tracking")
	}
}

func TestListPipelinesUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewPipelinesProbe(srv.URL, "wrong-token", 5*time.Second)
	if _, err := p.ListPipelines(context.Background()); err == nil {
		t.Error("Expected error for 401 response")
	}
}

func TestListPipelinesUnreachable(t *testing.T) {
	p := NewPipelinesProbe("http://127.0.0.1:1", "t", 200*time.Millisecond)
	if _, err := p.ListPipelines(context.Background()); err == nil {
		t.Error("Expected error for unreachable service")
	}
}
