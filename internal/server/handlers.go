package server

import (
	"encoding/json"
	"net/http"
	"time"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleHealth reports process liveness and uptime.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"uptimeSeconds": int(time.Since(s.startedAt).Seconds()),
	})
}

// handleStatus serves the full last-known snapshot. Reads never trigger a
// fresh cycle; before the first cycle completes this is an empty snapshot.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"snapshot":   snap,
		"lastUpdate": snap.Timestamp,
	})
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Snapshot().Services)
}

// handleSystem serves the cached host metrics; null while the metrics
// source is unavailable.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.agent.Snapshot().System)
}

// handleModels fetches the model list live rather than from the cache.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.agent.Models(r.Context())
	if err != nil {
		s.logger.Warn("live model fetch failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// handlePipelines fetches the pipeline list live rather than from the cache.
func (s *Server) handlePipelines(w http.ResponseWriter, r *http.Request) {
	pipelines, err := s.agent.Pipelines(r.Context())
	if err != nil {
		s.logger.Warn("live pipeline fetch failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pipelines)
}
