package opsserver

import (
	"net/http"
	"runtime"
	"time"

	"asset-ingest/internal/ingest"

	"github.com/bytedance/sonic"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status       string        `json:"status"`
	Version      string        `json:"version"`
	Uptime       string        `json:"uptime"`
	Pipeline     ingest.Status `json:"pipeline"`
	GoVersion    string        `json:"goVersion"`
	NumGoroutine int           `json:"numGoroutine"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Status()

	resp := HealthResponse{
		Version:      s.cfg.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		Pipeline:     st,
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	code := http.StatusOK
	switch {
	case st.ScanError != "":
		resp.Status = statusDegraded
		code = http.StatusServiceUnavailable
	case !st.Ready:
		resp.Status = statusStarting
		code = http.StatusServiceUnavailable
	default:
		resp.Status = statusHealthy
	}

	s.writeJSON(w, code, resp)
}

func (s *Server) liveness(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) readiness(w http.ResponseWriter, _ *http.Request) {
	if s.status.Ready() {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

// writeJSON encodes v with sonic. Encoding errors are logged since the
// status line may already be committed.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.log.Error("failed to encode JSON response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		s.log.Debug("failed to write response: %v", err)
	}
}
