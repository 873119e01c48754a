package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ChainGate/internal/audit"
	xerrors "ChainGate/internal/errors"
	"ChainGate/internal/gate"
	"ChainGate/internal/observability/metrics"
)

// Server exposes the gate over HTTP.
type Server struct {
	addr  string
	gate  *gate.Gate
	store audit.Store
}

// NewServer constructs the API server. The store may be nil when no audit
// backend is configured; the decisions endpoints then return 404.
func NewServer(addr string, g *gate.Gate, store audit.Store) *Server {
	return &Server{addr: addr, gate: g, store: store}
}

// Handler builds the route table. Exposed separately so tests can drive the
// server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/validate", s.handleValidate)
	mux.HandleFunc("/api/v1/agents/", s.handleAgentInfo)
	mux.HandleFunc("/api/v1/evidence/", s.handleEvidence)
	mux.HandleFunc("/api/v1/decisions", s.handleDecisions)
	mux.HandleFunc("/api/v1/decisions/stats", s.handleDecisionStats)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// Start serves HTTP until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// validateResponse is the host-facing decision payload.
type validateResponse struct {
	Allowed   bool         `json:"allowed"`
	Message   string       `json:"message"`
	Result    *gate.Result `json:"result,omitempty"`
	ErrorCode string       `json:"errorCode,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "only POST is supported", http.StatusMethodNotAllowed)
		metrics.ObserveHTTPRequest("validate", http.StatusMethodNotAllowed)
		return
	}

	var tx gate.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		metrics.ObserveHTTPRequest("validate", http.StatusBadRequest)
		return
	}

	started := time.Now()
	decision, message := s.gate.ValidateAndExplain(r.Context(), tx)
	metrics.ObserveDecision(decisionLabel(decision), decision.Allowed, time.Since(started))

	resp := validateResponse{
		Allowed: decision.Allowed,
		Message: message,
		Result:  decision.Result,
	}
	if decision.Err != nil {
		resp.ErrorCode = string(xerrors.CodeOf(decision.Err))
	}
	writeJSON(w, http.StatusOK, resp)
	metrics.ObserveHTTPRequest("validate", http.StatusOK)
}

func decisionLabel(d gate.Decision) string {
	if d.Result != nil {
		return string(d.Result.Verdict)
	}
	return string(xerrors.CodeOf(d.Err))
}

func (s *Server) handleAgentInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	wallet := strings.TrimPrefix(r.URL.Path, "/api/v1/agents/")
	if wallet == "" || strings.Contains(wallet, "/") {
		http.Error(w, "wallet address is required", http.StatusBadRequest)
		metrics.ObserveHTTPRequest("agents", http.StatusBadRequest)
		return
	}
	raw, err := s.gate.Client().AgentInfo(r.Context(), wallet)
	if err != nil {
		s.writeUpstreamError(w, "agents", err)
		return
	}
	writeRaw(w, raw)
	metrics.ObserveHTTPRequest("agents", http.StatusOK)
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	validationID := strings.TrimPrefix(r.URL.Path, "/api/v1/evidence/")
	if validationID == "" || strings.Contains(validationID, "/") {
		http.Error(w, "validation id is required", http.StatusBadRequest)
		metrics.ObserveHTTPRequest("evidence", http.StatusBadRequest)
		return
	}
	raw, err := s.gate.Client().Evidence(r.Context(), validationID)
	if err != nil {
		s.writeUpstreamError(w, "evidence", err)
		return
	}
	writeRaw(w, raw)
	metrics.ObserveHTTPRequest("evidence", http.StatusOK)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "audit store is not configured", http.StatusNotFound)
		return
	}

	opts := audit.ListOptions{Verdict: r.URL.Query().Get("verdict")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			opts.Offset = parsed
		}
	}
	if raw := r.URL.Query().Get("allowed"); raw == "true" || raw == "false" {
		allowed := raw == "true"
		opts.Allowed = &allowed
	}

	records, err := s.store.List(r.Context(), opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		metrics.ObserveHTTPRequest("decisions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
	metrics.ObserveHTTPRequest("decisions", http.StatusOK)
}

func (s *Server) handleDecisionStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		http.Error(w, "audit store is not configured", http.StatusNotFound)
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// writeUpstreamError maps client errors onto gateway statuses: unreachable
// upstream is 502, everything else surfaces the upstream complaint.
func (s *Server) writeUpstreamError(w http.ResponseWriter, handler string, err error) {
	status := http.StatusBadGateway
	if xerrors.CodeOf(err) == xerrors.CodeInvalidArgument {
		status = http.StatusBadRequest
	}
	http.Error(w, xerrors.MessageOf(err), status)
	metrics.ObserveHTTPRequest(handler, status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRaw(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}
