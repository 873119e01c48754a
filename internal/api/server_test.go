package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ChainGate/internal/audit"
	"ChainGate/internal/gate"
)

const (
	testFrom = "0x1111111111111111111111111111111111111111"
	testTo   = "0x2222222222222222222222222222222222222222"
)

// newTestServer wires a real gate against a stub validation service and
// returns the API handler plus the backing audit store.
func newTestServer(t *testing.T, upstream http.Handler) (http.Handler, *audit.MemoryStore) {
	t.Helper()
	validation := httptest.NewServer(upstream)
	t.Cleanup(validation.Close)

	cfg, err := gate.ResolveConfig(gate.Settings{APIKey: "cg_test", APIURL: validation.URL})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	store := audit.NewMemoryStore()
	g := gate.New(cfg,
		gate.WithHTTPClient(validation.Client()),
		gate.WithSink(audit.NewRecorder(store)),
	)
	return NewServer(":0", g, store).Handler(), store
}

func passingUpstream() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/validate":
			json.NewEncoder(w).Encode(map[string]any{
				"validationId":  "val_api",
				"result":        "PASS",
				"reason":        "No risk indicators found",
				"evidenceUri":   "https://evidence.chaingate.dev/val_api",
				"safe":          true,
				"authenticated": true,
				"tier":          "pro",
			})
		case strings.HasPrefix(r.URL.Path, "/agents/"):
			json.NewEncoder(w).Encode(map[string]any{"trustScore": 87})
		case strings.HasPrefix(r.URL.Path, "/evidence/"):
			json.NewEncoder(w).Encode(map[string]any{"validationId": "val_api"})
		default:
			http.NotFound(w, r)
		}
	})
}

func TestHandleValidate(t *testing.T) {
	handler, store := newTestServer(t, passingUpstream())

	body := `{"from":"` + testFrom + `","to":"` + testTo + `","data":"0xa9059cbb"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp struct {
		Allowed   bool         `json:"allowed"`
		Message   string       `json:"message"`
		Result    *gate.Result `json:"result"`
		ErrorCode string       `json:"errorCode"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Allowed || resp.Result == nil || resp.Result.Verdict != gate.VerdictPass {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(resp.Message, "Approved: ") {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	records, err := store.List(context.Background(), audit.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ValidationID != "val_api" {
		t.Fatalf("decision was not audited: %+v", records)
	}
}

func TestHandleValidateDeniedStaysHTTP200(t *testing.T) {
	// A blocked transaction is a successful validation, not an HTTP failure.
	handler, _ := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"error": "Validation quota exceeded. Upgrade your plan."})
	}))

	body := `{"from":"` + testFrom + `","to":"` + testTo + `","data":"0x"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var resp struct {
		Allowed   bool   `json:"allowed"`
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Allowed {
		t.Fatal("expected denial")
	}
	if resp.ErrorCode != string(gate.CodeClientUpstream) {
		t.Fatalf("unexpected error code: %q", resp.ErrorCode)
	}
	if !strings.Contains(resp.Message, "Validation quota exceeded") {
		t.Fatalf("upstream message lost: %q", resp.Message)
	}
}

func TestHandleValidateRejectsBadInput(t *testing.T) {
	handler, _ := newTestServer(t, passingUpstream())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validate", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/validate", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlePassthroughs(t *testing.T) {
	handler, _ := newTestServer(t, passingUpstream())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+testFrom, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "trustScore") {
		t.Fatalf("unexpected agents response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/evidence/val_api", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "val_api") {
		t.Fatalf("unexpected evidence response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents/", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing wallet, got %d", rec.Code)
	}
}

func TestHandlePassthroughUpstreamDown(t *testing.T) {
	validation := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg, err := gate.ResolveConfig(gate.Settings{APIKey: "cg_test", APIURL: validation.URL})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	validation.Close()
	handler := NewServer(":0", gate.New(cfg), nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+testFrom, nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestHandleDecisions(t *testing.T) {
	handler, store := newTestServer(t, passingUpstream())

	for i, allowed := range []bool{true, false, true} {
		record := &audit.Record{
			ID:        "dec_" + string(rune('a'+i)),
			Verdict:   "PASS",
			Allowed:   allowed,
			Message:   "ok",
			CreatedAt: int64(1000 + i),
		}
		if !allowed {
			record.Verdict = "FAIL"
		}
		if err := store.Save(context.Background(), record); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/decisions?allowed=false", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var records []*audit.Record
	if err := json.NewDecoder(rec.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Verdict != "FAIL" {
		t.Fatalf("unexpected records: %+v", records)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/decisions/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected stats status: %d", rec.Code)
	}
	var stats audit.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 3 || stats.Blocked != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestHandleDecisionsWithoutStore(t *testing.T) {
	validation := httptest.NewServer(passingUpstream())
	t.Cleanup(validation.Close)
	cfg, err := gate.ResolveConfig(gate.Settings{APIKey: "cg_test", APIURL: validation.URL})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	handler := NewServer(":0", gate.New(cfg), nil).Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/decisions", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a store, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestServer(t, passingUpstream())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}
