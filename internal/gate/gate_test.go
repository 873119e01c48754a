package gate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	xerrors "ChainGate/internal/errors"
)

type captureSink struct {
	mu     sync.Mutex
	events []DecisionEvent
	err    error
}

func (s *captureSink) Publish(ctx context.Context, event DecisionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) last(t *testing.T) DecisionEvent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		t.Fatal("no decision event recorded")
	}
	return s.events[len(s.events)-1]
}

func verdictServer(t *testing.T, verdict Verdict, reason string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"validationId":  "val_e2e",
			"result":        string(verdict),
			"reason":        reason,
			"evidenceUri":   "https://evidence.chaingate.dev/val_e2e",
			"safe":          verdict == VerdictPass,
			"authenticated": true,
			"tier":          "pro",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGate(t *testing.T, srv *httptest.Server, autoBlock string, sinks ...Sink) *Gate {
	t.Helper()
	cfg, err := ResolveConfig(Settings{APIKey: "cg_test", APIURL: srv.URL, AutoBlock: autoBlock})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	opts := []Option{WithHTTPClient(srv.Client())}
	for _, sink := range sinks {
		opts = append(opts, WithSink(sink))
	}
	return New(cfg, opts...)
}

func TestGateApprovesPassingTransaction(t *testing.T) {
	sink := &captureSink{}
	g := newTestGate(t, verdictServer(t, VerdictPass, "No risk indicators found"), "", sink)

	decision, text := g.ValidateAndExplain(context.Background(), Transaction{
		From: testFrom, To: testTo, Data: "0xa9059cbb", Value: "1000000000000000000",
	})
	if !decision.Allowed {
		t.Fatalf("expected approval, got %+v", decision)
	}
	if !strings.HasPrefix(text, "Approved: No risk indicators found") {
		t.Fatalf("unexpected text: %q", text)
	}

	event := sink.last(t)
	if !event.Allowed || event.Verdict != VerdictPass || event.ValidationID != "val_e2e" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.ID == "" {
		t.Fatal("event must carry a decision id")
	}
}

func TestGateBlocksFailingTransaction(t *testing.T) {
	sink := &captureSink{}
	g := newTestGate(t, verdictServer(t, VerdictFail, "Recipient is a known drainer contract"), "", sink)

	decision, text := g.ValidateAndExplain(context.Background(), Transaction{From: testFrom, To: testTo, Data: "0x"})
	if decision.Allowed {
		t.Fatal("expected block")
	}
	if !strings.HasPrefix(text, "Blocked: Recipient is a known drainer contract") {
		t.Fatalf("unexpected text: %q", text)
	}
	if event := sink.last(t); event.Allowed || event.Verdict != VerdictFail {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestGateAllowsFailWhenAutoBlockDisabled(t *testing.T) {
	g := newTestGate(t, verdictServer(t, VerdictFail, "High risk"), "false")

	decision, text := g.ValidateAndExplain(context.Background(), Transaction{From: testFrom, To: testTo, Data: "0x"})
	if !decision.Allowed {
		t.Fatal("expected approval with auto-block disabled")
	}
	if !strings.Contains(text, "auto-block disabled") {
		t.Fatalf("override must be called out: %q", text)
	}
}

func TestGateDeniesOnBuildErrorWithoutNetworkCall(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(srv.Close)
	sink := &captureSink{}
	g := newTestGate(t, srv, "false", sink)

	decision, text := g.ValidateAndExplain(context.Background(), Transaction{From: testFrom, To: testTo})
	if decision.Allowed {
		t.Fatal("incomplete transaction must be denied even with auto-block disabled")
	}
	if calls != 0 {
		t.Fatalf("build failure must not reach the service, got %d calls", calls)
	}
	want := "Validation error: missing transaction details: from, to and data are all required. Transaction blocked."
	if text != want {
		t.Fatalf("unexpected text: %q", text)
	}
	if event := sink.last(t); event.ErrorCode != string(CodeBuildIncompleteTransaction) {
		t.Fatalf("unexpected event error code: %q", event.ErrorCode)
	}
}

func TestGateDeniesOnServiceOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg, err := ResolveConfig(Settings{APIKey: "cg_test", APIURL: srv.URL, AutoBlock: "false"})
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	srv.Close()

	g := New(cfg)
	decision := g.ValidateTransaction(context.Background(), Transaction{From: testFrom, To: testTo, Data: "0x"})
	if decision.Allowed {
		t.Fatal("an unreachable service must deny regardless of auto-block")
	}
	if got := xerrors.CodeOf(decision.Err); got != CodeClientTransport {
		t.Fatalf("expected %s, got %s", CodeClientTransport, got)
	}
}

func TestGateSinkFailureDoesNotChangeDecision(t *testing.T) {
	failing := &captureSink{err: errors.New("sink down")}
	g := newTestGate(t, verdictServer(t, VerdictPass, "ok"), "", failing)

	decision := g.ValidateTransaction(context.Background(), Transaction{From: testFrom, To: testTo, Data: "0x"})
	if !decision.Allowed {
		t.Fatalf("sink failure must not affect the decision: %+v", decision)
	}
}
