package gate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	xerrors "ChainGate/internal/errors"
	"ChainGate/pkg/logger"

	"github.com/google/uuid"
)

// DecisionEvent is the auditable summary of one validation call, fanned out
// to the configured sinks after the decision is made.
type DecisionEvent struct {
	ID           string    `json:"id"`
	ValidationID string    `json:"validation_id,omitempty"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	ChainID      int64     `json:"chain_id"`
	Verdict      Verdict   `json:"verdict,omitempty"`
	Allowed      bool      `json:"allowed"`
	ErrorCode    string    `json:"error_code,omitempty"`
	Message      string    `json:"message"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Sink receives decision events. Sink failures are logged and never alter
// the decision itself.
type Sink interface {
	Publish(ctx context.Context, event DecisionEvent) error
}

// Gate wires the request builder, validation client and verdict evaluator
// into the single operation the host framework calls per transaction intent.
type Gate struct {
	cfg    *Config
	client *Client
	sinks  []Sink
	log    *slog.Logger
}

// Option adjusts how a Gate is constructed.
type Option func(*Gate)

// WithHTTPClient overrides the transport used for validation calls.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(g *Gate) {
		if httpClient != nil {
			g.client = NewClient(g.cfg, httpClient)
		}
	}
}

// WithSink attaches a decision sink, such as the audit store or event queue.
func WithSink(sink Sink) Option {
	return func(g *Gate) {
		if sink != nil {
			g.sinks = append(g.sinks, sink)
		}
	}
}

// New constructs a gate from a resolved configuration.
func New(cfg *Config, opts ...Option) *Gate {
	g := &Gate{
		cfg:    cfg,
		client: NewClient(cfg, nil),
		log:    logger.Named("gate"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the resolved configuration the gate runs with.
func (g *Gate) Config() *Config { return g.cfg }

// Client exposes the underlying validation client for the read-only
// passthrough lookups (agent info, evidence).
func (g *Gate) Client() *Client { return g.client }

// ValidateTransaction runs one transaction intent through the guardrail and
// returns the final decision. It never returns an error: every failure path
// is folded into a denied decision, so a transaction can never end up
// unresolved or silently approved. At most one network attempt is made.
func (g *Gate) ValidateTransaction(ctx context.Context, tx Transaction) Decision {
	var decision Decision
	req, err := BuildRequest(g.cfg, tx)
	if err != nil {
		decision = Evaluate(g.cfg.AutoBlock, nil, err)
	} else {
		result, err := g.client.Validate(ctx, req)
		decision = Evaluate(g.cfg.AutoBlock, result, err)
	}
	g.record(ctx, tx, decision)
	return decision
}

// ValidateAndExplain is the inbound contract exposed to the host framework:
// one decision plus the display text for the end user.
func (g *Gate) ValidateAndExplain(ctx context.Context, tx Transaction) (Decision, string) {
	decision := g.ValidateTransaction(ctx, tx)
	return decision, FormatDecision(decision)
}

func (g *Gate) record(ctx context.Context, tx Transaction, decision Decision) {
	event := DecisionEvent{
		ID:         uuid.NewString(),
		From:       tx.From,
		To:         tx.To,
		ChainID:    g.cfg.ChainID,
		Allowed:    decision.Allowed,
		Message:    FormatDecision(decision),
		OccurredAt: time.Now().UTC(),
	}
	if tx.ChainID > 0 {
		event.ChainID = tx.ChainID
	}
	if decision.Result != nil {
		event.ValidationID = decision.Result.ValidationID
		event.Verdict = decision.Result.Verdict
	}
	if decision.Err != nil {
		event.ErrorCode = string(xerrors.CodeOf(decision.Err))
	}

	logger.Audit().Info("transaction validated",
		slog.String("decision_id", event.ID),
		slog.String("validation_id", event.ValidationID),
		slog.String("from", event.From),
		slog.String("to", event.To),
		slog.Int64("chain_id", event.ChainID),
		slog.String("verdict", string(event.Verdict)),
		slog.Bool("allowed", event.Allowed),
		slog.String("error_code", event.ErrorCode),
	)

	for _, sink := range g.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			g.log.Error("decision sink failed",
				slog.String("decision_id", event.ID),
				slog.Any("error", err),
			)
		}
	}
}
