package audit

import (
	"context"

	"ChainGate/internal/gate"
)

// Recorder adapts a Store to the gate's decision sink interface.
type Recorder struct {
	store Store
}

// NewRecorder wraps a store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Publish stores one decision event.
func (r *Recorder) Publish(ctx context.Context, event gate.DecisionEvent) error {
	return r.store.Save(ctx, &Record{
		ID:           event.ID,
		ValidationID: event.ValidationID,
		From:         event.From,
		To:           event.To,
		ChainID:      event.ChainID,
		Verdict:      string(event.Verdict),
		Allowed:      event.Allowed,
		ErrorCode:    event.ErrorCode,
		Message:      event.Message,
		CreatedAt:    event.OccurredAt.Unix(),
	})
}

var _ gate.Sink = (*Recorder)(nil)
