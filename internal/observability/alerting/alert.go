// Package alerting forwards blocked and errored validation decisions to
// operator-facing channels. Notification failures are logged and swallowed;
// an unreachable webhook must never stall the event consumer.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "ChainGate/internal/errors"
	"ChainGate/internal/gate"
	"ChainGate/pkg/logger"
)

// Event describes one decision worth notifying about.
type Event struct {
	DecisionID   string
	ValidationID string
	From         string
	To           string
	ChainID      int64
	Verdict      string
	Allowed      bool
	ErrorCode    string
	Message      string
	Severity     xerrors.Severity
	OccurredAt   time.Time
}

// FromDecision converts a gate decision event into an alert event. Errored
// decisions are critical, blocked verdicts are warnings.
func FromDecision(event gate.DecisionEvent) Event {
	severity := xerrors.SeverityWarning
	if event.ErrorCode != "" {
		severity = xerrors.AttributesOf(xerrors.Code(event.ErrorCode)).Severity
	}
	return Event{
		DecisionID:   event.ID,
		ValidationID: event.ValidationID,
		From:         event.From,
		To:           event.To,
		ChainID:      event.ChainID,
		Verdict:      string(event.Verdict),
		Allowed:      event.Allowed,
		ErrorCode:    event.ErrorCode,
		Message:      event.Message,
		Severity:     severity,
		OccurredAt:   event.OccurredAt,
	}
}

// Notifier delivers an event to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, event Event) error
}

// Dispatcher broadcasts events to the configured notifiers.
type Dispatcher interface {
	Notify(ctx context.Context, event Event) error
}

// FanoutDispatcher delivers each event to every registered notifier.
type FanoutDispatcher struct {
	notifiers []Notifier
}

// NewFanout builds a dispatcher over the given notifiers.
func NewFanout(notifiers ...Notifier) *FanoutDispatcher {
	set := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			set = append(set, n)
		}
	}
	return &FanoutDispatcher{notifiers: set}
}

// Notify implements Dispatcher.
func (d *FanoutDispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			logger.L().Warn("notifier failed",
				slog.String("notifier", notifier.Name()),
				slog.String("decision_id", event.DecisionID),
				slog.Any("error", err),
			)
			errs = append(errs, fmt.Errorf("notifier %s: %w", notifier.Name(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// HandleDecision returns an events handler that forwards every decision that
// was blocked or errored to the dispatcher. Allowed PASS decisions are noise
// and skipped.
func HandleDecision(dispatcher Dispatcher) func(ctx context.Context, event gate.DecisionEvent) error {
	return func(ctx context.Context, event gate.DecisionEvent) error {
		if event.Allowed && event.ErrorCode == "" && event.Verdict == gate.VerdictPass {
			return nil
		}
		return dispatcher.Notify(ctx, FromDecision(event))
	}
}
