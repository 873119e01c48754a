// Package events fans validation decisions out to downstream consumers, such
// as the alert dispatcher, over a pluggable queue. Delivery is best effort and
// strictly after the fact: queue failures never change a decision.
package events

import (
	"context"
	"encoding/json"

	xerrors "ChainGate/internal/errors"
	"ChainGate/internal/gate"
)

// Handler processes one decision event taken off the queue.
type Handler func(ctx context.Context, event gate.DecisionEvent) error

// Publisher delivers decision events to the queue. It satisfies gate.Sink so
// a queue can be attached to the gate directly.
type Publisher interface {
	Publish(ctx context.Context, event gate.DecisionEvent) error
	Close() error
}

// Consumer drains decision events from the queue.
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue is both ends of the pipe.
type Queue interface {
	Publisher
	Consumer
}

func encodeEvent(event gate.DecisionEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeQueueFailure, err, "encode decision event")
	}
	return payload, nil
}

func decodeEvent(payload []byte) (gate.DecisionEvent, error) {
	var event gate.DecisionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return gate.DecisionEvent{}, xerrors.Wrap(xerrors.CodeQueueFailure, err, "decode decision event")
	}
	return event, nil
}
