package bus

import (
	"context"

	"github.com/google/uuid"
)

// Event kinds emitted while an evaluation is generated.
const (
	EventEvaluationDelta     = "evaluation.delta"
	EventEvaluationCompleted = "evaluation.completed"
	EventEvaluationFailed    = "evaluation.failed"
)

// Event is one realtime message for a user's evaluation stream.
type Event struct {
	Kind        string         `json:"kind"`
	UserID      uuid.UUID      `json:"userId"`
	ChallengeID uuid.UUID      `json:"challengeId"`
	Delta       string         `json:"delta,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// EvalBus fans evaluation progress out to interested subscribers across
// processes. A nil EvalBus everywhere means realtime delivery is disabled.
type EvalBus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
