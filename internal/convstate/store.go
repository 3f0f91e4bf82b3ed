// Package convstate owns per-(owner, purpose) conversation continuity with
// the AI backend. Each pair maps to at most one logical state; concurrent
// FindOrCreate calls for the same pair observe the same state.
package convstate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cognify-backend/internal/types"
)

type Store interface {
	// FindOrCreate returns the state for (ownerID, purpose), creating it on
	// first use. Idempotent under concurrency.
	FindOrCreate(ctx context.Context, ownerID uuid.UUID, purpose string, metadata map[string]any) (*types.ConversationState, error)

	// GetLastResponseID returns the stored continuation token, "" when unset.
	GetLastResponseID(ctx context.Context, stateID uuid.UUID) (string, error)

	// UpdateLastResponseID advances the continuation token. An empty
	// responseID is a no-op signaling an upstream failure, not an error.
	// issuedAt orders updates: tokens issued at or before the currently
	// stored token are stale and are dropped.
	UpdateLastResponseID(ctx context.Context, stateID uuid.UUID, responseID string, issuedAt time.Time) error
}
