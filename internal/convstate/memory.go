package convstate

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/types"
)

// MemoryStore is the in-process Store. Used in tests and when no database is
// configured. A single mutex is enough at this scale; states are never
// deleted so read paths stay simple.
type MemoryStore struct {
	log *logger.Logger

	mu      sync.Mutex
	byKey   map[string]*types.ConversationState
	byState map[uuid.UUID]*types.ConversationState
}

func NewMemoryStore(baseLog *logger.Logger) *MemoryStore {
	return &MemoryStore{
		log:     baseLog.With("service", "ConversationStateMemoryStore"),
		byKey:   map[string]*types.ConversationState{},
		byState: map[uuid.UUID]*types.ConversationState{},
	}
}

func stateKey(ownerID uuid.UUID, purpose string) string {
	return ownerID.String() + "|" + strings.TrimSpace(purpose)
}

func (s *MemoryStore) FindOrCreate(ctx context.Context, ownerID uuid.UUID, purpose string, metadata map[string]any) (*types.ConversationState, error) {
	purpose = strings.TrimSpace(purpose)
	if ownerID == uuid.Nil || purpose == "" {
		return nil, apperr.New(apperr.KindValidation, "owner id and purpose required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey(ownerID, purpose)
	if st, ok := s.byKey[key]; ok {
		return cloneState(st), nil
	}

	st := &types.ConversationState{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Purpose:   purpose,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.byKey[key] = st
	s.byState[st.ID] = st
	return cloneState(st), nil
}

func (s *MemoryStore) GetLastResponseID(ctx context.Context, stateID uuid.UUID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byState[stateID]
	if !ok {
		return "", apperr.New(apperr.KindNotFound, "conversation state not found").WithField("state_id", stateID.String())
	}
	return st.LastResponseID, nil
}

func (s *MemoryStore) UpdateLastResponseID(ctx context.Context, stateID uuid.UUID, responseID string, issuedAt time.Time) error {
	responseID = strings.TrimSpace(responseID)
	if responseID == "" {
		// Upstream had no response id to record; continuity just does not
		// advance for this turn.
		s.log.Warn("skipping conversation state update: empty response id", "state_id", stateID.String())
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byState[stateID]
	if !ok {
		return apperr.New(apperr.KindNotFound, "conversation state not found").WithField("state_id", stateID.String())
	}
	if st.LastIssuedAt != nil && !issuedAt.After(*st.LastIssuedAt) {
		s.log.Warn("dropping stale conversation state update",
			"state_id", stateID.String(),
			"issued_at", issuedAt,
			"stored_issued_at", *st.LastIssuedAt,
		)
		return nil
	}
	ts := issuedAt
	st.LastResponseID = responseID
	st.LastIssuedAt = &ts
	st.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneState(st *types.ConversationState) *types.ConversationState {
	cp := *st
	if st.LastIssuedAt != nil {
		ts := *st.LastIssuedAt
		cp.LastIssuedAt = &ts
	}
	return &cp
}
