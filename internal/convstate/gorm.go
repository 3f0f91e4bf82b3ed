package convstate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/types"
)

// GormStore persists conversation states in Postgres. Uniqueness is enforced
// by the (owner_id, purpose) unique index; FindOrCreate relies on an
// insert-or-nothing upsert plus re-read so concurrent creators converge on
// one row.
type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, baseLog *logger.Logger) *GormStore {
	return &GormStore{
		db:  db,
		log: baseLog.With("service", "ConversationStateGormStore"),
	}
}

func (s *GormStore) FindOrCreate(ctx context.Context, ownerID uuid.UUID, purpose string, metadata map[string]any) (*types.ConversationState, error) {
	purpose = strings.TrimSpace(purpose)
	if ownerID == uuid.Nil || purpose == "" {
		return nil, apperr.New(apperr.KindValidation, "owner id and purpose required")
	}

	now := time.Now().UTC()
	row := &types.ConversationState{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Purpose:   purpose,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "purpose"}},
			DoNothing: true,
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the loser of a concurrent insert still gets the winning row.
	var out types.ConversationState
	err = s.db.WithContext(ctx).
		Where("owner_id = ? AND purpose = ?", ownerID, purpose).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, apperr.New(apperr.KindNotFound, "conversation state vanished after upsert").
			WithField("owner_id", ownerID.String()).
			WithField("purpose", purpose)
	}
	return &out, nil
}

func (s *GormStore) GetLastResponseID(ctx context.Context, stateID uuid.UUID) (string, error) {
	if stateID == uuid.Nil {
		return "", apperr.New(apperr.KindValidation, "state id required")
	}
	var row types.ConversationState
	err := s.db.WithContext(ctx).
		Where("id = ?", stateID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return "", err
	}
	if row.ID == uuid.Nil {
		return "", apperr.New(apperr.KindNotFound, "conversation state not found").WithField("state_id", stateID.String())
	}
	return row.LastResponseID, nil
}

func (s *GormStore) UpdateLastResponseID(ctx context.Context, stateID uuid.UUID, responseID string, issuedAt time.Time) error {
	responseID = strings.TrimSpace(responseID)
	if responseID == "" {
		s.log.Warn("skipping conversation state update: empty response id", "state_id", stateID.String())
		return nil
	}
	if stateID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "state id required")
	}

	// Conditional update: stale tokens (issued at or before the stored one)
	// must not clobber newer ones.
	res := s.db.WithContext(ctx).
		Model(&types.ConversationState{}).
		Where("id = ? AND (last_issued_at IS NULL OR last_issued_at < ?)", stateID, issuedAt).
		Updates(map[string]any{
			"last_response_id": responseID,
			"last_issued_at":   issuedAt,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Warn("dropped stale or unmatched conversation state update",
			"state_id", stateID.String(),
			"issued_at", issuedAt,
		)
	}
	return nil
}
