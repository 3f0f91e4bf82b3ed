package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationState tracks multi-turn continuity with the AI backend for one
// (owner, purpose) pair. There is at most one logical state per pair; it is
// created on first use and only ever advanced, never deleted.
type ConversationState struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index:idx_conversation_state_key,unique,priority:1" json:"owner_id"`
	Purpose string    `gorm:"not null;index:idx_conversation_state_key,unique,priority:2" json:"purpose"`

	// LastResponseID is the opaque continuation token from the AI backend.
	// Empty until the first response lands.
	LastResponseID string `gorm:"column:last_response_id" json:"last_response_id,omitempty"`
	// LastIssuedAt orders updates: an update whose response was issued at or
	// before this instant is stale and must not overwrite LastResponseID.
	LastIssuedAt *time.Time `gorm:"column:last_issued_at" json:"last_issued_at,omitempty"`

	Metadata datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConversationState) TableName() string { return "conversation_states" }
