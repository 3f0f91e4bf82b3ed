package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Challenge struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`

	Title         string `gorm:"not null" json:"title"`
	ChallengeType string `gorm:"column:challenge_type;not null;index" json:"challenge_type"` // scenario|analysis|debate|critique|creative
	FormatType    string `gorm:"column:format_type" json:"format_type"`
	FocusArea     string `gorm:"column:focus_area;index" json:"focus_area"`
	Difficulty    string `gorm:"column:difficulty;not null;default:'intermediate'" json:"difficulty"`

	// Content holds description, scenario text and question list.
	Content datatypes.JSONMap `gorm:"column:content;type:jsonb" json:"content,omitempty"`

	Status      string     `gorm:"not null;default:'open'" json:"status"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Challenge) TableName() string { return "challenges" }

// Description returns the textual challenge body assembled from Content.
func (c *Challenge) Description() string {
	if c == nil || c.Content == nil {
		return ""
	}
	var parts []string
	if v, ok := c.Content["description"].(string); ok && strings.TrimSpace(v) != "" {
		parts = append(parts, strings.TrimSpace(v))
	}
	if v, ok := c.Content["scenario"].(string); ok && strings.TrimSpace(v) != "" {
		parts = append(parts, strings.TrimSpace(v))
	}
	return strings.Join(parts, "\n\n")
}

// Questions returns the question list from Content, if any.
func (c *Challenge) Questions() []string {
	if c == nil || c.Content == nil {
		return nil
	}
	raw, ok := c.Content["questions"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, q := range raw {
		if s, ok := q.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
