package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName   string    `gorm:"column:full_name" json:"full_name"`
	SkillLevel string    `gorm:"column:skill_level;not null;default:'beginner'" json:"skill_level"` // beginner|intermediate|advanced|expert

	FocusAreas    datatypes.JSONSlice[string] `gorm:"column:focus_areas;type:jsonb" json:"focus_areas,omitempty"`
	LearningGoals datatypes.JSONSlice[string] `gorm:"column:learning_goals;type:jsonb" json:"learning_goals,omitempty"`

	// Preferences holds feedback_style, communication_style, learning_style.
	Preferences datatypes.JSONMap `gorm:"column:preferences;type:jsonb" json:"preferences,omitempty"`
	// PersonalityTraits maps trait name -> 0..1 strength.
	PersonalityTraits datatypes.JSONMap `gorm:"column:personality_traits;type:jsonb" json:"personality_traits,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

// Preference returns a string preference by key, or def when unset.
func (u *User) Preference(key, def string) string {
	if u == nil || u.Preferences == nil {
		return def
	}
	if v, ok := u.Preferences[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Trait returns a personality trait strength in 0..1, or 0 when unset.
func (u *User) Trait(name string) float64 {
	if u == nil || u.PersonalityTraits == nil {
		return 0
	}
	switch v := u.PersonalityTraits[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
