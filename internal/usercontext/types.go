package usercontext

import (
	"github.com/google/uuid"

	"github.com/yungbote/cognify-backend/internal/types"
)

// Profile is the slice of the user row that prompt building cares about.
type Profile struct {
	SkillLevel    string   `json:"skill_level"`
	FocusAreas    []string `json:"focus_areas"`
	LearningGoals []string `json:"learning_goals"`
}

type LearningJourney struct {
	CompletedChallenges int                 `json:"completed_challenges"`
	ChallengeHistory    []types.Challenge   `json:"challenge_history"`
	EvaluationHistory   []types.Evaluation  `json:"evaluation_history"`
	// SkillLevels is the integer average score per category across the
	// evaluation window.
	SkillLevels map[string]int `json:"skill_levels"`
}

// UserContext is the denormalized per-request view handed to prompt builders.
// Built fresh on every request; sub-fetch failures degrade to empty
// sub-objects instead of aborting the aggregation.
type UserContext struct {
	UserID          uuid.UUID       `json:"user_id"`
	User            *types.User     `json:"-"`
	Profile         Profile         `json:"profile"`
	LearningJourney LearningJourney `json:"learning_journey"`

	// Strengths are categories scoring >= 80 in at least two evaluations of
	// the window; AreasForGrowth are categories scoring <= 60 in at least
	// two. Frequency-thresholded so one outlier evaluation cannot flip a
	// persistent trait.
	Strengths      []string `json:"strengths"`
	AreasForGrowth []string `json:"areas_for_growth"`
}
