package prompts

import (
	"github.com/yungbote/cognify-backend/internal/types"
	"github.com/yungbote/cognify-backend/internal/usercontext"
)

// Input is a superset of all fields any builder might need. Builders validate
// the subset they require and ignore the rest.
type Input struct {
	Challenge    *types.Challenge
	UserResponse string

	User        *types.User
	UserContext *usercontext.UserContext

	// PersonalityProfile maps trait -> 0..1 strength; overrides the user row
	// when both are present.
	PersonalityProfile map[string]float64

	// EvaluationHistory is the recent window, newest first. The evaluation
	// builder emits growth-tracking instructions only when non-empty.
	EvaluationHistory []types.Evaluation
	// PreviousScores is the prior snapshot keyed by category, with "overall"
	// for the previous total score.
	PreviousScores map[string]float64

	// FocusArea for builders not anchored to a concrete challenge.
	FocusArea string

	Options BuildOptions
}

type BuildOptions struct {
	// FeedbackStyle overrides the user's stored preference
	// (encouraging|direct|detailed).
	FeedbackStyle string
	// ChallengeType override for weight selection.
	ChallengeType string
}
