package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GrowthMetrics compares an evaluation against the user's immediately
// preceding one. Categories absent from either side are omitted from
// CategoryScoreChanges rather than zero-filled.
type GrowthMetrics struct {
	ScoreChange          float64            `json:"score_change"`
	CategoryScoreChanges map[string]float64 `json:"category_score_changes"`
	ImprovementRate      float64            `json:"improvement_rate"`
	ConsistentStrengths  []string           `json:"consistent_strengths"`
	PersistentWeaknesses []string           `json:"persistent_weaknesses"`
}

type StrengthAnalysis struct {
	Strength string `json:"strength"`
	Analysis string `json:"analysis"`
	Impact   string `json:"impact,omitempty"`
}

type ImprovementPlan struct {
	Area         string   `json:"area"`
	Plan         string   `json:"plan"`
	ExampleSteps []string `json:"example_steps,omitempty"`
}

// ChallengeContext is the denormalized snapshot of the challenge an
// evaluation was produced for.
type ChallengeContext struct {
	ChallengeID   uuid.UUID `json:"challenge_id"`
	Title         string    `json:"title"`
	ChallengeType string    `json:"challenge_type"`
	FocusArea     string    `json:"focus_area"`
}

type Evaluation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_evaluations_user_created,priority:1" json:"user_id"`
	ChallengeID uuid.UUID `gorm:"type:uuid;not null;index" json:"challenge_id"`

	Score           int                                      `gorm:"not null;default:0" json:"score"`
	CategoryScores  datatypes.JSONType[map[string]float64]   `gorm:"column:category_scores;type:jsonb" json:"category_scores"`
	OverallFeedback string                                   `gorm:"column:overall_feedback;type:text" json:"overall_feedback"`
	Strengths       datatypes.JSONSlice[string]              `gorm:"column:strengths;type:jsonb" json:"strengths,omitempty"`
	StrengthAnalysis datatypes.JSONType[[]StrengthAnalysis]  `gorm:"column:strength_analysis;type:jsonb" json:"strength_analysis,omitempty"`
	AreasForImprovement datatypes.JSONSlice[string]          `gorm:"column:areas_for_improvement;type:jsonb" json:"areas_for_improvement,omitempty"`
	ImprovementPlans datatypes.JSONType[[]ImprovementPlan]   `gorm:"column:improvement_plans;type:jsonb" json:"improvement_plans,omitempty"`

	GrowthMetrics    datatypes.JSONType[GrowthMetrics]    `gorm:"column:growth_metrics;type:jsonb" json:"growth_metrics"`
	ChallengeContext datatypes.JSONType[ChallengeContext] `gorm:"column:challenge_context;type:jsonb" json:"challenge_context"`

	// ResponseID is the AI backend continuation token this evaluation was
	// produced from; ThreadID is the conversation state id it advanced.
	ResponseID string `gorm:"column:response_id" json:"response_id,omitempty"`
	ThreadID   string `gorm:"column:thread_id;index" json:"thread_id,omitempty"`

	Metadata datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index:idx_evaluations_user_created,priority:2,sort:desc" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Evaluation) TableName() string { return "evaluations" }

// CategoryScoreMap returns the category scores, never nil.
func (e *Evaluation) CategoryScoreMap() map[string]float64 {
	if e == nil {
		return map[string]float64{}
	}
	m := e.CategoryScores.Data()
	if m == nil {
		return map[string]float64{}
	}
	return m
}
