package usercontext

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/types"
)

type fakeUserRepo struct {
	user *types.User
	err  error
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	return f.user, f.err
}

type fakeChallengeRepo struct {
	rows []types.Challenge
	err  error
}

func (f *fakeChallengeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Challenge, error) {
	return nil, f.err
}
func (f *fakeChallengeRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.Challenge, error) {
	return f.rows, f.err
}

type fakeEvaluationRepo struct {
	rows []types.Evaluation
	err  error
}

func (f *fakeEvaluationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Evaluation, error) {
	return nil, f.err
}
func (f *fakeEvaluationRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.Evaluation, error) {
	return f.rows, f.err
}
func (f *fakeEvaluationRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Evaluation, error) {
	if len(f.rows) == 0 {
		return nil, f.err
	}
	return &f.rows[0], f.err
}
func (f *fakeEvaluationRepo) Create(ctx context.Context, tx *gorm.DB, ev *types.Evaluation) error {
	return f.err
}

func evalWithScores(scores map[string]float64) types.Evaluation {
	return types.Evaluation{
		ID:             uuid.New(),
		CategoryScores: datatypes.NewJSONType(scores),
	}
}

func newService(u *fakeUserRepo, c *fakeChallengeRepo, e *fakeEvaluationRepo) Service {
	return NewService(u, c, e, logger.NewNop())
}

func TestGatherStrengthFrequencyThreshold(t *testing.T) {
	// "clarity" >= 80 in exactly 2 of 5 evaluations: qualifies.
	evals := []types.Evaluation{
		evalWithScores(map[string]float64{"clarity": 85, "reasoning": 55}),
		evalWithScores(map[string]float64{"clarity": 70, "reasoning": 58}),
		evalWithScores(map[string]float64{"clarity": 82}),
		evalWithScores(map[string]float64{"clarity": 60}),
		evalWithScores(map[string]float64{"clarity": 75}),
	}
	svc := newService(&fakeUserRepo{}, &fakeChallengeRepo{}, &fakeEvaluationRepo{rows: evals})

	uc, err := svc.Gather(context.Background(), uuid.New(), Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(uc.Strengths) != 1 || uc.Strengths[0] != "clarity" {
		t.Fatalf("strengths = %v, want [clarity]", uc.Strengths)
	}
	// "reasoning" <= 60 twice: a persistent growth area.
	if len(uc.AreasForGrowth) != 1 || uc.AreasForGrowth[0] != "reasoning" {
		t.Fatalf("areas for growth = %v, want [reasoning]", uc.AreasForGrowth)
	}
}

func TestGatherSingleSampleDoesNotQualify(t *testing.T) {
	evals := []types.Evaluation{
		evalWithScores(map[string]float64{"clarity": 90}),
		evalWithScores(map[string]float64{"clarity": 70}),
		evalWithScores(map[string]float64{"clarity": 75}),
	}
	svc := newService(&fakeUserRepo{}, &fakeChallengeRepo{}, &fakeEvaluationRepo{rows: evals})

	uc, err := svc.Gather(context.Background(), uuid.New(), Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(uc.Strengths) != 0 {
		t.Fatalf("one qualifying evaluation must not mark a strength, got %v", uc.Strengths)
	}
}

func TestGatherSkillLevelAverages(t *testing.T) {
	evals := []types.Evaluation{
		evalWithScores(map[string]float64{"clarity": 80, "evidence": 71}),
		evalWithScores(map[string]float64{"clarity": 85}),
	}
	svc := newService(&fakeUserRepo{}, &fakeChallengeRepo{}, &fakeEvaluationRepo{rows: evals})

	uc, err := svc.Gather(context.Background(), uuid.New(), Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if got := uc.LearningJourney.SkillLevels["clarity"]; got != 83 {
		t.Fatalf("clarity average = %d, want 83", got)
	}
	if got := uc.LearningJourney.SkillLevels["evidence"]; got != 71 {
		t.Fatalf("evidence average = %d, want 71", got)
	}
}

func TestGatherToleratesPartialFailures(t *testing.T) {
	boom := errors.New("db down")
	user := &types.User{
		ID:         uuid.New(),
		SkillLevel: "advanced",
		FocusAreas: []string{"AI Ethics"},
	}
	svc := newService(
		&fakeUserRepo{user: user},
		&fakeChallengeRepo{err: boom},
		&fakeEvaluationRepo{err: boom},
	)

	uc, err := svc.Gather(context.Background(), user.ID, Options{})
	if err != nil {
		t.Fatalf("partial failure must not abort aggregation: %v", err)
	}
	if uc.Profile.SkillLevel != "advanced" {
		t.Fatalf("profile should survive sibling failures, got %+v", uc.Profile)
	}
	if len(uc.LearningJourney.EvaluationHistory) != 0 || len(uc.LearningJourney.ChallengeHistory) != 0 {
		t.Fatalf("failed fetches must degrade to empty history")
	}
	if len(uc.Strengths) != 0 || len(uc.AreasForGrowth) != 0 {
		t.Fatalf("derivations over empty history must be empty")
	}
}

func TestGatherAllFetchesFailStillReturnsContext(t *testing.T) {
	boom := errors.New("db down")
	svc := newService(&fakeUserRepo{err: boom}, &fakeChallengeRepo{err: boom}, &fakeEvaluationRepo{err: boom})

	uc, err := svc.Gather(context.Background(), uuid.New(), Options{})
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if uc == nil {
		t.Fatalf("expected degraded context, got nil")
	}
}

func TestGatherRequiresUserID(t *testing.T) {
	svc := newService(&fakeUserRepo{}, &fakeChallengeRepo{}, &fakeEvaluationRepo{})
	if _, err := svc.Gather(context.Background(), uuid.Nil, Options{}); err == nil {
		t.Fatalf("expected validation error for nil user id")
	}
}
