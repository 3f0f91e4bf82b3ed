package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/cognify-backend/internal/convstate"
	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/platform/openai"
	"github.com/yungbote/cognify-backend/internal/prompts"
	"github.com/yungbote/cognify-backend/internal/types"
	"github.com/yungbote/cognify-backend/internal/usercontext"
)

// -------------------- fakes --------------------

type fakeAI struct {
	data       map[string]any
	responseID string
	err        error
	deltas     []string

	lastReq  openai.StructuredRequest
	streamed bool
}

func (f *fakeAI) GenerateJSON(_ context.Context, req openai.StructuredRequest) (openai.StructuredResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.StructuredResponse{}, f.err
	}
	return openai.StructuredResponse{ResponseID: f.responseID, Data: f.data}, nil
}

func (f *fakeAI) StreamJSON(ctx context.Context, req openai.StructuredRequest, onDelta func(string)) (openai.StructuredResponse, error) {
	f.streamed = true
	for _, d := range f.deltas {
		if onDelta != nil {
			onDelta(d)
		}
	}
	return f.GenerateJSON(ctx, req)
}

type fakeContext struct {
	history []types.Evaluation
	err     error
}

func (f *fakeContext) Gather(_ context.Context, userID uuid.UUID, _ usercontext.Options) (*usercontext.UserContext, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usercontext.UserContext{
		UserID: userID,
		LearningJourney: usercontext.LearningJourney{
			EvaluationHistory: f.history,
		},
	}, nil
}

type captureEvalRepo struct {
	created []*types.Evaluation
	err     error
}

func (r *captureEvalRepo) GetByID(context.Context, *gorm.DB, uuid.UUID) (*types.Evaluation, error) {
	return nil, nil
}
func (r *captureEvalRepo) GetRecentByUserID(context.Context, *gorm.DB, uuid.UUID, int) ([]types.Evaluation, error) {
	return nil, nil
}
func (r *captureEvalRepo) GetLatestByUserID(context.Context, *gorm.DB, uuid.UUID) (*types.Evaluation, error) {
	return nil, nil
}
func (r *captureEvalRepo) Create(_ context.Context, _ *gorm.DB, ev *types.Evaluation) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, ev)
	return nil
}

// -------------------- helpers --------------------

func testChallenge(userID uuid.UUID) *types.Challenge {
	return &types.Challenge{
		ID:            uuid.MustParse("00000000-0000-0000-0000-0000000000c1"),
		UserID:        userID,
		Title:         "The Biased Dataset",
		ChallengeType: "scenario",
		FocusArea:     "AI Ethics",
		Content: datatypes.JSONMap{
			"description": "A hiring model shows disparate impact.",
		},
	}
}

func newTestService(t *testing.T, ai openai.Client, uc usercontext.Service, store convstate.Store, repo *captureEvalRepo) Service {
	t.Helper()
	log := logger.NewNop()
	registry, err := prompts.NewDefaultRegistry(log, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	deps := Deps{
		Registry:    registry,
		UserContext: uc,
		AI:          ai,
		States:      store,
	}
	if repo != nil {
		deps.Evaluations = repo
	}
	svc, err := NewService(deps, log)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

// timeRef is an issuedAt safely before any token issued during the test.
func timeRef(t *testing.T) time.Time {
	t.Helper()
	return time.Now().UTC().Add(-time.Minute)
}

// -------------------- tests --------------------

func TestEvaluateResponseFirstCall(t *testing.T) {
	userID := uuid.New()
	ai := &fakeAI{
		data: map[string]any{
			"overall_score":   70.0,
			"category_scores": map[string]any{"ethical_reasoning": 60.0},
		},
		responseID: "resp-1",
	}
	store := convstate.NewMemoryStore(logger.NewNop())
	repo := &captureEvalRepo{}
	svc := newTestService(t, ai, &fakeContext{}, store, repo)

	ch := testChallenge(userID)
	eval, err := svc.EvaluateResponse(context.Background(), ch, "I would audit the training data.", Options{})
	if err != nil {
		t.Fatalf("EvaluateResponse: %v", err)
	}

	gm := eval.GrowthMetrics.Data()
	if gm.ScoreChange != 0 {
		t.Fatalf("first evaluation scoreChange = %v, want 0", gm.ScoreChange)
	}
	if len(gm.CategoryScoreChanges) != 0 {
		t.Fatalf("first evaluation categoryScoreChanges = %v, want empty", gm.CategoryScoreChanges)
	}
	if eval.UserID != userID {
		t.Fatalf("user id not set on entity")
	}
	if eval.ResponseID != "resp-1" {
		t.Fatalf("response id = %q", eval.ResponseID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted evaluation, got %d", len(repo.created))
	}
	if ai.lastReq.PreviousResponseID != "" {
		t.Fatalf("first call must not carry a previous response id, got %q", ai.lastReq.PreviousResponseID)
	}

	// The conversation state advanced to the new token.
	state, err := store.FindOrCreate(context.Background(), userID, EvaluationPurposePrefix+ch.ID.String(), nil)
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	last, err := store.GetLastResponseID(context.Background(), state.ID)
	if err != nil {
		t.Fatalf("GetLastResponseID: %v", err)
	}
	if last != "resp-1" {
		t.Fatalf("stored response id = %q, want resp-1", last)
	}
}

func TestEvaluateResponseSecondCallComputesDeltas(t *testing.T) {
	userID := uuid.New()
	history := []types.Evaluation{{
		ID:             uuid.New(),
		UserID:         userID,
		Score:          70,
		CategoryScores: datatypes.NewJSONType(map[string]float64{"ethical_reasoning": 60}),
	}}
	ai := &fakeAI{
		data: map[string]any{
			"overall_score":   80.0,
			"category_scores": map[string]any{"ethical_reasoning": 75.0},
		},
		responseID: "resp-2",
	}
	store := convstate.NewMemoryStore(logger.NewNop())
	svc := newTestService(t, ai, &fakeContext{history: history}, store, nil)

	ch := testChallenge(userID)

	// Seed continuity from a prior round.
	state, err := store.FindOrCreate(context.Background(), userID, EvaluationPurposePrefix+ch.ID.String(), nil)
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if err := store.UpdateLastResponseID(context.Background(), state.ID, "resp-1", timeRef(t)); err != nil {
		t.Fatalf("seed UpdateLastResponseID: %v", err)
	}

	eval, err := svc.EvaluateResponse(context.Background(), ch, "Second attempt with stakeholder mapping.", Options{})
	if err != nil {
		t.Fatalf("EvaluateResponse: %v", err)
	}

	gm := eval.GrowthMetrics.Data()
	if gm.ScoreChange != 10 {
		t.Fatalf("scoreChange = %v, want 10", gm.ScoreChange)
	}
	if gm.CategoryScoreChanges["ethical_reasoning"] != 15 {
		t.Fatalf("ethical_reasoning delta = %v, want 15", gm.CategoryScoreChanges["ethical_reasoning"])
	}
	if ai.lastReq.PreviousResponseID != "resp-1" {
		t.Fatalf("previous response id = %q, want resp-1", ai.lastReq.PreviousResponseID)
	}
	if eval.ThreadID != state.ID.String() {
		t.Fatalf("thread id = %q, want %q", eval.ThreadID, state.ID.String())
	}
}

func TestStreamEvaluationForwardsDeltas(t *testing.T) {
	userID := uuid.New()
	ai := &fakeAI{
		data:       map[string]any{"overall_score": 75.0},
		responseID: "resp-s",
		deltas:     []string{`{"overall_`, `score": 75}`},
	}
	store := convstate.NewMemoryStore(logger.NewNop())
	svc := newTestService(t, ai, &fakeContext{}, store, nil)

	var got []string
	_, err := svc.StreamEvaluation(context.Background(), testChallenge(userID), "answer", Options{}, func(d string) {
		got = append(got, d)
	})
	if err != nil {
		t.Fatalf("StreamEvaluation: %v", err)
	}
	if !ai.streamed {
		t.Fatalf("streaming path not used")
	}
	if strings.Join(got, "") != `{"overall_score": 75}` {
		t.Fatalf("deltas = %v", got)
	}
}

func TestEvaluateValidation(t *testing.T) {
	store := convstate.NewMemoryStore(logger.NewNop())
	svc := newTestService(t, &fakeAI{data: map[string]any{"overall_score": 70.0}}, &fakeContext{}, store, nil)

	if _, err := svc.EvaluateResponse(context.Background(), nil, "text", Options{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("nil challenge: want validation error, got %v", err)
	}
	if _, err := svc.EvaluateResponse(context.Background(), testChallenge(uuid.New()), "   ", Options{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("blank response: want validation error, got %v", err)
	}
	ch := testChallenge(uuid.Nil)
	if _, err := svc.EvaluateResponse(context.Background(), ch, "text", Options{}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("missing owner: want validation error, got %v", err)
	}
}

func TestEvaluateWrapsGenerationFailure(t *testing.T) {
	store := convstate.NewMemoryStore(logger.NewNop())
	ai := &fakeAI{err: errors.New("upstream 503")}
	svc := newTestService(t, ai, &fakeContext{}, store, nil)

	_, err := svc.EvaluateResponse(context.Background(), testChallenge(uuid.New()), "text", Options{})
	if !apperr.IsKind(err, apperr.KindGeneration) {
		t.Fatalf("want generation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "upstream 503") {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestPersistFailureDoesNotFailEvaluation(t *testing.T) {
	store := convstate.NewMemoryStore(logger.NewNop())
	ai := &fakeAI{data: map[string]any{"overall_score": 70.0}, responseID: "resp-1"}
	repo := &captureEvalRepo{err: errors.New("db down")}
	svc := newTestService(t, ai, &fakeContext{}, store, repo)

	eval, err := svc.EvaluateResponse(context.Background(), testChallenge(uuid.New()), "text", Options{})
	if err != nil {
		t.Fatalf("persist failure must not fail the evaluation: %v", err)
	}
	if eval == nil || eval.Score != 70 {
		t.Fatalf("entity missing after persist failure")
	}
}
