package prompts

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/cognify-backend/internal/types"
	"github.com/yungbote/cognify-backend/internal/usercontext"
)

func evaluationInput() Input {
	return Input{
		Challenge: &types.Challenge{
			ID:            uuid.New(),
			Title:         "The Biased Dataset",
			ChallengeType: "scenario",
			FocusArea:     "AI Ethics",
			Content: datatypes.JSONMap{
				"description": "A hiring model shows disparate impact.",
				"questions":   []interface{}{"What do you do first?", "Who must be consulted?"},
			},
		},
		UserResponse: "I would audit the training data.",
	}
}

func TestEvaluationBuilderSections(t *testing.T) {
	b := NewEvaluationBuilder(nil)
	raw, err := b.Build(evaluationInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Canonicalize(KindEvaluation, raw)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}

	for _, want := range []string{
		"CHALLENGE:",
		"The Biased Dataset",
		"USER RESPONSE:",
		"EVALUATION CRITERIA",
		"ethical_reasoning",
		"STRENGTH ANALYSIS:",
		"IMPROVEMENT PLANS:",
		"What do you do first?",
	} {
		if !strings.Contains(out.Input, want) {
			t.Fatalf("prompt missing %q:\n%s", want, out.Input)
		}
	}
	if out.SchemaName != "evaluation_result" {
		t.Fatalf("schema name = %q", out.SchemaName)
	}
}

func TestEvaluationGrowthSectionOnlyWithHistory(t *testing.T) {
	b := NewEvaluationBuilder(nil)

	raw, err := b.Build(evaluationInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, _ := Canonicalize(KindEvaluation, raw)
	if strings.Contains(out.Input, "GROWTH TRACKING") {
		t.Fatalf("growth section must be absent without history")
	}

	in := evaluationInput()
	in.EvaluationHistory = []types.Evaluation{{ID: uuid.New()}}
	in.PreviousScores = map[string]float64{"overall": 70, "ethical_reasoning": 60}
	raw, err = b.Build(in)
	if err != nil {
		t.Fatalf("Build with history: %v", err)
	}
	out, _ = Canonicalize(KindEvaluation, raw)
	if !strings.Contains(out.Input, "GROWTH TRACKING") {
		t.Fatalf("growth section missing with history")
	}
	if !strings.Contains(out.Input, "ethical_reasoning: 60") {
		t.Fatalf("previous scores missing:\n%s", out.Input)
	}
}

func TestEvaluationWeaknessBiasedCriteria(t *testing.T) {
	b := NewEvaluationBuilder(nil)
	in := evaluationInput()
	in.UserContext = &usercontext.UserContext{
		AreasForGrowth: []string{"clarity"},
	}
	raw, err := b.Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, _ := Canonicalize(KindEvaluation, raw)
	if !strings.Contains(out.Input, "Persistent weaknesses: clarity") {
		t.Fatalf("user context section missing weaknesses:\n%s", out.Input)
	}
}

func TestEvaluationBuilderDeterministic(t *testing.T) {
	b := NewEvaluationBuilder(nil)
	in := evaluationInput()
	in.UserContext = &usercontext.UserContext{
		Strengths:      []string{"reasoning"},
		AreasForGrowth: []string{"clarity"},
	}
	in.PreviousScores = map[string]float64{"overall": 70, "clarity": 55}
	in.EvaluationHistory = []types.Evaluation{{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")}}

	first, err := b.Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Build(in)
		if err != nil {
			t.Fatalf("Build #%d: %v", i, err)
		}
		if first.(Result).Input != again.(Result).Input || first.(Result).Instructions != again.(Result).Instructions {
			t.Fatalf("builder not deterministic")
		}
	}
}
