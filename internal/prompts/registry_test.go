package prompts

import (
	"errors"
	"testing"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/platform/logger"
	"github.com/yungbote/cognify-backend/internal/types"
)

func testChallenge() *types.Challenge {
	return &types.Challenge{
		Title:         "The Biased Dataset",
		ChallengeType: "scenario",
		FocusArea:     "AI Ethics",
	}
}

func TestRegistryDispatchCaseInsensitive(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	if err := r.Register(KindEvaluation, func(in Input) (any, error) {
		return Result{Input: "built"}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, kind := range []Kind{"evaluation", "EVALUATION", " Evaluation "} {
		out, err := r.Build(kind, Input{})
		if err != nil {
			t.Fatalf("Build(%q): %v", kind, err)
		}
		if out.Input != "built" {
			t.Fatalf("Build(%q) = %+v", kind, out)
		}
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	_, err := r.Build("nonexistent", Input{})
	if !apperr.IsKind(err, apperr.KindBuilderNotFound) {
		t.Fatalf("expected builder_not_found, got %v", err)
	}
}

func TestRegistryRejectsNilBuilder(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	if err := r.Register(KindEvaluation, nil); !apperr.IsKind(err, apperr.KindInvalidBuilder) {
		t.Fatalf("expected invalid_builder, got %v", err)
	}
	if err := r.Register("  ", func(Input) (any, error) { return "x", nil }); !apperr.IsKind(err, apperr.KindInvalidBuilder) {
		t.Fatalf("expected invalid_builder for blank kind, got %v", err)
	}
}

func TestRegistryNormalizesLegacyBuilderOutput(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	_ = r.Register("legacy_string", func(Input) (any, error) { return "plain", nil })
	_ = r.Register("legacy_map", func(Input) (any, error) {
		return map[string]any{"prompt": "p", "systemMessage": "s"}, nil
	})

	out, err := r.Build("legacy_string", Input{})
	if err != nil || out.Input != "plain" || out.Instructions != "" {
		t.Fatalf("legacy string: %+v, %v", out, err)
	}
	out, err = r.Build("legacy_map", Input{})
	if err != nil || out.Input != "p" || out.Instructions != "s" {
		t.Fatalf("legacy map: %+v, %v", out, err)
	}
}

func TestRegistryWrapsBuilderFailures(t *testing.T) {
	r := NewRegistry(logger.NewNop())
	boom := errors.New("boom")
	_ = r.Register(KindEvaluation, func(Input) (any, error) { return nil, boom })

	_, err := r.Build(KindEvaluation, Input{})
	if !apperr.IsKind(err, apperr.KindPromptConstruction) {
		t.Fatalf("expected prompt_construction, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("original cause must be preserved, got %v", err)
	}
}

func TestRegistryPropagatesValidationErrors(t *testing.T) {
	r, err := NewDefaultRegistry(logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	// Missing user response: must surface as validation, before any AI call.
	_, err = r.Build(KindEvaluation, Input{Challenge: testChallenge()})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = r.Build(KindEvaluation, Input{UserResponse: "answer"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing challenge, got %v", err)
	}
}

func TestDefaultRegistryBuildsAllKinds(t *testing.T) {
	r, err := NewDefaultRegistry(logger.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}

	user := &types.User{SkillLevel: "intermediate"}
	in := Input{
		Challenge:    testChallenge(),
		UserResponse: "my answer",
		User:         user,
	}
	for _, kind := range []Kind{KindEvaluation, KindChallenge, KindFocusAreas, KindPersonality} {
		out, err := r.Build(kind, in)
		if err != nil {
			t.Fatalf("Build(%s): %v", kind, err)
		}
		if out.Input == "" {
			t.Fatalf("Build(%s): empty prompt", kind)
		}
		if out.Instructions == "" {
			t.Fatalf("Build(%s): empty instructions", kind)
		}
		if out.Schema == nil || out.SchemaName == "" {
			t.Fatalf("Build(%s): missing response schema", kind)
		}
	}
}
