package prompts

import "github.com/yungbote/cognify-backend/internal/platform/logger"

// NewDefaultRegistry builds the registry with every built-in builder
// registered. weights may be nil to use the built-in table.
func NewDefaultRegistry(baseLog *logger.Logger, weights *WeightTable) (*Registry, error) {
	r := NewRegistry(baseLog)
	if err := RegisterDefaults(r, weights); err != nil {
		return nil, err
	}
	return r, nil
}

func RegisterDefaults(r *Registry, weights *WeightTable) error {
	evaluation := NewEvaluationBuilder(weights)
	challenge := NewChallengeBuilder()
	focusAreas := NewFocusAreasBuilder()
	personality := NewPersonalityBuilder()

	for kind, fn := range map[Kind]BuilderFunc{
		KindEvaluation:  evaluation.Build,
		KindChallenge:   challenge.Build,
		KindFocusAreas:  focusAreas.Build,
		KindPersonality: personality.Build,
	} {
		if err := r.Register(kind, fn); err != nil {
			return err
		}
	}
	return nil
}
