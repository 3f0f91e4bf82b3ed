package prompts

import (
	"fmt"
	"sort"
	"strings"
)

const personalityBaseSystem = `You assess how a user thinks and communicates from their challenge history.
Ground every trait score in observable patterns across the supplied responses.
Return a single JSON object conforming to the provided schema.`

// PersonalityBuilder builds the personality-assessment prompt from observed
// traits and the evaluation window.
type PersonalityBuilder struct{}

func NewPersonalityBuilder() *PersonalityBuilder { return &PersonalityBuilder{} }

func (b *PersonalityBuilder) Build(in Input) (any, error) {
	if err := validate(in, RequireUser()); err != nil {
		return nil, err
	}

	var sections []string
	sections = append(sections, "Assess this user's thinking and communication profile.")

	if len(in.PersonalityProfile) > 0 {
		keys := make([]string, 0, len(in.PersonalityProfile))
		for k := range in.PersonalityProfile {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var lines []string
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %.2f", k, in.PersonalityProfile[k]))
		}
		sections = append(sections, "CURRENT TRAIT ESTIMATES (refine, do not discard):\n"+strings.Join(lines, "\n"))
	}

	if in.UserContext != nil && len(in.UserContext.LearningJourney.EvaluationHistory) > 0 {
		var lines []string
		for i := range in.UserContext.LearningJourney.EvaluationHistory {
			ev := &in.UserContext.LearningJourney.EvaluationHistory[i]
			if ev.OverallFeedback != "" {
				lines = append(lines, "- "+ev.OverallFeedback)
			}
		}
		if len(lines) > 0 {
			sections = append(sections, "PRIOR EVALUATION FEEDBACK:\n"+strings.Join(lines, "\n"))
		}
	}

	return Result{
		Input:        strings.Join(sections, "\n\n"),
		Instructions: ComposeInstructions(personalityBaseSystem, in),
		SchemaName:   "personality_assessment",
		Schema:       PersonalitySchema(),
	}, nil
}
