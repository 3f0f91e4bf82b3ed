package prompts

import (
	"fmt"
	"sort"
	"strings"
)

const evaluationBaseSystem = `You are an expert evaluator of free-form responses to cognitive challenges.
Score against the stated criteria only, grounding every judgment in the response text.
Return a single JSON object conforming to the provided schema, with no extra keys.`

var categoryDescriptions = map[string]string{
	"clarity":                  "structure, readability and precision of expression",
	"reasoning":                "soundness and coherence of the argument",
	"evidence":                 "use of concrete support for claims",
	"originality":              "novelty and independence of thought",
	"critical_thinking":        "identification of assumptions, biases and alternatives",
	"ethical_reasoning":        "application of ethical principles to the situation",
	"stakeholder_awareness":    "consideration of affected parties and their interests",
	"practical_application":    "translation of analysis into workable action",
	"argumentation":            "strength and organization of the case made",
	"counterargument_handling": "anticipation and treatment of opposing views",
	"judgment":                 "quality of decisions under ambiguity",
	"context_sensitivity":      "adaptation of reasoning to situational detail",
	"coherence":                "internal consistency of the piece",
	"depth":                    "thoroughness of exploration",
	"practical_grounding":      "connection of creative ideas to reality",
}

// EvaluationBuilder builds the evaluation prompt: criteria weighted for the
// challenge and the user's persistent weaknesses, context sections, and a
// personalized system message. Pure — identical Input yields an identical
// Result.
type EvaluationBuilder struct {
	weights *WeightTable
}

func NewEvaluationBuilder(weights *WeightTable) *EvaluationBuilder {
	if weights == nil {
		weights = DefaultWeightTable()
	}
	return &EvaluationBuilder{weights: weights}
}

func (b *EvaluationBuilder) Build(in Input) (any, error) {
	if err := validate(in, RequireChallenge(), RequireUserResponse()); err != nil {
		return nil, err
	}

	var weaknesses []string
	if in.UserContext != nil {
		weaknesses = in.UserContext.AreasForGrowth
	}
	challengeType := in.Options.ChallengeType
	if challengeType == "" {
		challengeType = in.Challenge.ChallengeType
	}
	weights := b.weights.Select(challengeType, in.Challenge.FocusArea, weaknesses)

	var sections []string
	sections = append(sections, "Evaluate the user's response to the following challenge.")
	sections = append(sections, challengeSection(in))
	sections = append(sections, "USER RESPONSE:\n"+strings.TrimSpace(in.UserResponse))
	sections = append(sections, criteriaSection(weights))
	if ctxSection := userContextSection(in); ctxSection != "" {
		sections = append(sections, ctxSection)
	}
	sections = append(sections,
		"STRENGTH ANALYSIS:\nFor each strength, explain what the user did, why it works, and its impact on the overall quality of the response.")
	sections = append(sections,
		"IMPROVEMENT PLANS:\nFor each area for improvement, give a short plan with concrete example steps the user can apply to their next challenge.")
	if growth := growthSection(in); growth != "" {
		sections = append(sections, growth)
	}

	return Result{
		Input:        strings.Join(sections, "\n\n"),
		Instructions: ComposeInstructions(evaluationBaseSystem, in),
		SchemaName:   "evaluation_result",
		Schema:       EvaluationSchema(),
	}, nil
}

func challengeSection(in Input) string {
	c := in.Challenge
	var b strings.Builder
	b.WriteString("CHALLENGE:\n")
	b.WriteString("Title: " + c.Title + "\n")
	b.WriteString("Type: " + c.ChallengeType)
	if c.FocusArea != "" {
		b.WriteString(" | Focus area: " + c.FocusArea)
	}
	if c.Difficulty != "" {
		b.WriteString(" | Difficulty: " + c.Difficulty)
	}
	if desc := c.Description(); desc != "" {
		b.WriteString("\n" + desc)
	}
	if qs := c.Questions(); len(qs) > 0 {
		b.WriteString("\nQuestions:")
		for _, q := range qs {
			b.WriteString("\n- " + q)
		}
	}
	return b.String()
}

func criteriaSection(weights CategoryWeights) string {
	var b strings.Builder
	b.WriteString("EVALUATION CRITERIA (scores per category must not exceed the category's points; points sum to ")
	b.WriteString(fmt.Sprintf("%d):", weights.Sum()))
	for _, cat := range weights.SortedCategories() {
		desc := categoryDescriptions[cat]
		if desc == "" {
			desc = "quality along this dimension"
		}
		b.WriteString(fmt.Sprintf("\n- %s (%d points): %s", cat, weights[cat], desc))
	}
	return b.String()
}

func userContextSection(in Input) string {
	uc := in.UserContext
	if uc == nil {
		return ""
	}
	var lines []string
	if uc.Profile.SkillLevel != "" {
		lines = append(lines, "Skill level: "+uc.Profile.SkillLevel)
	}
	if len(uc.Profile.FocusAreas) > 0 {
		lines = append(lines, "Focus areas: "+strings.Join(uc.Profile.FocusAreas, ", "))
	}
	if len(uc.Strengths) > 0 {
		lines = append(lines, "Consistent strengths: "+strings.Join(uc.Strengths, ", "))
	}
	if len(uc.AreasForGrowth) > 0 {
		lines = append(lines, "Persistent weaknesses: "+strings.Join(uc.AreasForGrowth, ", "))
	}
	if uc.LearningJourney.CompletedChallenges > 0 {
		lines = append(lines, fmt.Sprintf("Completed challenges: %d", uc.LearningJourney.CompletedChallenges))
	}
	if len(lines) == 0 {
		return ""
	}
	return "USER CONTEXT:\n" + strings.Join(lines, "\n")
}

// growthSection emits growth-tracking instructions only when prior
// evaluations exist; first-time users get no trajectory commentary.
func growthSection(in Input) string {
	if len(in.EvaluationHistory) == 0 && len(in.PreviousScores) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("GROWTH TRACKING:\nThe user has prior evaluations. Comment on trajectory where the same categories recur.")
	if len(in.PreviousScores) > 0 {
		keys := make([]string, 0, len(in.PreviousScores))
		for k := range in.PreviousScores {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\nPrevious scores:")
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n- %s: %.0f", k, in.PreviousScores[k]))
		}
	}
	return b.String()
}
