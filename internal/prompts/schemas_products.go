package prompts

// EvaluationSchema is the RESPONSE FORMAT contract for the evaluation
// builder. categoryScores keys are the selected weight categories; the
// backend grades each within its weight so the sum approximates 0..100.
func EvaluationSchema() map[string]any {
	strengthAnalysis := SchemaObject(map[string]any{
		"strength": StringSchema(),
		"analysis": StringSchema(),
		"impact":   StringSchema(),
	}, []string{"strength", "analysis", "impact"})

	improvementPlan := SchemaObject(map[string]any{
		"area":          StringSchema(),
		"plan":          StringSchema(),
		"example_steps": StringArraySchema(),
	}, []string{"area", "plan", "example_steps"})

	return SchemaObject(map[string]any{
		"overall_score":    IntSchema(),
		"category_scores":  NumberMapSchema(),
		"overall_feedback": StringSchema(),
		"strengths":        StringArraySchema(),
		"strength_analysis": map[string]any{
			"type":  "array",
			"items": strengthAnalysis,
		},
		"areas_for_improvement": StringArraySchema(),
		"improvement_plans": map[string]any{
			"type":  "array",
			"items": improvementPlan,
		},
	}, []string{
		"overall_score",
		"category_scores",
		"overall_feedback",
		"strengths",
		"strength_analysis",
		"areas_for_improvement",
		"improvement_plans",
	})
}

func ChallengeSchema() map[string]any {
	return SchemaObject(map[string]any{
		"title":          StringSchema(),
		"challenge_type": EnumSchema("scenario", "analysis", "debate", "creative"),
		"focus_area":     StringSchema(),
		"difficulty":     EnumSchema("beginner", "intermediate", "advanced", "expert"),
		"description":    StringSchema(),
		"scenario":       StringSchema(),
		"questions":      StringArraySchema(),
	}, []string{
		"title",
		"challenge_type",
		"focus_area",
		"difficulty",
		"description",
		"scenario",
		"questions",
	})
}

func FocusAreasSchema() map[string]any {
	area := SchemaObject(map[string]any{
		"name":        StringSchema(),
		"rationale":   StringSchema(),
		"priority":    IntSchema(),
		"first_steps": StringArraySchema(),
	}, []string{"name", "rationale", "priority", "first_steps"})

	return SchemaObject(map[string]any{
		"focus_areas": map[string]any{
			"type":  "array",
			"items": area,
		},
	}, []string{"focus_areas"})
}

func PersonalitySchema() map[string]any {
	return SchemaObject(map[string]any{
		"traits":              NumberMapSchema(),
		"communication_style": EnumSchema("formal", "casual", "technical"),
		"summary":             StringSchema(),
		"recommendations":     StringArraySchema(),
	}, []string{"traits", "communication_style", "summary", "recommendations"})
}
