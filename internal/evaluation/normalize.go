package evaluation

import (
	"sort"

	"gorm.io/datatypes"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
	"github.com/yungbote/cognify-backend/internal/types"
)

// UngradedScore is the placeholder overall score used when the AI payload
// carries neither an explicit score nor category scores. Evaluations carrying
// it always set metadata["ungraded"]=true so downstream consumers can tell it
// apart from a real 70.
const UngradedScore = 70

// Frequency thresholds for the consistency derivations over the history
// window. A category must qualify in at least two evaluations before it is
// labeled a consistent strength or persistent weakness.
const (
	strengthScoreMin   = 80
	weaknessScoreMax   = 60
	frequencyThreshold = 2
)

// Normalize converts a raw structured AI payload into the canonical
// Evaluation entity and computes its growth metrics against the user's prior
// history. history is ordered most recent first; its head is "the previous
// evaluation" for delta purposes. Pure: identical inputs yield identical
// growth metrics.
func Normalize(raw map[string]any, history []types.Evaluation, cctx types.ChallengeContext) (*types.Evaluation, error) {
	if len(raw) == 0 {
		return nil, apperr.New(apperr.KindGeneration, "empty AI payload").
			WithField("challenge_id", cctx.ChallengeID)
	}

	cats := categoryScores(raw)
	score, graded := resolveScore(raw, cats)

	eval := &types.Evaluation{
		ChallengeID:         cctx.ChallengeID,
		Score:               score,
		CategoryScores:      datatypes.NewJSONType(cats),
		OverallFeedback:     stringAt(raw, "overall_feedback", "overallFeedback", "feedback"),
		Strengths:           datatypes.NewJSONSlice(stringsAt(raw, "strengths")),
		StrengthAnalysis:    datatypes.NewJSONType(strengthAnalyses(raw)),
		AreasForImprovement: datatypes.NewJSONSlice(stringsAt(raw, "areas_for_improvement", "areasForImprovement")),
		ImprovementPlans:    datatypes.NewJSONType(improvementPlans(raw)),
		ChallengeContext:    datatypes.NewJSONType(cctx),
		Metadata:            datatypes.JSONMap{},
	}
	if !graded {
		eval.Metadata["ungraded"] = true
	}

	eval.GrowthMetrics = datatypes.NewJSONType(computeGrowth(score, cats, history))
	return eval, nil
}

// resolveScore applies the fallback chain: explicit overall score, then the
// sum of category scores (categories are weighted to sum near 100, so the sum
// approximates the 0-100 scale), then the ungraded placeholder.
func resolveScore(raw map[string]any, cats map[string]float64) (score int, graded bool) {
	if v, ok := numberAt(raw, "overall_score", "overallScore", "score", "overall"); ok {
		return int(v + 0.5), true
	}
	if len(cats) > 0 {
		var sum float64
		for _, v := range cats {
			sum += v
		}
		return int(sum + 0.5), true
	}
	return UngradedScore, false
}

func computeGrowth(score int, cats map[string]float64, history []types.Evaluation) types.GrowthMetrics {
	gm := types.GrowthMetrics{
		CategoryScoreChanges: map[string]float64{},
		ConsistentStrengths:  []string{},
		PersistentWeaknesses: []string{},
	}

	if len(history) > 0 {
		prev := history[0]
		gm.ScoreChange = float64(score - prev.Score)

		prevCats := prev.CategoryScoreMap()
		for cat, cur := range cats {
			if old, ok := prevCats[cat]; ok {
				gm.CategoryScoreChanges[cat] = cur - old
			}
		}
		if len(gm.CategoryScoreChanges) > 0 {
			var sum float64
			for _, d := range gm.CategoryScoreChanges {
				sum += d
			}
			gm.ImprovementRate = sum / float64(len(gm.CategoryScoreChanges))
		}
	}

	strong := map[string]int{}
	weak := map[string]int{}
	tally := func(m map[string]float64) {
		for cat, v := range m {
			if v >= strengthScoreMin {
				strong[cat]++
			}
			if v <= weaknessScoreMax {
				weak[cat]++
			}
		}
	}
	tally(cats)
	for i := range history {
		tally(history[i].CategoryScoreMap())
	}
	for cat, n := range strong {
		if n >= frequencyThreshold {
			gm.ConsistentStrengths = append(gm.ConsistentStrengths, cat)
		}
	}
	for cat, n := range weak {
		if n >= frequencyThreshold {
			gm.PersistentWeaknesses = append(gm.PersistentWeaknesses, cat)
		}
	}
	sort.Strings(gm.ConsistentStrengths)
	sort.Strings(gm.PersistentWeaknesses)

	return gm
}

// -------------------- raw payload accessors --------------------

func numberAt(raw map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}

func stringAt(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func categoryScores(raw map[string]any) map[string]float64 {
	out := map[string]float64{}
	for _, key := range []string{"category_scores", "categoryScores"} {
		m, ok := raw[key].(map[string]any)
		if !ok {
			continue
		}
		for cat := range m {
			if f, ok := numberAt(m, cat); ok {
				out[cat] = f
			}
		}
		break
	}
	return out
}

func stringsAt(raw map[string]any, keys ...string) []string {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return []string{}
}

func strengthAnalyses(raw map[string]any) []types.StrengthAnalysis {
	items, ok := raw["strength_analysis"].([]any)
	if !ok {
		items, ok = raw["strengthAnalysis"].([]any)
	}
	if !ok {
		return []types.StrengthAnalysis{}
	}
	out := make([]types.StrengthAnalysis, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		sa := types.StrengthAnalysis{
			Strength: stringAt(m, "strength"),
			Analysis: stringAt(m, "analysis"),
			Impact:   stringAt(m, "impact"),
		}
		if sa.Strength == "" && sa.Analysis == "" {
			continue
		}
		out = append(out, sa)
	}
	return out
}

func improvementPlans(raw map[string]any) []types.ImprovementPlan {
	items, ok := raw["improvement_plans"].([]any)
	if !ok {
		items, ok = raw["improvementPlans"].([]any)
	}
	if !ok {
		return []types.ImprovementPlan{}
	}
	out := make([]types.ImprovementPlan, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ip := types.ImprovementPlan{
			Area:         stringAt(m, "area"),
			Plan:         stringAt(m, "plan"),
			ExampleSteps: stringsAt(m, "example_steps", "exampleSteps"),
		}
		if ip.Area == "" && ip.Plan == "" {
			continue
		}
		out = append(out, ip)
	}
	return out
}
