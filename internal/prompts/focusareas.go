package prompts

import (
	"fmt"
	"sort"
	"strings"
)

const focusAreasBaseSystem = `You recommend learning focus areas for a user practicing cognitive skills.
Recommendations must follow from the supplied evidence, not generic advice.
Return a single JSON object conforming to the provided schema.`

// FocusAreasBuilder builds the focus-area recommendation prompt from derived
// strengths and weaknesses.
type FocusAreasBuilder struct{}

func NewFocusAreasBuilder() *FocusAreasBuilder { return &FocusAreasBuilder{} }

func (b *FocusAreasBuilder) Build(in Input) (any, error) {
	if err := validate(in, RequireUser()); err != nil {
		return nil, err
	}

	var sections []string
	sections = append(sections, "Recommend 2-4 focus areas for this user, ordered by priority.")

	var evidence []string
	if lvl := skillLevel(in); lvl != "" {
		evidence = append(evidence, "Skill level: "+lvl)
	}
	if in.UserContext != nil {
		uc := in.UserContext
		if len(uc.Strengths) > 0 {
			evidence = append(evidence, "Consistent strengths: "+strings.Join(uc.Strengths, ", "))
		}
		if len(uc.AreasForGrowth) > 0 {
			evidence = append(evidence, "Persistent weaknesses: "+strings.Join(uc.AreasForGrowth, ", "))
		}
		if len(uc.Profile.LearningGoals) > 0 {
			evidence = append(evidence, "Stated goals: "+strings.Join(uc.Profile.LearningGoals, ", "))
		}
		cats := make([]string, 0, len(uc.LearningJourney.SkillLevels))
		for cat := range uc.LearningJourney.SkillLevels {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			evidence = append(evidence, fmt.Sprintf("Average score in %s: %d", cat, uc.LearningJourney.SkillLevels[cat]))
		}
	}
	if len(evidence) > 0 {
		sections = append(sections, "EVIDENCE:\n"+strings.Join(evidence, "\n"))
	}

	return Result{
		Input:        strings.Join(sections, "\n\n"),
		Instructions: ComposeInstructions(focusAreasBaseSystem, in),
		SchemaName:   "focus_areas",
		Schema:       FocusAreasSchema(),
	}, nil
}
