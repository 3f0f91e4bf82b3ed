package prompts

import (
	"fmt"
	"strings"
)

const challengeBaseSystem = `You design cognitive challenges that stretch a specific user's thinking.
Each challenge must be self-contained, answerable in free-form text, and matched to the user's skill level.
Return a single JSON object conforming to the provided schema.`

// ChallengeBuilder builds the challenge-generation prompt from the user's
// profile and recent history, steering away from recently used titles.
type ChallengeBuilder struct{}

func NewChallengeBuilder() *ChallengeBuilder { return &ChallengeBuilder{} }

func (b *ChallengeBuilder) Build(in Input) (any, error) {
	if err := validate(in, RequireUser()); err != nil {
		return nil, err
	}

	var sections []string
	sections = append(sections, "Generate a new cognitive challenge for this user.")

	var profile []string
	if lvl := skillLevel(in); lvl != "" {
		profile = append(profile, "Skill level: "+lvl)
	}
	focus := strings.TrimSpace(in.FocusArea)
	if focus == "" && in.UserContext != nil && len(in.UserContext.Profile.FocusAreas) > 0 {
		focus = in.UserContext.Profile.FocusAreas[0]
	}
	if focus != "" {
		profile = append(profile, "Focus area: "+focus)
	}
	if in.UserContext != nil {
		if len(in.UserContext.Profile.LearningGoals) > 0 {
			profile = append(profile, "Learning goals: "+strings.Join(in.UserContext.Profile.LearningGoals, ", "))
		}
		if len(in.UserContext.AreasForGrowth) > 0 {
			profile = append(profile, "Target these persistent weaknesses: "+strings.Join(in.UserContext.AreasForGrowth, ", "))
		}
	}
	if len(profile) > 0 {
		sections = append(sections, "USER PROFILE:\n"+strings.Join(profile, "\n"))
	}

	if in.UserContext != nil && len(in.UserContext.LearningJourney.ChallengeHistory) > 0 {
		var titles []string
		for i := range in.UserContext.LearningJourney.ChallengeHistory {
			if t := in.UserContext.LearningJourney.ChallengeHistory[i].Title; t != "" {
				titles = append(titles, t)
			}
		}
		if len(titles) > 0 {
			sections = append(sections, fmt.Sprintf("RECENT CHALLENGES (do not repeat these topics):\n- %s",
				strings.Join(titles, "\n- ")))
		}
	}

	sections = append(sections, "The challenge must include a realistic scenario and 2-4 open questions.")

	return Result{
		Input:        strings.Join(sections, "\n\n"),
		Instructions: ComposeInstructions(challengeBaseSystem, in),
		SchemaName:   "challenge",
		Schema:       ChallengeSchema(),
	}, nil
}
