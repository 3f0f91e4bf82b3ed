package prompts

import "strings"

// A fragment contributes one independent paragraph of personalization
// guidance to the system message. Fragments never overwrite each other, so
// their application order does not change semantics; the fixed order below
// only makes output stable and testable.
type fragment struct {
	name string
	when func(Input) bool
	text func(Input) string
}

var guidanceFragments = []fragment{
	{
		name: "feedback_style",
		when: func(in Input) bool { return feedbackStyle(in) != "" },
		text: func(in Input) string {
			switch feedbackStyle(in) {
			case "encouraging":
				return "Feedback style: lead with what worked before noting gaps, and frame improvements as achievable next steps."
			case "direct":
				return "Feedback style: be direct and unambiguous about weaknesses; do not pad critique with qualifiers."
			case "detailed":
				return "Feedback style: justify every score with specific references to the response text."
			default:
				return ""
			}
		},
	},
	{
		name: "skill_depth",
		when: func(in Input) bool { return skillLevel(in) != "" },
		text: func(in Input) string {
			switch skillLevel(in) {
			case "beginner":
				return "Explanation depth: use plain language and avoid field jargon; define any technical term you must use."
			case "intermediate":
				return "Explanation depth: assume working familiarity with core concepts; explain only advanced ideas."
			case "advanced", "expert":
				return "Explanation depth: engage with nuance and edge cases; do not restate fundamentals."
			default:
				return ""
			}
		},
	},
	{
		name: "tone",
		when: func(in Input) bool { return communicationStyle(in) != "" },
		text: func(in Input) string {
			switch communicationStyle(in) {
			case "formal":
				return "Tone: formal and precise."
			case "casual":
				return "Tone: conversational and approachable, without diluting the substance."
			case "technical":
				return "Tone: technical; cite concepts by their proper names."
			default:
				return ""
			}
		},
	},
	{
		name: "sensitivity",
		when: func(in Input) bool { return trait(in, "sensitive_to_criticism") >= 0.5 },
		text: func(Input) string {
			return "Sensitivity: soften critique by pairing each area for improvement with something the response did well in the same dimension."
		},
	},
	{
		name: "learning_style",
		when: func(in Input) bool { return learningStyle(in) != "" },
		text: func(in Input) string {
			switch learningStyle(in) {
			case "visual":
				return "Learning style: structure feedback so it could be diagrammed; use explicit lists and contrasts."
			case "practical":
				return "Learning style: anchor every improvement suggestion in a concrete action the user can take on their next challenge."
			case "theoretical":
				return "Learning style: connect feedback to the underlying principles and name the frameworks involved."
			default:
				return ""
			}
		},
	},
}

// ComposeInstructions appends each applicable guidance fragment to the base
// system message as its own paragraph.
func ComposeInstructions(base string, in Input) string {
	parts := make([]string, 0, 1+len(guidanceFragments))
	if b := strings.TrimSpace(base); b != "" {
		parts = append(parts, b)
	}
	for _, f := range guidanceFragments {
		if !f.when(in) {
			continue
		}
		if txt := strings.TrimSpace(f.text(in)); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, "\n\n")
}

func feedbackStyle(in Input) string {
	if s := strings.ToLower(strings.TrimSpace(in.Options.FeedbackStyle)); s != "" {
		return s
	}
	if in.User != nil {
		return strings.ToLower(in.User.Preference("feedback_style", ""))
	}
	return ""
}

func skillLevel(in Input) string {
	if in.UserContext != nil && in.UserContext.Profile.SkillLevel != "" {
		return strings.ToLower(in.UserContext.Profile.SkillLevel)
	}
	if in.User != nil {
		return strings.ToLower(in.User.SkillLevel)
	}
	return ""
}

func communicationStyle(in Input) string {
	if in.User != nil {
		return strings.ToLower(in.User.Preference("communication_style", ""))
	}
	return ""
}

func learningStyle(in Input) string {
	if in.User != nil {
		return strings.ToLower(in.User.Preference("learning_style", ""))
	}
	return ""
}

func trait(in Input, name string) float64 {
	if in.PersonalityProfile != nil {
		if v, ok := in.PersonalityProfile[name]; ok {
			return v
		}
	}
	if in.User != nil {
		return in.User.Trait(name)
	}
	return 0
}
