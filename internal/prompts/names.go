package prompts

import "strings"

// Kind selects a prompt builder. Dispatch is case-insensitive; constants are
// the canonical spellings.
type Kind string

const (
	KindEvaluation  Kind = "evaluation"
	KindChallenge   Kind = "challenge"
	KindFocusAreas  Kind = "focus_areas"
	KindPersonality Kind = "personality"
)

func normalizeKind(k Kind) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(string(k))))
}
