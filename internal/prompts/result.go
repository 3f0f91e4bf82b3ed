package prompts

import (
	"fmt"
	"strings"

	"github.com/yungbote/cognify-backend/internal/platform/apperr"
)

// Result is the one canonical prompt shape every builder output is coerced
// to. Input is the user-turn prompt text; Instructions is the system message,
// empty when absent.
type Result struct {
	Input        string
	Instructions string

	// SchemaName/Schema document the structured response contract for the AI
	// backend (json_schema strict mode). Optional.
	SchemaName string
	Schema     map[string]any
}

// Canonicalize coerces a builder's raw return value into a Result. Builders
// evolved through three historical shapes, so three tiers are tolerated:
//
//  1. Result / *Result — validated pass-through.
//  2. bare string — wrapped as {Input: s}.
//  3. map with prompt|content|input and systemMessage|system|instructions —
//     remapped to canonical names.
//
// Anything else fails with a prompt_construction error carrying the kind and
// the offending type. Canonicalize is idempotent: feeding its output back in
// yields the same Result.
func Canonicalize(kind Kind, raw any) (Result, error) {
	switch v := raw.(type) {
	case Result:
		return validateResult(kind, v)
	case *Result:
		if v == nil {
			return Result{}, badShape(kind, raw)
		}
		return validateResult(kind, *v)
	case string:
		return validateResult(kind, Result{Input: v})
	case map[string]any:
		return canonicalizeMap(kind, v)
	default:
		return Result{}, badShape(kind, raw)
	}
}

func canonicalizeMap(kind Kind, m map[string]any) (Result, error) {
	input, ok := firstString(m, "input", "prompt", "content")
	if !ok {
		return Result{}, badShape(kind, m)
	}
	out := Result{Input: input}
	if instr, ok := firstString(m, "instructions", "systemMessage", "system"); ok {
		out.Instructions = instr
	}
	return validateResult(kind, out)
}

// firstString returns the first present key coerced to a string. String
// arrays are joined with newlines (some legacy builders returned the prompt
// as a section list).
func firstString(m map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			return t, true
		case []string:
			return strings.Join(t, "\n"), true
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				s, ok := p.(string)
				if !ok {
					return "", false
				}
				parts = append(parts, s)
			}
			return strings.Join(parts, "\n"), true
		default:
			return "", false
		}
	}
	return "", false
}

func validateResult(kind Kind, r Result) (Result, error) {
	r.Input = strings.TrimSpace(r.Input)
	r.Instructions = strings.TrimSpace(r.Instructions)
	if r.Input == "" {
		return Result{}, apperr.New(apperr.KindPromptConstruction, "builder produced an empty prompt").
			WithField("kind", string(kind))
	}
	return r, nil
}

func badShape(kind Kind, raw any) error {
	return apperr.New(apperr.KindPromptConstruction,
		fmt.Sprintf("builder returned unrecognizable shape %T", raw)).
		WithField("kind", string(kind)).
		WithField("raw", raw)
}
