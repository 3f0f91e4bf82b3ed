package prompts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryWeights maps an evaluation category to its share of the 0..100
// overall score. A selected map always sums to exactly WeightTotal.
type CategoryWeights map[string]int

const (
	WeightTotal = 100
	// weaknessBonus is added to each category flagged as a persistent
	// weakness before rescaling, shifting grading attention toward it.
	weaknessBonus = 5
)

// WeightTable holds the selectable weight sets: per challenge type first,
// then per focus area, then the default set.
type WeightTable struct {
	Default        CategoryWeights            `yaml:"default"`
	ChallengeTypes map[string]CategoryWeights `yaml:"challenge_types"`
	FocusAreas     map[string]CategoryWeights `yaml:"focus_areas"`
}

func DefaultWeightTable() *WeightTable {
	return &WeightTable{
		Default: CategoryWeights{
			"clarity":     25,
			"reasoning":   30,
			"evidence":    25,
			"originality": 20,
		},
		ChallengeTypes: map[string]CategoryWeights{
			"scenario": {
				"ethical_reasoning":     35,
				"stakeholder_awareness": 25,
				"practical_application": 25,
				"clarity":               15,
			},
			"analysis": {
				"critical_thinking": 35,
				"evidence":          30,
				"clarity":           20,
				"originality":       15,
			},
			"debate": {
				"argumentation":            35,
				"evidence":                 25,
				"counterargument_handling": 25,
				"clarity":                  15,
			},
			"creative": {
				"originality":       35,
				"coherence":         25,
				"depth":             20,
				"practical_grounding": 20,
			},
		},
		FocusAreas: map[string]CategoryWeights{
			"ai ethics": {
				"ethical_reasoning":     40,
				"stakeholder_awareness": 25,
				"practical_application": 20,
				"clarity":               15,
			},
			"critical thinking": {
				"critical_thinking": 40,
				"reasoning":         25,
				"evidence":          20,
				"clarity":           15,
			},
			"human judgment": {
				"judgment":            35,
				"context_sensitivity": 25,
				"reasoning":           25,
				"clarity":             15,
			},
		},
	}
}

// LoadWeightTable reads a YAML override file and merges it over the built-in
// table. Sections absent from the file keep the defaults.
func LoadWeightTable(path string) (*WeightTable, error) {
	table := DefaultWeightTable()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	var override WeightTable
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse weights file: %w", err)
	}
	if len(override.Default) > 0 {
		table.Default = override.Default
	}
	for k, v := range override.ChallengeTypes {
		table.ChallengeTypes[strings.ToLower(k)] = v
	}
	for k, v := range override.FocusAreas {
		table.FocusAreas[strings.ToLower(k)] = v
	}
	return table, nil
}

// Select resolves the weight set for a challenge: challenge type first, then
// focus area, then the default set. Persistent weaknesses present in the set
// receive the bonus, and the whole map is rescaled back to exactly
// WeightTotal.
func (t *WeightTable) Select(challengeType, focusArea string, persistentWeaknesses []string) CategoryWeights {
	base := t.Default
	if w, ok := t.ChallengeTypes[strings.ToLower(strings.TrimSpace(challengeType))]; ok {
		base = w
	} else if w, ok := t.FocusAreas[strings.ToLower(strings.TrimSpace(focusArea))]; ok {
		base = w
	}

	out := make(CategoryWeights, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, weak := range persistentWeaknesses {
		key := strings.ToLower(strings.TrimSpace(weak))
		if _, ok := out[key]; ok {
			out[key] += weaknessBonus
		}
	}
	return rescale(out, WeightTotal)
}

// rescale proportionally adjusts weights so they sum to exactly total,
// using largest-remainder rounding.
func rescale(w CategoryWeights, total int) CategoryWeights {
	sum := 0
	for _, v := range w {
		sum += v
	}
	if sum == 0 || sum == total {
		return w
	}

	type entry struct {
		key      string
		floor    int
		fraction float64
	}
	entries := make([]entry, 0, len(w))
	allocated := 0
	for k, v := range w {
		exact := float64(v) * float64(total) / float64(sum)
		fl := int(exact)
		entries = append(entries, entry{key: k, floor: fl, fraction: exact - float64(fl)})
		allocated += fl
	}

	// Hand the leftover points to the largest fractional parts; ties break
	// alphabetically so the result is deterministic.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].fraction != entries[j].fraction {
			return entries[i].fraction > entries[j].fraction
		}
		return entries[i].key < entries[j].key
	})
	remainder := total - allocated
	out := make(CategoryWeights, len(entries))
	for i, e := range entries {
		v := e.floor
		if i < remainder {
			v++
		}
		out[e.key] = v
	}
	return out
}

// Sum returns the total points in the map.
func (w CategoryWeights) Sum() int {
	s := 0
	for _, v := range w {
		s += v
	}
	return s
}

// SortedCategories returns category names in descending weight order,
// alphabetical within equal weights.
func (w CategoryWeights) SortedCategories() []string {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if w[keys[i]] != w[keys[j]] {
			return w[keys[i]] > w[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
