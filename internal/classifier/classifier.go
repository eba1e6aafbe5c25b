// Package classifier maps a blood-pressure pair onto an ordered stage using a threshold table.
package classifier

import (
	"fmt"

	"healthlog/internal/models"
)

// Match how a rule combines its two thresholds
type Match string

const (
	MatchEither Match = "either" // sys >= S || dia >= D
	MatchBoth   Match = "both"   // sys >= S && dia >= D
)

// Rule one severity step; a zero threshold leaves that side unchecked
type Rule struct {
	Stage     models.Stage `yaml:"stage" json:"stage"`
	Systolic  int          `yaml:"systolic" json:"systolic"`
	Diastolic int          `yaml:"diastolic" json:"diastolic"`
	Match     Match        `yaml:"match" json:"match"`
}

func (r Rule) matches(sys, dia int) bool {
	sysHit := r.Systolic > 0 && sys >= r.Systolic
	diaHit := r.Diastolic > 0 && dia >= r.Diastolic
	if r.Match == MatchBoth {
		if r.Systolic > 0 && !sysHit {
			return false
		}
		if r.Diastolic > 0 && !diaHit {
			return false
		}
		return r.Systolic > 0 || r.Diastolic > 0
	}
	return sysHit || diaHit
}

// Table rules in descending severity; Floor applies when nothing matches
type Table struct {
	Name  string       `yaml:"name" json:"name"`
	Floor models.Stage `yaml:"floor" json:"floor"`
	Rules []Rule       `yaml:"rules" json:"rules"`
}

// Classify returns the stage of the first matching rule.
// A missing systolic or diastolic value yields StageUnknown.
func Classify(sys, dia *int, t Table) models.Stage {
	if sys == nil || dia == nil {
		return models.StageUnknown
	}
	for _, r := range t.Rules {
		if r.matches(*sys, *dia) {
			return r.Stage
		}
	}
	return t.Floor
}

// Levels stages ascending (floor first)
func (t Table) Levels() []models.Stage {
	out := make([]models.Stage, 0, len(t.Rules)+1)
	out = append(out, t.Floor)
	for i := len(t.Rules) - 1; i >= 0; i-- {
		out = append(out, t.Rules[i].Stage)
	}
	return out
}

// Severity index of stage in Levels, -1 for unknown or foreign stages
func (t Table) Severity(s models.Stage) int {
	for i, l := range t.Levels() {
		if l == s {
			return i
		}
	}
	return -1
}

// Validate checks that the table is well formed
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("threshold table: empty name")
	}
	if t.Floor == "" {
		return fmt.Errorf("threshold table %s: empty floor stage", t.Name)
	}
	seen := map[models.Stage]bool{t.Floor: true}
	for i, r := range t.Rules {
		if r.Stage == "" || r.Stage == models.StageUnknown {
			return fmt.Errorf("threshold table %s: rule %d has no stage", t.Name, i)
		}
		if seen[r.Stage] {
			return fmt.Errorf("threshold table %s: duplicate stage %s", t.Name, r.Stage)
		}
		seen[r.Stage] = true
		if r.Systolic < 0 || r.Diastolic < 0 {
			return fmt.Errorf("threshold table %s: negative threshold in %s", t.Name, r.Stage)
		}
		if r.Systolic == 0 && r.Diastolic == 0 {
			return fmt.Errorf("threshold table %s: rule %s has no thresholds", t.Name, r.Stage)
		}
		switch r.Match {
		case MatchEither, MatchBoth:
		default:
			return fmt.Errorf("threshold table %s: rule %s has unknown match %q", t.Name, r.Stage, r.Match)
		}
		if i > 0 {
			prev := t.Rules[i-1]
			if rises(prev.Systolic, r.Systolic) || rises(prev.Diastolic, r.Diastolic) {
				return fmt.Errorf("threshold table %s: rule %s is stricter than %s, rules must be in descending severity",
					t.Name, r.Stage, prev.Stage)
			}
		}
	}
	return nil
}

// rises reports a threshold increasing from one rule to the next; unchecked sides are skipped
func rises(prev, next int) bool {
	return prev > 0 && next > 0 && next > prev
}
