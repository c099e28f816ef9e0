package reason

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedJudgement reports reasoning output which failed schema
// validation after the built-in retry. No assessment is produced then.
var ErrMalformedJudgement = errors.New("malformed judgement")

type ExploitComplexity string

const (
	ComplexityNoneRequired ExploitComplexity = "none-required"
	ComplexityLocal        ExploitComplexity = "local"
	ComplexityNetwork      ExploitComplexity = "network"
	ComplexityPhysical     ExploitComplexity = "physical"
)

type AssetCriticality string

const (
	AssetCore       AssetCriticality = "core"
	AssetPeripheral AssetCriticality = "peripheral"
	AssetUnknown    AssetCriticality = "unknown"
)

// Signals is the fixed schema of the reasoning output. Every field must be
// populated from its declared domain, there is no safe default.
type Signals struct {
	ExploitComplexity       ExploitComplexity `json:"exploit_complexity"`
	RequiresUserInteraction bool              `json:"requires_user_interaction"`
	RemoteCodeExecution     bool              `json:"remote_code_execution"`
	AssetCriticality        AssetCriticality  `json:"asset_criticality"`
	PublicPoC               bool              `json:"public_poc"`
	InTheWild               bool              `json:"in_the_wild"`
	EnvironmentConstraint   string            `json:"environment_constraint,omitempty"`
}

var complexityDomain = map[string]ExploitComplexity{
	"none-required": ComplexityNoneRequired,
	"local":         ComplexityLocal,
	"network":       ComplexityNetwork,
	"physical":      ComplexityPhysical,
}

var criticalityDomain = map[string]AssetCriticality{
	"core":       AssetCore,
	"peripheral": AssetPeripheral,
	"unknown":    AssetUnknown,
}

// parseSignals validates the model text against the schema. Missing or
// out-of-domain fields are rejected, never defaulted.
func parseSignals(text string) (*Signals, error) {
	doc, ok := extractJSON(text)
	if !ok {
		return nil, errors.New("no json object in response")
	}

	s := &Signals{}

	complexity := doc.Get("exploit_complexity")
	if !complexity.Exists() {
		return nil, errors.New("missing field exploit_complexity")
	}
	c, ok := complexityDomain[strings.ToLower(complexity.String())]
	if !ok {
		return nil, fmt.Errorf("exploit_complexity %q out of domain", complexity.String())
	}
	s.ExploitComplexity = c

	criticality := doc.Get("asset_criticality")
	if !criticality.Exists() {
		return nil, errors.New("missing field asset_criticality")
	}
	a, ok := criticalityDomain[strings.ToLower(criticality.String())]
	if !ok {
		return nil, fmt.Errorf("asset_criticality %q out of domain", criticality.String())
	}
	s.AssetCriticality = a

	for field, target := range map[string]*bool{
		"requires_user_interaction": &s.RequiresUserInteraction,
		"remote_code_execution":     &s.RemoteCodeExecution,
		"public_poc":                &s.PublicPoC,
		"in_the_wild":               &s.InTheWild,
	} {
		v := doc.Get(field)
		if !v.Exists() {
			return nil, fmt.Errorf("missing field %s", field)
		}
		if v.Type != gjson.True && v.Type != gjson.False {
			return nil, fmt.Errorf("field %s is not a boolean", field)
		}
		*target = v.Bool()
	}

	constraint := doc.Get("environment_constraint")
	if constraint.Exists() && constraint.Type == gjson.String {
		s.EnvironmentConstraint = strings.TrimSpace(constraint.String())
	}

	return s, nil
}

var jsonBlockRegex = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSON digs the json object out of the model text, which may wrap it
// in markdown fences or prose.
func extractJSON(text string) (gjson.Result, bool) {
	if gjson.Valid(text) {
		return gjson.Parse(text), true
	}

	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if gjson.Valid(clean) {
		return gjson.Parse(clean), true
	}

	if block := jsonBlockRegex.FindString(text); block != "" && gjson.Valid(block) {
		return gjson.Parse(block), true
	}

	return gjson.Result{}, false
}
