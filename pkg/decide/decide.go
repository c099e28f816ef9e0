package decide

import (
	"time"

	"github.com/vulntriage/vulntriage/pkg/reason"
)

type Tier string

const (
	TierP0 Tier = "P0"
	TierP1 Tier = "P1"
	TierP2 Tier = "P2"
	TierP3 Tier = "P3"
)

const (
	SLAImmediate  = 24 * time.Hour
	SLAWeek       = 7 * 24 * time.Hour
	SLAMonth      = 30 * 24 * time.Hour
	SLABestEffort = time.Duration(0)
)

// Rule is one row of the decision table. Match must be a pure function of
// its inputs so the classification stays auditable.
type Rule struct {
	Label string
	Tier  Tier
	SLA   time.Duration
	Match func(kevHit bool, s reason.Signals) bool
}

// Rules is evaluated top-down, first match wins. External corroborated
// evidence (KEV, in-the-wild) is ordered before model-inferred signals.
var Rules = []Rule{
	{
		Label: "CISA KEV catalog match",
		Tier:  TierP0,
		SLA:   SLAImmediate,
		Match: func(kevHit bool, s reason.Signals) bool {
			return kevHit
		},
	},
	{
		Label: "exploitation observed in the wild",
		Tier:  TierP0,
		SLA:   SLAImmediate,
		Match: func(kevHit bool, s reason.Signals) bool {
			return s.InTheWild
		},
	},
	{
		Label: "unauthenticated remote code execution against core asset",
		Tier:  TierP0,
		SLA:   SLAImmediate,
		Match: func(kevHit bool, s reason.Signals) bool {
			return s.AssetCriticality == reason.AssetCore &&
				s.RemoteCodeExecution &&
				s.ExploitComplexity == reason.ComplexityNoneRequired
		},
	},
	{
		Label: "remote code execution requiring user interaction",
		Tier:  TierP1,
		SLA:   SLAWeek,
		Match: func(kevHit bool, s reason.Signals) bool {
			return s.RemoteCodeExecution && s.RequiresUserInteraction
		},
	},
	{
		Label: "peripheral developer tool or component",
		Tier:  TierP1,
		SLA:   SLAWeek,
		Match: func(kevHit bool, s reason.Signals) bool {
			return s.AssetCriticality == reason.AssetPeripheral
		},
	},
	{
		Label: "high severity without public exploit",
		Tier:  TierP1,
		SLA:   SLAWeek,
		Match: func(kevHit bool, s reason.Signals) bool {
			return highSeverity(s) && !s.PublicPoC
		},
	},
	{
		Label: "exploitation constrained to specific environment",
		Tier:  TierP2,
		SLA:   SLAMonth,
		Match: func(kevHit bool, s reason.Signals) bool {
			return s.EnvironmentConstraint != ""
		},
	},
	{
		Label: "local exploitation only",
		Tier:  TierP2,
		SLA:   SLAMonth,
		Match: func(kevHit bool, s reason.Signals) bool {
			return s.ExploitComplexity == reason.ComplexityLocal
		},
	},
	{
		Label: "theoretical or low exploitability",
		Tier:  TierP3,
		SLA:   SLABestEffort,
		Match: func(kevHit bool, s reason.Signals) bool {
			return true
		},
	},
}

// highSeverity approximates "high severity" from the signal set: reachable
// over the network or exploitable without preconditions.
func highSeverity(s reason.Signals) bool {
	return s.RemoteCodeExecution ||
		s.ExploitComplexity == reason.ComplexityNetwork ||
		s.ExploitComplexity == reason.ComplexityNoneRequired
}

// Classify assigns the tier of the first matching rule. The rationale holds
// only the matched rule, later rules are not evaluated.
func Classify(kevHit bool, s reason.Signals) (Tier, time.Duration, []string) {
	for _, rule := range Rules {
		if rule.Match(kevHit, s) {
			return rule.Tier, rule.SLA, []string{rule.Label}
		}
	}

	// The default rule matches everything
	last := Rules[len(Rules)-1]
	return last.Tier, last.SLA, []string{last.Label}
}

// SLAString renders the remediation deadline for reports.
func SLAString(sla time.Duration) string {
	switch sla {
	case SLAImmediate:
		return "24h"
	case SLAWeek:
		return "7d"
	case SLAMonth:
		return "30d"
	default:
		return "best-effort"
	}
}
