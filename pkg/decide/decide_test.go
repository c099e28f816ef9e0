package decide

import (
	"reflect"
	"testing"
	"time"

	"github.com/vulntriage/vulntriage/pkg/reason"
)

func TestClassify(t *testing.T) {
	type args struct {
		kevHit  bool
		signals reason.Signals
	}

	tests := []struct {
		name          string
		args          args
		wantTier      Tier
		wantSLA       time.Duration
		wantRationale string
	}{
		{
			name: "kevMatch",
			args: args{
				kevHit: true,
				signals: reason.Signals{
					ExploitComplexity: reason.ComplexityPhysical,
					AssetCriticality:  reason.AssetUnknown,
				},
			},
			wantTier:      TierP0,
			wantSLA:       SLAImmediate,
			wantRationale: "CISA KEV catalog match",
		},
		{
			name: "inTheWild",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity: reason.ComplexityNetwork,
					AssetCriticality:  reason.AssetUnknown,
					InTheWild:         true,
				},
			},
			wantTier:      TierP0,
			wantSLA:       SLAImmediate,
			wantRationale: "exploitation observed in the wild",
		},
		{
			name: "unauthenticatedRceOnCoreAsset",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity:   reason.ComplexityNoneRequired,
					AssetCriticality:    reason.AssetCore,
					RemoteCodeExecution: true,
				},
			},
			wantTier:      TierP0,
			wantSLA:       SLAImmediate,
			wantRationale: "unauthenticated remote code execution against core asset",
		},
		{
			name: "rceWithInteractionBeforePeripheral",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity:       reason.ComplexityNetwork,
					AssetCriticality:        reason.AssetPeripheral,
					RemoteCodeExecution:     true,
					RequiresUserInteraction: true,
				},
			},
			wantTier:      TierP1,
			wantSLA:       SLAWeek,
			wantRationale: "remote code execution requiring user interaction",
		},
		{
			name: "peripheralComponent",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity: reason.ComplexityLocal,
					AssetCriticality:  reason.AssetPeripheral,
				},
			},
			wantTier:      TierP1,
			wantSLA:       SLAWeek,
			wantRationale: "peripheral developer tool or component",
		},
		{
			name: "highSeverityWithoutPoc",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity: reason.ComplexityNetwork,
					AssetCriticality:  reason.AssetUnknown,
					PublicPoC:         false,
				},
			},
			wantTier:      TierP1,
			wantSLA:       SLAWeek,
			wantRationale: "high severity without public exploit",
		},
		{
			name: "environmentConstraintBeforeLocal",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity:     reason.ComplexityLocal,
					AssetCriticality:      reason.AssetUnknown,
					EnvironmentConstraint: "windows-only",
				},
			},
			wantTier:      TierP2,
			wantSLA:       SLAMonth,
			wantRationale: "exploitation constrained to specific environment",
		},
		{
			name: "localOnly",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity: reason.ComplexityLocal,
					AssetCriticality:  reason.AssetUnknown,
				},
			},
			wantTier:      TierP2,
			wantSLA:       SLAMonth,
			wantRationale: "local exploitation only",
		},
		{
			name: "theoretical",
			args: args{
				kevHit: false,
				signals: reason.Signals{
					ExploitComplexity: reason.ComplexityPhysical,
					AssetCriticality:  reason.AssetUnknown,
					PublicPoC:         true,
				},
			},
			wantTier:      TierP3,
			wantSLA:       SLABestEffort,
			wantRationale: "theoretical or low exploitability",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, sla, rationale := Classify(tt.args.kevHit, tt.args.signals)

			if tier != tt.wantTier {
				t.Errorf("Classify() tier = %v, want %v", tier, tt.wantTier)
			}
			if sla != tt.wantSLA {
				t.Errorf("Classify() sla = %v, want %v", sla, tt.wantSLA)
			}
			if len(rationale) != 1 || rationale[0] != tt.wantRationale {
				t.Errorf("Classify() rationale = %v, want [%v]", rationale, tt.wantRationale)
			}
		})
	}
}

// A KEV hit assigns P0 regardless of every other signal value
func TestKevDominance(t *testing.T) {
	signalSets := []reason.Signals{
		{ExploitComplexity: reason.ComplexityPhysical, AssetCriticality: reason.AssetUnknown},
		{ExploitComplexity: reason.ComplexityLocal, AssetCriticality: reason.AssetPeripheral},
		{ExploitComplexity: reason.ComplexityNetwork, AssetCriticality: reason.AssetCore,
			RemoteCodeExecution: true, RequiresUserInteraction: true, PublicPoC: true, InTheWild: true},
		{ExploitComplexity: reason.ComplexityNoneRequired, AssetCriticality: reason.AssetUnknown,
			EnvironmentConstraint: "windows-only"},
	}

	for _, s := range signalSets {
		tier, sla, rationale := Classify(true, s)

		if tier != TierP0 || sla != SLAImmediate {
			t.Errorf("Classify(kev) = %v/%v with signals %+v, want P0/24h", tier, sla, s)
		}
		if !reflect.DeepEqual(rationale, []string{"CISA KEV catalog match"}) {
			t.Errorf("Classify(kev) rationale = %v", rationale)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	s := reason.Signals{
		ExploitComplexity:   reason.ComplexityNetwork,
		AssetCriticality:    reason.AssetCore,
		RemoteCodeExecution: true,
	}

	tier1, sla1, rationale1 := Classify(false, s)
	tier2, sla2, rationale2 := Classify(false, s)

	if tier1 != tier2 || sla1 != sla2 || !reflect.DeepEqual(rationale1, rationale2) {
		t.Errorf("Classify() is not deterministic")
	}
}

func TestSLAString(t *testing.T) {
	type args struct {
		sla time.Duration
	}

	tests := []struct {
		name string
		args args
		want string
	}{
		{name: "immediate", args: args{sla: SLAImmediate}, want: "24h"},
		{name: "week", args: args{sla: SLAWeek}, want: "7d"},
		{name: "month", args: args{sla: SLAMonth}, want: "30d"},
		{name: "bestEffort", args: args{sla: SLABestEffort}, want: "best-effort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SLAString(tt.args.sla); got != tt.want {
				t.Errorf("SLAString() got = %v, want %v", got, tt.want)
			}
		})
	}
}
