package assess

import (
	"testing"

	"github.com/vulntriage/vulntriage/pkg/decide"
	"github.com/vulntriage/vulntriage/pkg/kev"
	"github.com/vulntriage/vulntriage/pkg/reason"
)

func TestNewRecord(t *testing.T) {
	type args struct {
		cveID string
	}

	tests := []struct {
		name    string
		args    args
		want    string
		wantErr bool
	}{
		{name: "canonical", args: args{cveID: "CVE-2021-41773"}, want: "CVE-2021-41773"},
		{name: "lowercase", args: args{cveID: "cve-2024-3400"}, want: "CVE-2024-3400"},
		{name: "padded", args: args{cveID: "  CVE-2025-34351 "}, want: "CVE-2025-34351"},
		{name: "longSequence", args: args{cveID: "CVE-2024-1234567"}, want: "CVE-2024-1234567"},
		{name: "tooShort", args: args{cveID: "CVE-2024-1"}, wantErr: true},
		{name: "garbage", args: args{cveID: "GHSA-xxxx-yyyy"}, wantErr: true},
		{name: "empty", args: args{cveID: ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecord(tt.args.cveID, "description")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRecord() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && rec.CVEID != tt.want {
				t.Errorf("NewRecord() got = %v, want %v", rec.CVEID, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	rec, _ := NewRecord("CVE-2021-41773", "path traversal")
	signals := &reason.Signals{
		ExploitComplexity: reason.ComplexityNetwork,
		AssetCriticality:  reason.AssetCore,
	}

	entry := &kev.Entry{CVEID: "CVE-2021-41773"}

	a, err := Build(rec, entry, true, nil, signals, decide.TierP0, decide.SLAImmediate, []string{"CISA KEV catalog match"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !a.KevHit {
		t.Errorf("Build() kev hit not derived from the entry")
	}
	if !a.KevStale {
		t.Errorf("Build() staleness flag lost")
	}
	if a.Evidence == nil {
		t.Errorf("Build() evidence is nil, want empty list")
	}
	if a.GeneratedAt.IsZero() {
		t.Errorf("Build() timestamp missing")
	}
}

func TestBuildMissingInputs(t *testing.T) {
	rec, _ := NewRecord("CVE-2021-41773", "desc")
	signals := &reason.Signals{}

	if _, err := Build(Record{}, nil, false, nil, signals, decide.TierP3, 0, []string{"r"}); err == nil {
		t.Errorf("Build() accepted an empty record")
	}
	if _, err := Build(rec, nil, false, nil, nil, decide.TierP3, 0, []string{"r"}); err == nil {
		t.Errorf("Build() accepted nil signals")
	}
	if _, err := Build(rec, nil, false, nil, signals, "", 0, []string{"r"}); err == nil {
		t.Errorf("Build() accepted an empty tier")
	}
	if _, err := Build(rec, nil, false, nil, signals, decide.TierP3, 0, nil); err == nil {
		t.Errorf("Build() accepted an empty rationale")
	}
}
