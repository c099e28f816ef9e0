package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vulntriage/vulntriage/internal/pipeline"
	"github.com/vulntriage/vulntriage/pkg/assess"
	"github.com/vulntriage/vulntriage/pkg/decide"
	"github.com/vulntriage/vulntriage/pkg/llm"
	"github.com/vulntriage/vulntriage/pkg/reason"
)

func result(tier decide.Tier) pipeline.Result {
	return pipeline.Result{
		Assessment: &assess.Assessment{Tier: tier},
	}
}

func TestSortTier(t *testing.T) {
	results := []pipeline.Result{
		result(decide.TierP3),
		{Err: errors.New("backend down")},
		result(decide.TierP0),
		result(decide.TierP2),
		result(decide.TierP1),
	}

	sortTier(results)

	wantOrder := []decide.Tier{decide.TierP0, decide.TierP1, decide.TierP2, decide.TierP3}
	for i, want := range wantOrder {
		if results[i].Err != nil || results[i].Assessment.Tier != want {
			t.Errorf("sortTier() position %d = %+v, want %v", i, results[i], want)
		}
	}

	if results[4].Err == nil {
		t.Errorf("sortTier() failed item is not last")
	}
}

func TestFailLine(t *testing.T) {
	type args struct {
		err error
	}

	tests := []struct {
		name     string
		args     args
		wantHint bool
	}{
		{name: "malformed", args: args{err: fmt.Errorf("%w: missing field", reason.ErrMalformedJudgement)}, wantHint: true},
		{name: "backendDown", args: args{err: llm.ErrBackendUnavailable}, wantHint: true},
		{name: "internal", args: args{err: errors.New("missing rationale")}, wantHint: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pipeline.Result{
				Record: assess.Record{CVEID: "CVE-2021-41773"},
				Err:    tt.args.err,
			}

			line := failLine(r)
			if !strings.Contains(line, "CVE-2021-41773") {
				t.Errorf("failLine() lost the identifier: %v", line)
			}
			if got := strings.Contains(line, "rerun this item manually"); got != tt.wantHint {
				t.Errorf("failLine() hint = %v, want %v", got, tt.wantHint)
			}
		})
	}
}
