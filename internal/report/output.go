package report

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vulntriage/vulntriage/config"
	"github.com/vulntriage/vulntriage/internal/pipeline"
	"github.com/vulntriage/vulntriage/pkg/assess"
	"github.com/vulntriage/vulntriage/pkg/decide"
	"github.com/vulntriage/vulntriage/pkg/reason"
)

// sortTier orders the assessments by descending urgency, failed items last
func sortTier(results []pipeline.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Err != nil || results[j].Err != nil {
			return results[j].Err != nil && results[i].Err == nil
		}
		return config.TierRank[string(results[i].Assessment.Tier)] >
			config.TierRank[string(results[j].Assessment.Tier)]
	})
}

// ResolveTriageData print the result of a triage run
func ResolveTriageData(ctx context.Context, results []pipeline.Result) error {

	sortTier(results)

	p0, p1, p2, p3, failed := 0, 0, 0, 0, 0

	for _, r := range results {
		if r.Err != nil {
			failed += 1
			continue
		}

		switch r.Assessment.Tier {
		case decide.TierP0:
			p0 += 1
		case decide.TierP1:
			p1 += 1
		case decide.TierP2:
			p2 += 1
		case decide.TierP3:
			p3 += 1
		default:
			// ignore
		}
	}

	fmt.Printf("\nTriaged %s vulnerabilities | "+
		"P0: %s P1: %s P2: %s P3: %s Failed: %d\n\n",
		config.Yellow(len(results)),
		config.Red(p0),
		config.Pink(p1),
		config.Yellow(p2),
		config.Green(p3),
		failed)

	table := tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"ID", "CVE", "Tier", "SLA", "KEV", "Signals", "Rationale"})
	table.SetRowLine(true)

	for i, r := range results {
		if r.Err != nil {
			continue
		}

		a := r.Assessment

		kevCell := "no"
		if a.KevHit {
			kevCell = "yes"
			if a.KevEntry.KnownRansomware {
				kevCell = "yes (ransomware)"
			}
			if a.KevEntry.DueDate != "" {
				kevCell += fmt.Sprintf("\ndue %s", a.KevEntry.DueDate)
			}
		}
		if a.KevStale {
			kevCell += " [stale]"
		}

		row := []string{
			strconv.Itoa(i + 1), a.Record.CVEID,
			judgeTier(a.Tier), decide.SLAString(a.SLA),
			kevCell, signalSummary(a),
			strings.Join(a.Rationale, "; "),
		}

		table.Append(row)
	}

	table.Render()

	for _, r := range results {
		if r.Err == nil {
			continue
		}
		fmt.Println(failLine(r))
	}

	return nil
}

// failLine renders one failed item. Items failed with a known error kind
// are only retried on explicit user action, the hint points there.
func failLine(r pipeline.Result) string {
	line := fmt.Sprintf("%s %s: %v", config.Red("Failed"), r.Record.CVEID, r.Err)
	if reason.IsFatal(r.Err) {
		line += " (rerun this item manually)"
	}
	return line
}

func signalSummary(a *assess.Assessment) string {
	s := a.Signals

	parts := []string{
		fmt.Sprintf("complexity: %s", s.ExploitComplexity),
		fmt.Sprintf("asset: %s", s.AssetCriticality),
	}

	if s.RemoteCodeExecution {
		parts = append(parts, "rce")
	}
	if s.RequiresUserInteraction {
		parts = append(parts, "user interaction")
	}
	if s.PublicPoC {
		parts = append(parts, "public poc")
	}
	if s.InTheWild {
		parts = append(parts, "in the wild")
	}
	if s.EnvironmentConstraint != "" {
		parts = append(parts, s.EnvironmentConstraint)
	}

	return strings.Join(parts, "\n")
}

func judgeTier(tier decide.Tier) string {

	switch tier {
	case decide.TierP0:
		return config.Red(string(tier))
	case decide.TierP1:
		return config.Pink(string(tier))
	case decide.TierP2:
		return config.Yellow(string(tier))
	case decide.TierP3:
		return config.Green(string(tier))
	default:
		// ignore
	}
	return string(tier)
}
