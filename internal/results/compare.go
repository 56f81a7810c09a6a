package results

import (
	"sort"
	"time"

	"github.com/metassr/bench/internal/scenario"
)

// RankedResult is one candidate's standing within a scenario ranking.
type RankedResult struct {
	Key            string        `json:"key"`
	Name           string        `json:"name"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	P99            time.Duration `json:"p99_ns"`
	// DeltaPct is the requests/sec difference against the baseline
	// candidate, in percent. Nil for the baseline itself and when the
	// baseline has no data for the scenario, so "equal to baseline" and
	// "no baseline to compare against" stay distinguishable.
	DeltaPct *float64 `json:"delta_pct,omitempty"`
	Failed   bool     `json:"failed"`
	Reason   string   `json:"reason,omitempty"`
}

type ScenarioRanking struct {
	Scenario scenario.Scenario `json:"scenario"`
	Ranked   []RankedResult    `json:"ranked"`
}

// Comparison is the analyzer view over a multi-candidate bundle.
type Comparison struct {
	Baseline  string            `json:"baseline"`
	Scenarios []ScenarioRanking `json:"scenarios"`
}

// Compare ranks candidates per scenario by requests/sec descending.
// Ties break on lower p99 latency, then lexical name, so rankings are
// fully deterministic. The baseline is the first configured candidate.
func Compare(b Bundle) Comparison {
	cmp := Comparison{}
	if len(b.Entries) == 0 {
		return cmp
	}
	cmp.Baseline = b.Entries[0].Candidate.Key

	for _, sc := range scenariosOf(b) {
		ranking := ScenarioRanking{Scenario: sc}

		var baselineRPS float64
		baselineOK := false
		if res, ok := findResult(b.Entries[0], sc.Name); ok && !res.Failed() && b.Entries[0].Status == StatusOK {
			baselineRPS = res.Metrics.RequestsPerSec
			baselineOK = true
		}

		for _, e := range b.Entries {
			r := RankedResult{Key: e.Candidate.Key, Name: e.Candidate.Name}
			res, ok := findResult(e, sc.Name)
			switch {
			case e.Status != StatusOK:
				r.Failed = true
				r.Reason = string(e.Status)
			case !ok:
				r.Failed = true
				r.Reason = "no data"
			case res.Failed():
				r.Failed = true
				r.Reason = res.ErrKind
			default:
				r.RequestsPerSec = res.Metrics.RequestsPerSec
				r.P99 = res.Metrics.Latency.P99
				if e.Candidate.Key != cmp.Baseline && baselineOK {
					d := PctDiff(r.RequestsPerSec, baselineRPS)
					r.DeltaPct = &d
				}
			}
			ranking.Ranked = append(ranking.Ranked, r)
		}

		sort.SliceStable(ranking.Ranked, func(i, j int) bool {
			a, b := ranking.Ranked[i], ranking.Ranked[j]
			if a.Failed != b.Failed {
				return !a.Failed
			}
			if a.Failed {
				return a.Key < b.Key
			}
			if a.RequestsPerSec != b.RequestsPerSec {
				return a.RequestsPerSec > b.RequestsPerSec
			}
			if a.P99 != b.P99 {
				return a.P99 < b.P99
			}
			return a.Key < b.Key
		})

		cmp.Scenarios = append(cmp.Scenarios, ranking)
	}
	return cmp
}

// PctDiff returns how much a differs from base, in percent of base.
func PctDiff(a, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (a - base) / base * 100
}

// scenariosOf returns the scenario set of the bundle in first-seen
// order, falling back to the catalog when no entry has data.
func scenariosOf(b Bundle) []scenario.Scenario {
	seen := map[string]bool{}
	var out []scenario.Scenario
	for _, e := range b.Entries {
		for _, r := range e.Results {
			if !seen[r.Scenario.Name] {
				seen[r.Scenario.Name] = true
				out = append(out, r.Scenario)
			}
		}
	}
	if len(out) == 0 {
		return scenario.Catalog()
	}
	return out
}

func findResult(e Entry, scenarioName string) (ScenarioResult, bool) {
	for _, r := range e.Results {
		if r.Scenario.Name == scenarioName {
			return r, true
		}
	}
	return ScenarioResult{}, false
}
