package results_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

func metric(rps float64, p99 time.Duration) *wrk.MetricRecord {
	return &wrk.MetricRecord{
		RequestsPerSec: rps,
		Latency:        wrk.Latency{P99: p99},
		Raw:            "raw",
	}
}

func bundleWith(t *testing.T, perCandidate map[string]*wrk.MetricRecord, order []string) results.Bundle {
	t.Helper()
	s := results.NewStore("local", "")
	sc := scenario.Catalog()[0]
	for _, key := range order {
		require.NoError(t, s.AddCandidate(testCandidate(key, 1000+len(key))))
	}
	for _, key := range order {
		require.NoError(t, s.Record(key, results.ScenarioResult{Scenario: sc, Metrics: perCandidate[key]}))
	}
	return s.Bundle()
}

func TestCompareRanksByRequestsPerSec(t *testing.T) {
	b := bundleWith(t, map[string]*wrk.MetricRecord{
		"slow":   metric(100, 10*time.Millisecond),
		"fast":   metric(300, 10*time.Millisecond),
		"medium": metric(200, 10*time.Millisecond),
	}, []string{"slow", "fast", "medium"})

	cmp := results.Compare(b)
	require.Equal(t, "slow", cmp.Baseline)
	require.Len(t, cmp.Scenarios, 1)

	ranked := cmp.Scenarios[0].Ranked
	require.Equal(t, []string{"fast", "medium", "slow"},
		[]string{ranked[0].Key, ranked[1].Key, ranked[2].Key})
}

func TestCompareTieBreaksOnP99ThenName(t *testing.T) {
	b := bundleWith(t, map[string]*wrk.MetricRecord{
		"bravo":   metric(200, 30*time.Millisecond),
		"alpha":   metric(200, 30*time.Millisecond),
		"charlie": metric(200, 10*time.Millisecond),
	}, []string{"bravo", "alpha", "charlie"})

	ranked := results.Compare(b).Scenarios[0].Ranked
	// same RPS: lower p99 wins, then lexical order
	require.Equal(t, []string{"charlie", "alpha", "bravo"},
		[]string{ranked[0].Key, ranked[1].Key, ranked[2].Key})
}

func TestCompareDeltasAgainstBaseline(t *testing.T) {
	b := bundleWith(t, map[string]*wrk.MetricRecord{
		"base":  metric(200, time.Millisecond),
		"other": metric(300, time.Millisecond),
	}, []string{"base", "other"})

	ranked := results.Compare(b).Scenarios[0].Ranked
	require.Equal(t, "other", ranked[0].Key)
	require.NotNil(t, ranked[0].DeltaPct)
	require.InDelta(t, 50.0, *ranked[0].DeltaPct, 0.001)
	require.Nil(t, ranked[1].DeltaPct)
}

func TestCompareNoDeltaWithoutBaselineData(t *testing.T) {
	s := results.NewStore("local", "")
	sc := scenario.Catalog()[0]
	require.NoError(t, s.AddCandidate(testCandidate("base", 8080)))
	require.NoError(t, s.AddCandidate(testCandidate("other", 3001)))
	require.NoError(t, s.Record("base", results.ScenarioResult{
		Scenario: sc,
		ErrKind:  "process_failed",
		Err:      "wrk exited with code 1",
	}))
	require.NoError(t, s.Record("other", results.ScenarioResult{Scenario: sc, Metrics: metric(300, time.Millisecond)}))

	ranked := results.Compare(s.Bundle()).Scenarios[0].Ranked
	require.Equal(t, "other", ranked[0].Key)
	// the baseline failed this scenario, so a percent delta would be
	// meaningless rather than zero
	require.Nil(t, ranked[0].DeltaPct)
}

func TestCompareFailedCandidatesRankLast(t *testing.T) {
	s := results.NewStore("local", "")
	sc := scenario.Catalog()[0]
	require.NoError(t, s.AddCandidate(testCandidate("ok", 8080)))
	require.NoError(t, s.AddCandidate(testCandidate("broken", 3001)))
	require.NoError(t, s.Record("ok", results.ScenarioResult{Scenario: sc, Metrics: metric(100, time.Millisecond)}))
	require.NoError(t, s.MarkFailed("broken", results.StatusBuildFailed, "boom"))

	ranked := results.Compare(s.Bundle()).Scenarios[0].Ranked
	require.Len(t, ranked, 2)
	require.Equal(t, "ok", ranked[0].Key)
	require.True(t, ranked[1].Failed)
	require.Equal(t, "build_failed", ranked[1].Reason)
}

func TestPctDiff(t *testing.T) {
	require.InDelta(t, 50.0, results.PctDiff(300, 200), 0.001)
	require.InDelta(t, -25.0, results.PctDiff(150, 200), 0.001)
	require.Zero(t, results.PctDiff(100, 0))
}
