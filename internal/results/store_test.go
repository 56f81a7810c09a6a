package results_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metassr/bench/internal/candidates"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

func testCandidate(key string, port int) candidates.Candidate {
	return candidates.Candidate{Key: key, Name: key, Port: port}
}

func okResult(sc scenario.Scenario, rps float64) results.ScenarioResult {
	return results.ScenarioResult{
		Scenario: sc,
		Metrics:  &wrk.MetricRecord{RequestsPerSec: rps, Raw: "raw"},
	}
}

func TestStoreRecordsInOrder(t *testing.T) {
	s := results.NewStore("local", "http://localhost:8080")
	require.NoError(t, s.AddCandidate(testCandidate("a", 8080)))

	for _, sc := range scenario.Catalog() {
		require.NoError(t, s.Record("a", okResult(sc, 100)))
	}

	b := s.Bundle()
	require.NotEmpty(t, b.RunID)
	require.Len(t, b.Entries, 1)
	require.Len(t, b.Entries[0].Results, 4)
	require.Equal(t, "Light", b.Entries[0].Results[0].Scenario.Name)
	require.Equal(t, "Stress", b.Entries[0].Results[3].Scenario.Name)
}

func TestStoreRejectsDuplicatePair(t *testing.T) {
	s := results.NewStore("local", "")
	require.NoError(t, s.AddCandidate(testCandidate("a", 8080)))

	sc := scenario.Catalog()[0]
	require.NoError(t, s.Record("a", okResult(sc, 100)))
	require.Error(t, s.Record("a", okResult(sc, 200)))
}

func TestStoreRejectsUnknownCandidate(t *testing.T) {
	s := results.NewStore("local", "")
	require.Error(t, s.Record("ghost", okResult(scenario.Catalog()[0], 1)))
}

func TestStoreRejectsDuplicateCandidate(t *testing.T) {
	s := results.NewStore("local", "")
	require.NoError(t, s.AddCandidate(testCandidate("a", 8080)))
	require.Error(t, s.AddCandidate(testCandidate("a", 8081)))
}

func TestFailureSentinelKeepsEveryCandidate(t *testing.T) {
	s := results.NewStore("local", "")
	require.NoError(t, s.AddCandidate(testCandidate("a", 8080)))
	require.NoError(t, s.AddCandidate(testCandidate("b", 3001)))

	for _, sc := range scenario.Catalog() {
		require.NoError(t, s.Record("a", okResult(sc, 100)))
	}
	require.NoError(t, s.MarkFailed("b", results.StatusBuildFailed, "npm install exploded"))

	b := s.Bundle()
	require.Len(t, b.Entries, 2)
	require.Equal(t, results.StatusOK, b.Entries[0].Status)
	require.Equal(t, results.StatusBuildFailed, b.Entries[1].Status)
	require.Empty(t, b.Entries[1].Results)
	require.Equal(t, "npm install exploded", b.Entries[1].Failure)
}

func TestLoadRejectsMalformedInput(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := results.Load(path)
	var malformed *results.MalformedInputError
	require.ErrorAs(t, err, &malformed)

	path = filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err = results.Load(path)
	require.ErrorAs(t, err, &malformed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := results.Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	var malformed *results.MalformedInputError
	require.False(t, errors.As(err, &malformed))
}
