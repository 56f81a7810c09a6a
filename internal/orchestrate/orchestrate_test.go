package orchestrate_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/metassr/bench/internal/candidates"
	"github.com/metassr/bench/internal/orchestrate"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/server"
	"github.com/metassr/bench/internal/wrk"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeLifecycle struct {
	buildErr map[string]error
	startErr map[string]error
	up       bool

	builds   []string
	starts   []string
	attaches []string
	stops    []string
}

func (f *fakeLifecycle) Build(_ context.Context, cand candidates.Candidate, _ server.Mode) error {
	f.builds = append(f.builds, cand.Key)
	return f.buildErr[cand.Key]
}

func (f *fakeLifecycle) Start(_ context.Context, cand candidates.Candidate, mode server.Mode) (*server.Handle, error) {
	if err := f.startErr[cand.Key]; err != nil {
		return nil, err
	}
	f.starts = append(f.starts, cand.Key)
	return &server.Handle{Candidate: cand, Mode: mode, BaseURL: cand.BaseURL()}, nil
}

func (f *fakeLifecycle) Attach(_ context.Context, cand candidates.Candidate) (*server.Handle, error) {
	f.attaches = append(f.attaches, cand.Key)
	return &server.Handle{Candidate: cand, Mode: server.ModeLocal, BaseURL: cand.BaseURL()}, nil
}

func (f *fakeLifecycle) Stop(handle *server.Handle) {
	f.stops = append(f.stops, handle.Candidate.Key)
}

func (f *fakeLifecycle) IsUp(context.Context, string) bool { return f.up }

func (f *fakeLifecycle) Warmup(context.Context, string, int) {}

type fakeDriver struct {
	checkErr error
	run      func(sc scenario.Scenario, url string) (*wrk.MetricRecord, error)
}

func (f *fakeDriver) Check() error { return f.checkErr }

func (f *fakeDriver) Run(_ context.Context, sc scenario.Scenario, url string) (*wrk.MetricRecord, error) {
	return f.run(sc, url)
}

type nopGatherer struct{}

func (nopGatherer) StartRun(string)                  {}
func (nopGatherer) StartCandidate(string, string)    {}
func (nopGatherer) StartBuild(string)                {}
func (nopGatherer) FinishBuild(string, error)        {}
func (nopGatherer) StartScenario(string, scenario.Scenario) {}
func (nopGatherer) FinishScenario(string, scenario.Scenario, *wrk.MetricRecord, error) {
}
func (nopGatherer) FinishCandidate(string, results.EntryStatus) {}
func (nopGatherer) FinishRun(error)                             {}

func okDriver() *fakeDriver {
	return &fakeDriver{run: func(sc scenario.Scenario, _ string) (*wrk.MetricRecord, error) {
		return &wrk.MetricRecord{RequestsPerSec: 100, Raw: "ok"}, nil
	}}
}

func twoCandidates() []candidates.Candidate {
	return []candidates.Candidate{
		{Key: "a", Name: "A", Port: 8080},
		{Key: "b", Name: "B", Port: 3001},
	}
}

func newOrchestrator(lc *fakeLifecycle, d *fakeDriver) (*orchestrate.Orchestrator, *results.Store) {
	store := results.NewStore("local", "")
	return orchestrate.New(lc, d, store, nopGatherer{}, testLogger()), store
}

func TestBuildFailureYieldsSentinelAndRunContinues(t *testing.T) {
	lc := &fakeLifecycle{buildErr: map[string]error{
		"a": &server.BuildError{Candidate: "a", Err: os.ErrPermission},
	}}
	orch, _ := newOrchestrator(lc, okDriver())

	bundle, err := orch.Run(context.Background(), twoCandidates(), orchestrate.Options{Mode: server.ModeLocal})
	require.NoError(t, err)

	require.Len(t, bundle.Entries, 2)
	require.Equal(t, results.StatusBuildFailed, bundle.Entries[0].Status)
	require.Empty(t, bundle.Entries[0].Results)
	require.Equal(t, results.StatusOK, bundle.Entries[1].Status)
	require.Len(t, bundle.Entries[1].Results, 4)

	// the failed candidate never started, so only b was stopped
	require.Equal(t, []string{"b"}, lc.stops)
}

func TestStartFailureYieldsSentinel(t *testing.T) {
	lc := &fakeLifecycle{startErr: map[string]error{
		"b": &server.StartError{Candidate: "b", Reason: server.NotReady},
	}}
	orch, _ := newOrchestrator(lc, okDriver())

	bundle, err := orch.Run(context.Background(), twoCandidates(), orchestrate.Options{Mode: server.ModeLocal})
	require.NoError(t, err)

	require.Equal(t, results.StatusOK, bundle.Entries[0].Status)
	require.Equal(t, results.StatusStartFailed, bundle.Entries[1].Status)
	require.Equal(t, []string{"a"}, lc.stops)
}

func TestScenarioFailureContinuesWithNextScenario(t *testing.T) {
	d := &fakeDriver{run: func(sc scenario.Scenario, _ string) (*wrk.MetricRecord, error) {
		if sc.Name == "Medium" {
			return nil, &wrk.ProcessError{ExitCode: 1, Stderr: "boom"}
		}
		return &wrk.MetricRecord{RequestsPerSec: 100, Raw: "ok"}, nil
	}}
	lc := &fakeLifecycle{}
	orch, _ := newOrchestrator(lc, d)

	bundle, err := orch.Run(context.Background(),
		[]candidates.Candidate{{Key: "a", Name: "A", Port: 8080}},
		orchestrate.Options{Mode: server.ModeLocal})
	require.NoError(t, err)

	entry := bundle.Entries[0]
	require.Equal(t, results.StatusOK, entry.Status)
	require.Len(t, entry.Results, 4)
	require.False(t, entry.Results[0].Failed())
	require.True(t, entry.Results[1].Failed())
	require.Equal(t, "process_failed", entry.Results[1].ErrKind)
	require.False(t, entry.Results[2].Failed())
	require.False(t, entry.Results[3].Failed())
}

func TestToolNotFoundAbortsRun(t *testing.T) {
	lc := &fakeLifecycle{}
	orch, _ := newOrchestrator(lc, &fakeDriver{checkErr: wrk.ErrToolNotFound})

	_, err := orch.Run(context.Background(), twoCandidates(), orchestrate.Options{Mode: server.ModeLocal})
	require.ErrorIs(t, err, wrk.ErrToolNotFound)
	require.Empty(t, lc.builds)
	require.Empty(t, lc.starts)
}

func TestCancellationStillStopsHandle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	d := &fakeDriver{run: func(sc scenario.Scenario, _ string) (*wrk.MetricRecord, error) {
		if sc.Name == "Medium" {
			cancel()
			return nil, wrk.ErrCancelled
		}
		return &wrk.MetricRecord{RequestsPerSec: 100, Raw: "ok"}, nil
	}}
	lc := &fakeLifecycle{}
	orch, _ := newOrchestrator(lc, d)

	bundle, err := orch.Run(ctx,
		[]candidates.Candidate{{Key: "a", Name: "A", Port: 8080}},
		orchestrate.Options{Mode: server.ModeLocal})
	require.Error(t, err)

	entry := bundle.Entries[0]
	require.Len(t, entry.Results, 2)
	require.False(t, entry.Results[0].Failed())
	require.Equal(t, "cancelled", entry.Results[1].ErrKind)
	// the lighter scenarios' data survived and the server was stopped
	require.Equal(t, []string{"a"}, lc.stops)
}

func TestAttachRunningSkipsBuildAndStart(t *testing.T) {
	lc := &fakeLifecycle{up: true}
	orch, _ := newOrchestrator(lc, okDriver())

	bundle, err := orch.Run(context.Background(),
		[]candidates.Candidate{{Key: "a", Name: "A", Port: 8080}},
		orchestrate.Options{Mode: server.ModeLocal, AttachRunning: true})
	require.NoError(t, err)

	require.Empty(t, lc.builds)
	require.Empty(t, lc.starts)
	require.Equal(t, []string{"a"}, lc.attaches)
	require.Equal(t, []string{"a"}, lc.stops)
	require.Len(t, bundle.Entries[0].Results, 4)
}

func TestSkipBuildStillStarts(t *testing.T) {
	lc := &fakeLifecycle{}
	orch, _ := newOrchestrator(lc, okDriver())

	_, err := orch.Run(context.Background(),
		[]candidates.Candidate{{Key: "a", Name: "A", Port: 8080}},
		orchestrate.Options{Mode: server.ModeLocal, SkipBuild: true})
	require.NoError(t, err)
	require.Empty(t, lc.builds)
	require.Equal(t, []string{"a"}, lc.starts)
}

func TestScenariosRunInCatalogOrder(t *testing.T) {
	var order []string
	d := &fakeDriver{run: func(sc scenario.Scenario, _ string) (*wrk.MetricRecord, error) {
		order = append(order, sc.Name)
		return &wrk.MetricRecord{RequestsPerSec: 1, Raw: "ok"}, nil
	}}
	orch, _ := newOrchestrator(&fakeLifecycle{}, d)

	_, err := orch.Run(context.Background(),
		[]candidates.Candidate{{Key: "a", Name: "A", Port: 8080}},
		orchestrate.Options{Mode: server.ModeLocal})
	require.NoError(t, err)
	require.Equal(t, []string{"Light", "Medium", "Heavy", "Stress"}, order)
}

func TestCancelledRunDuration(t *testing.T) {
	// a cancelled context before the run even starts marks every
	// candidate failed rather than hanging
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orch, _ := newOrchestrator(&fakeLifecycle{}, okDriver())
	start := time.Now()
	bundle, err := orch.Run(ctx, twoCandidates(), orchestrate.Options{Mode: server.ModeLocal})
	require.Error(t, err)
	require.Len(t, bundle.Entries, 2)
	for _, e := range bundle.Entries {
		require.Equal(t, results.StatusStartFailed, e.Status)
	}
	require.Less(t, time.Since(start), time.Second)
}
