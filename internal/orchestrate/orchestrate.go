// Package orchestrate sequences one benchmark run: build, start, load,
// stop, one candidate at a time. Candidates are never benchmarked
// concurrently; sharing host resources between servers would invalidate
// the comparison.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/metassr/bench/internal/candidates"
	"github.com/metassr/bench/internal/gatherer"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/server"
	"github.com/metassr/bench/internal/wrk"
)

// Lifecycle is what the orchestrator needs from the server manager.
type Lifecycle interface {
	Build(ctx context.Context, cand candidates.Candidate, mode server.Mode) error
	Start(ctx context.Context, cand candidates.Candidate, mode server.Mode) (*server.Handle, error)
	Attach(ctx context.Context, cand candidates.Candidate) (*server.Handle, error)
	Stop(handle *server.Handle)
	IsUp(ctx context.Context, url string) bool
	Warmup(ctx context.Context, url string, count int)
}

// Driver is what the orchestrator needs from the load generator.
type Driver interface {
	Check() error
	Run(ctx context.Context, sc scenario.Scenario, targetURL string) (*wrk.MetricRecord, error)
}

type Options struct {
	Mode      server.Mode
	SkipBuild bool
	Scenarios []scenario.Scenario
	// AttachRunning reuses a server already answering on the candidate's
	// port instead of building and starting one.
	AttachRunning  bool
	WarmupRequests int
	// SampleMemory reads the server's RSS around each scenario. Local
	// mode only; containers hide their PID from the host's procfs view.
	SampleMemory bool
}

type Orchestrator struct {
	lifecycle Lifecycle
	driver    Driver
	store     *results.Store
	gath      gatherer.Gatherer
	log       *slog.Logger
}

func New(lifecycle Lifecycle, driver Driver, store *results.Store, gath gatherer.Gatherer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		lifecycle: lifecycle,
		driver:    driver,
		store:     store,
		gath:      gath,
		log:       log,
	}
}

// Run benchmarks every candidate in order. Per-candidate and
// per-scenario failures become bundle data and the run continues; only
// environment-level problems (missing wrk, cancellation) surface as the
// returned error. Every started server is stopped on every exit path.
func (o *Orchestrator) Run(ctx context.Context, cands []candidates.Candidate, opts Options) (results.Bundle, error) {
	if err := o.driver.Check(); err != nil {
		return o.store.Bundle(), err
	}
	if len(opts.Scenarios) == 0 {
		opts.Scenarios = scenario.Catalog()
	}
	if opts.WarmupRequests == 0 {
		opts.WarmupRequests = 10
	}

	sys := o.store.Bundle().System
	o.gath.StartRun(fmt.Sprintf("%s %s, %d cores, %.1fGB RAM", sys.OS, sys.Arch, sys.CPUCores, sys.MemoryGB))

	var runErr error
	for _, cand := range cands {
		if err := o.store.AddCandidate(cand); err != nil {
			return o.store.Bundle(), err
		}
		if ctx.Err() != nil {
			runErr = ctx.Err()
			_ = o.store.MarkFailed(cand.Key, results.StatusStartFailed, "run cancelled")
			continue
		}
		o.gath.StartCandidate(cand.Key, string(opts.Mode))

		if err := o.runCandidate(ctx, cand, opts); err != nil {
			if errors.Is(err, wrk.ErrToolNotFound) {
				o.gath.FinishRun(err)
				return o.store.Bundle(), err
			}
			runErr = err
		}
	}

	o.gath.FinishRun(runErr)
	return o.store.Bundle(), runErr
}

// runCandidate takes one candidate through its full lifecycle. Returns
// nil on candidate-local failures (they are recorded in the bundle) and
// an error only for run-level conditions.
func (o *Orchestrator) runCandidate(ctx context.Context, cand candidates.Candidate, opts Options) error {
	var handle *server.Handle

	if opts.AttachRunning && o.lifecycle.IsUp(ctx, cand.HealthURL()) {
		o.log.Info("candidate already running, attaching", "candidate", cand.Key, "port", cand.Port)
		h, err := o.lifecycle.Attach(ctx, cand)
		if err != nil {
			_ = o.store.MarkFailed(cand.Key, results.StatusStartFailed, err.Error())
			o.gath.FinishCandidate(cand.Key, results.StatusStartFailed)
			return nil
		}
		handle = h
	} else {
		if !opts.SkipBuild {
			o.gath.StartBuild(cand.Key)
			err := o.lifecycle.Build(ctx, cand, opts.Mode)
			o.gath.FinishBuild(cand.Key, err)
			if err != nil {
				_ = o.store.MarkFailed(cand.Key, results.StatusBuildFailed, err.Error())
				o.gath.FinishCandidate(cand.Key, results.StatusBuildFailed)
				return nil
			}
		}

		h, err := o.lifecycle.Start(ctx, cand, opts.Mode)
		if err != nil {
			_ = o.store.MarkFailed(cand.Key, results.StatusStartFailed, err.Error())
			o.gath.FinishCandidate(cand.Key, results.StatusStartFailed)
			return nil
		}
		handle = h
	}
	defer o.lifecycle.Stop(handle)

	o.lifecycle.Warmup(ctx, handle.BaseURL, opts.WarmupRequests)

	pid := 0
	if opts.SampleMemory && opts.Mode == server.ModeLocal {
		if p, err := server.FindPID(cand.Port); err == nil {
			pid = p
		} else {
			o.log.Warn("could not find server PID, memory monitoring disabled", "candidate", cand.Key)
		}
	}

	var scenarioErr error
	for _, sc := range opts.Scenarios {
		if ctx.Err() != nil {
			scenarioErr = ctx.Err()
			break
		}
		o.gath.StartScenario(cand.Key, sc)

		memBefore := server.ResidentKiB(pid)
		rec, err := o.driver.Run(ctx, sc, handle.BaseURL)
		o.gath.FinishScenario(cand.Key, sc, rec, err)

		if err != nil {
			if errors.Is(err, wrk.ErrToolNotFound) {
				return err
			}
			if recErr := o.store.Record(cand.Key, results.ScenarioResult{
				Scenario: sc,
				ErrKind:  kindOf(err),
				Err:      err.Error(),
			}); recErr != nil {
				return recErr
			}
			if errors.Is(err, wrk.ErrCancelled) {
				scenarioErr = err
				break
			}
			continue
		}

		if memAfter := server.ResidentKiB(pid); memAfter > memBefore {
			rec.ServerMemoryKiB = memAfter
		} else {
			rec.ServerMemoryKiB = memBefore
		}
		if err := o.store.Record(cand.Key, results.ScenarioResult{Scenario: sc, Metrics: rec}); err != nil {
			return err
		}
	}

	o.gath.FinishCandidate(cand.Key, results.StatusOK)
	return scenarioErr
}

func kindOf(err error) string {
	var procErr *wrk.ProcessError
	var parseErr *wrk.ParseError
	switch {
	case errors.Is(err, wrk.ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, wrk.ErrCancelled):
		return "cancelled"
	case errors.As(err, &procErr):
		return "process_failed"
	case errors.As(err, &parseErr):
		return "unparsable_output"
	}
	return "driver_error"
}
