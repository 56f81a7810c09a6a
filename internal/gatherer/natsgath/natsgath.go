// Package natsgath streams benchmark progress messages to a NATS
// subject for remote observation of long runs.
package natsgath

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/metassr/bench/api"
	"github.com/metassr/bench/internal/gatherer"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

type natsGatherer struct {
	nc      *nats.Conn
	subject string
	runUuid string
	log     *slog.Logger
}

// New creates a gatherer publishing to the given subject.
func New(nc *nats.Conn, runUuid string, subject string, log *slog.Logger) gatherer.Gatherer {
	return &natsGatherer{nc: nc, subject: subject, runUuid: runUuid, log: log}
}

func (g *natsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		g.log.Warn("failed to marshal gatherer message", "error", err)
		return
	}
	if err := g.nc.Publish(g.subject, b); err != nil {
		g.log.Warn("failed to publish gatherer message to NATS", "error", err)
	}
}

func (g *natsGatherer) StartRun(systemInfo string) {
	g.send(api.NewStartedRun(g.runUuid, systemInfo))
}

func (g *natsGatherer) StartCandidate(candidate string, mode string) {
	g.send(api.NewStartedCandidate(g.runUuid, candidate, mode))
}

func (g *natsGatherer) StartBuild(candidate string) {
	g.send(api.NewStartedBuild(g.runUuid, candidate))
}

func (g *natsGatherer) FinishBuild(candidate string, err error) {
	g.send(api.NewFinishedBuild(g.runUuid, candidate, gatherer.ErrMsg(err)))
}

func (g *natsGatherer) StartScenario(candidate string, sc scenario.Scenario) {
	g.send(api.NewStartedScenario(g.runUuid, candidate, sc.Name, sc.Threads, sc.Connections, sc.DurationSec))
}

func (g *natsGatherer) FinishScenario(candidate string, sc scenario.Scenario, rec *wrk.MetricRecord, err error) {
	g.send(api.NewFinishedScenario(g.runUuid, candidate, sc.Name, gatherer.MapMetrics(rec), gatherer.ErrMsg(err)))
}

func (g *natsGatherer) FinishCandidate(candidate string, status results.EntryStatus) {
	g.send(api.NewFinishedCandidate(g.runUuid, candidate, string(status)))
}

func (g *natsGatherer) FinishRun(err error) {
	g.send(api.NewFinishedRun(g.runUuid, gatherer.ErrMsg(err)))
	if err := g.nc.Flush(); err != nil {
		g.log.Warn("failed to flush NATS connection", "error", err)
	}
}
