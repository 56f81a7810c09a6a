// Package gatherer fans benchmark progress out to interested sinks: the
// terminal by default, NATS or SQS when configured.
package gatherer

import (
	"time"

	"github.com/metassr/bench/api"
	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

type Gatherer interface {
	StartRun(systemInfo string)
	StartCandidate(candidate string, mode string)
	StartBuild(candidate string)
	FinishBuild(candidate string, err error)
	StartScenario(candidate string, sc scenario.Scenario)
	FinishScenario(candidate string, sc scenario.Scenario, rec *wrk.MetricRecord, err error)
	FinishCandidate(candidate string, status results.EntryStatus)
	FinishRun(err error)
}

// Multi delivers every event to each wrapped gatherer in order.
type Multi struct {
	gatherers []Gatherer
}

func NewMulti(gs ...Gatherer) *Multi { return &Multi{gatherers: gs} }

func (m *Multi) StartRun(systemInfo string) {
	for _, g := range m.gatherers {
		g.StartRun(systemInfo)
	}
}

func (m *Multi) StartCandidate(candidate string, mode string) {
	for _, g := range m.gatherers {
		g.StartCandidate(candidate, mode)
	}
}

func (m *Multi) StartBuild(candidate string) {
	for _, g := range m.gatherers {
		g.StartBuild(candidate)
	}
}

func (m *Multi) FinishBuild(candidate string, err error) {
	for _, g := range m.gatherers {
		g.FinishBuild(candidate, err)
	}
}

func (m *Multi) StartScenario(candidate string, sc scenario.Scenario) {
	for _, g := range m.gatherers {
		g.StartScenario(candidate, sc)
	}
}

func (m *Multi) FinishScenario(candidate string, sc scenario.Scenario, rec *wrk.MetricRecord, err error) {
	for _, g := range m.gatherers {
		g.FinishScenario(candidate, sc, rec, err)
	}
}

func (m *Multi) FinishCandidate(candidate string, status results.EntryStatus) {
	for _, g := range m.gatherers {
		g.FinishCandidate(candidate, status)
	}
}

func (m *Multi) FinishRun(err error) {
	for _, g := range m.gatherers {
		g.FinishRun(err)
	}
}

// MapMetrics converts a parsed record to its trimmed wire form.
func MapMetrics(rec *wrk.MetricRecord) *api.Metrics {
	if rec == nil {
		return nil
	}
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
	return &api.Metrics{
		RequestsPerSec: rec.RequestsPerSec,
		LatencyAvgMs:   ms(rec.Latency.Avg),
		LatencyP50Ms:   ms(rec.Latency.P50),
		LatencyP90Ms:   ms(rec.Latency.P90),
		LatencyP99Ms:   ms(rec.Latency.P99),
		LatencyMaxMs:   ms(rec.Latency.Max),
		TransferPerSec: rec.TransferPerSec,
		TotalRequests:  rec.TotalRequests,
		SocketErrors:   rec.SocketErrors,
		Timeouts:       rec.Timeouts,
		MemoryKiB:      rec.ServerMemoryKiB,
		RawOutput:      api.TrimToRect(rec.Raw, api.MaxRawOutputHeight, api.MaxRawOutputWidth),
	}
}

// ErrMsg converts an error to the optional wire field.
func ErrMsg(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
