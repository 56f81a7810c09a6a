// Package results accumulates one run's metrics into a bundle, persists
// it as JSON and computes cross-candidate comparisons.
package results

import (
	"time"

	"github.com/metassr/bench/internal/candidates"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

type EntryStatus string

const (
	StatusOK          EntryStatus = "ok"
	StatusBuildFailed EntryStatus = "build_failed"
	StatusStartFailed EntryStatus = "start_failed"
)

// ScenarioResult is one (candidate, scenario) outcome. Failures are
// data, not omissions: a reader must be able to tell "no data" from
// "measured zero".
type ScenarioResult struct {
	Scenario scenario.Scenario `json:"scenario"`
	Metrics  *wrk.MetricRecord `json:"metrics,omitempty"`
	ErrKind  string            `json:"error_kind,omitempty"`
	Err      string            `json:"error,omitempty"`
}

func (r ScenarioResult) Failed() bool { return r.Err != "" }

// Entry covers one candidate. Candidates whose build or start failed
// keep a sentinel entry with zero results so every configured candidate
// appears exactly once in the bundle.
type Entry struct {
	Candidate candidates.Candidate `json:"candidate"`
	Status    EntryStatus          `json:"status"`
	Failure   string               `json:"failure,omitempty"`
	Results   []ScenarioResult     `json:"results"`
}

// Bundle is the full output of one run. Entry order is candidate
// configuration order; result order is scenario catalog order.
type Bundle struct {
	RunID     string     `json:"run_id"`
	Timestamp time.Time  `json:"timestamp"`
	Mode      string     `json:"mode"`
	ServerURL string     `json:"server_url,omitempty"`
	System    SystemInfo `json:"system"`
	Entries   []Entry    `json:"entries"`
}
