// Package termgath prints benchmark progress to the terminal.
package termgath

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/metassr/bench/internal/results"
	"github.com/metassr/bench/internal/scenario"
	"github.com/metassr/bench/internal/wrk"
)

var (
	tagInfo  = color.New(color.FgBlue).Sprint("[INFO]")
	tagOK    = color.New(color.FgGreen).Sprint("[OK]")
	tagError = color.New(color.FgRed).Sprint("[ERROR]")
	yellow   = color.New(color.FgYellow).SprintfFunc()
)

type TerminalGatherer struct {
	startedAt time.Time
}

func New() *TerminalGatherer { return &TerminalGatherer{startedAt: time.Now()} }

func (t *TerminalGatherer) StartRun(systemInfo string) {
	fmt.Printf("%s System: %s\n", tagInfo, systemInfo)
}

func (t *TerminalGatherer) StartCandidate(candidate string, mode string) {
	fmt.Printf("\n%s --- %s (%s) ---\n", tagInfo, candidate, mode)
}

func (t *TerminalGatherer) StartBuild(candidate string) {
	fmt.Printf("%s Building %s...\n", tagInfo, candidate)
}

func (t *TerminalGatherer) FinishBuild(candidate string, err error) {
	if err != nil {
		fmt.Printf("%s Build failed for %s: %v\n", tagError, candidate, err)
		return
	}
	fmt.Printf("%s Built %s\n", tagOK, candidate)
}

func (t *TerminalGatherer) StartScenario(candidate string, sc scenario.Scenario) {
	fmt.Printf("%s t=%d c=%d d=%ds ... ",
		yellow("[%s]", sc.Name), sc.Threads, sc.Connections, sc.DurationSec)
}

func (t *TerminalGatherer) FinishScenario(candidate string, sc scenario.Scenario, rec *wrk.MetricRecord, err error) {
	if err != nil {
		fmt.Printf("%s %v\n", tagError, err)
		return
	}
	fmt.Printf("%.0f RPS | %s avg | %s p99\n",
		rec.RequestsPerSec,
		rec.Latency.Avg.Round(time.Microsecond*10),
		rec.Latency.P99.Round(time.Microsecond*10))
}

func (t *TerminalGatherer) FinishCandidate(candidate string, status results.EntryStatus) {
	if status == results.StatusOK {
		fmt.Printf("%s %s benchmarks complete\n", tagOK, candidate)
		return
	}
	fmt.Printf("%s %s skipped: %s\n", tagError, candidate, status)
}

func (t *TerminalGatherer) FinishRun(err error) {
	dur := time.Since(t.startedAt).Round(time.Millisecond)
	if err != nil {
		fmt.Printf("%s Run failed after %s: %v\n", tagError, dur, err)
		return
	}
	fmt.Printf("%s Run finished in %s\n", tagOK, dur)
}
