package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metassr/bench/internal/results"
)

// WriteMarkdown renders the human summary: a single-target report for
// one-entry bundles, a comparison report otherwise.
func WriteMarkdown(b results.Bundle, path string) error {
	var doc string
	if len(b.Entries) > 1 {
		doc = renderComparison(b)
	} else {
		doc = renderSummary(b)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}

func systemTable(s results.SystemInfo) string {
	var b strings.Builder
	b.WriteString("## System Information\n\n")
	b.WriteString("| Property | Value |\n|----------|-------|\n")
	fmt.Fprintf(&b, "| OS | %s %s |\n", s.OS, s.OSVersion)
	fmt.Fprintf(&b, "| Architecture | %s |\n", s.Arch)
	fmt.Fprintf(&b, "| CPU | %s |\n", s.CPU)
	fmt.Fprintf(&b, "| CPU Cores | %d |\n", s.CPUCores)
	fmt.Fprintf(&b, "| Memory | %.1f GB |\n", s.MemoryGB)
	return b.String()
}

func renderSummary(b results.Bundle) string {
	var doc strings.Builder
	doc.WriteString("# Benchmark Results\n\n")
	fmt.Fprintf(&doc, "**Date:** %s  \n", b.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&doc, "**Server:** %s  \n", b.ServerURL)

	if len(b.Entries) == 0 {
		doc.WriteString("**Status:** FAILED - no candidates were benchmarked\n")
		return doc.String()
	}
	entry := b.Entries[0]

	if entry.Status != results.StatusOK {
		fmt.Fprintf(&doc, "**Status:** FAILED - %s: %s\n\n", entry.Status, entry.Failure)
		doc.WriteString(systemTable(b.System))
		return doc.String()
	}

	var totalErrors int64
	failedScenarios := 0
	for _, r := range entry.Results {
		if r.Failed() {
			failedScenarios++
			continue
		}
		totalErrors += r.Metrics.SocketErrors
	}
	switch {
	case failedScenarios > 0:
		fmt.Fprintf(&doc, "**Status:** PARTIAL - %d scenarios failed  \n\n", failedScenarios)
	case totalErrors > 0:
		fmt.Fprintf(&doc, "**Status:** WARNING - %d errors detected  \n\n", totalErrors)
	default:
		doc.WriteString("**Status:** PASSED - All tests completed successfully  \n\n")
	}

	doc.WriteString(systemTable(b.System))

	ok := entry.Results[:0:0]
	for _, r := range entry.Results {
		if !r.Failed() {
			ok = append(ok, r)
		}
	}

	if len(ok) > 0 {
		var labels []string
		var rps, avg, p99, mem, reqs []float64
		for _, r := range ok {
			labels = append(labels, r.Scenario.Name)
			rps = append(rps, r.Metrics.RequestsPerSec)
			avg = append(avg, ms(r.Metrics.Latency.Avg))
			p99 = append(p99, ms(r.Metrics.Latency.P99))
			mem = append(mem, float64(r.Metrics.ServerMemoryKiB)/1024)
			reqs = append(reqs, float64(r.Metrics.TotalRequests))
		}
		doc.WriteString("\n## Performance Charts\n\n")
		doc.WriteString("### Requests per Second\n" + mermaidBarChart("Requests per Second", "RPS", labels, rps, true) + "\n")
		doc.WriteString("### Average Latency (ms)\n" + mermaidBarChart("Average Latency", "Latency (ms)", labels, avg, false) + "\n")
		doc.WriteString("### P99 Latency (ms)\n" + mermaidBarChart("P99 Latency", "P99 (ms)", labels, p99, false) + "\n")
		doc.WriteString("### Memory Usage (MB)\n" + mermaidBarChart("Memory Usage", "Memory (MB)", labels, mem, false) + "\n")
		doc.WriteString("### Total Requests\n" + mermaidBarChart("Total Requests Handled", "Requests", labels, reqs, true) + "\n")
	}

	doc.WriteString("## Detailed Results\n\n")
	doc.WriteString("| Test | RPS | Avg Latency | P99 Latency | Transfer | Memory | Requests | Errors |\n")
	doc.WriteString("|------|-----|-------------|-------------|----------|--------|----------|--------|\n")
	for _, r := range entry.Results {
		if r.Failed() {
			fmt.Fprintf(&doc, "| %s | - | - | - | - | - | - | FAILED (%s) |\n", r.Scenario.Name, r.ErrKind)
			continue
		}
		m := r.Metrics
		errCell := "OK"
		if m.SocketErrors > 0 {
			errCell = fmt.Sprintf("FAIL (%d)", m.SocketErrors)
		}
		fmt.Fprintf(&doc, "| %s | %s | %s | %s | %s | %.1f MB | %s | %s |\n",
			r.Scenario.Name,
			comma(int64(m.RequestsPerSec)),
			fmtMs(m.Latency.Avg),
			fmtMs(m.Latency.P99),
			fmtTransfer(m.TransferPerSec),
			float64(m.ServerMemoryKiB)/1024,
			comma(m.TotalRequests),
			errCell)
	}

	if len(ok) > 0 {
		best := ok[0]
		var sumRPS float64
		minRPS, maxRPS := ok[0].Metrics.RequestsPerSec, ok[0].Metrics.RequestsPerSec
		for _, r := range ok {
			v := r.Metrics.RequestsPerSec
			sumRPS += v
			if v > maxRPS {
				maxRPS = v
			}
			if v < minRPS {
				minRPS = v
			}
			if v > best.Metrics.RequestsPerSec {
				best = r
			}
		}
		doc.WriteString("\n## Summary\n\n")
		doc.WriteString("| Metric | Best | Average | Worst |\n|--------|------|---------|-------|\n")
		fmt.Fprintf(&doc, "| RPS | %s | %s | %s |\n",
			comma(int64(maxRPS)), comma(int64(sumRPS/float64(len(ok)))), comma(int64(minRPS)))
		fmt.Fprintf(&doc, "\n**Best Performance:** %s with %s RPS\n",
			best.Scenario.Name, comma(int64(best.Metrics.RequestsPerSec)))
	}

	return doc.String()
}

func renderComparison(b results.Bundle) string {
	cmp := results.Compare(b)

	var doc strings.Builder
	doc.WriteString("# Framework Comparison\n\n")
	fmt.Fprintf(&doc, "**Date:** %s  \n", b.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&doc, "**Mode:** %s  \n\n", b.Mode)
	doc.WriteString(systemTable(b.System))

	doc.WriteString("\n## Frameworks Tested\n\n")
	doc.WriteString("| Framework | Port | Status |\n|-----------|------|--------|\n")
	for _, e := range b.Entries {
		status := "OK"
		if e.Status != results.StatusOK {
			status = fmt.Sprintf("FAILED (%s)", e.Status)
		}
		fmt.Fprintf(&doc, "| %s | %d | %s |\n", e.Candidate.Name, e.Candidate.Port, status)
	}

	// Interleaved charts: one bar per (scenario, candidate) pair.
	type chart struct {
		title string
		unit  string
		asInt bool
		pick  func(results.RankedResult) float64
	}
	charts := []chart{
		{"Requests per Second", "RPS", true, func(r results.RankedResult) float64 { return r.RequestsPerSec }},
		{"P99 Latency", "ms", false, func(r results.RankedResult) float64 { return ms(r.P99) }},
	}
	for _, c := range charts {
		var labels []string
		var values []float64
		for _, sr := range cmp.Scenarios {
			for _, r := range sr.Ranked {
				if r.Failed {
					continue
				}
				labels = append(labels, sr.Scenario.Name+" - "+r.Name)
				values = append(values, c.pick(r))
			}
		}
		if len(values) == 0 {
			continue
		}
		fmt.Fprintf(&doc, "\n## %s\n\n%s", c.title, mermaidBarChart(c.title, c.unit, labels, values, c.asInt))
	}

	doc.WriteString("\n## Detailed Results\n\n")
	for _, sr := range cmp.Scenarios {
		sc := sr.Scenario
		fmt.Fprintf(&doc, "### %s Load (t=%d c=%d d=%ds)\n\n", sc.Name, sc.Threads, sc.Connections, sc.DurationSec)
		doc.WriteString("| Rank | Framework | RPS | P99 Latency | vs Baseline | Status |\n")
		doc.WriteString("|------|-----------|-----|-------------|-------------|--------|\n")
		rank := 0
		for _, r := range sr.Ranked {
			if r.Failed {
				fmt.Fprintf(&doc, "| - | %s | - | - | - | FAILED (%s) |\n", r.Name, r.Reason)
				continue
			}
			rank++
			delta := "baseline"
			switch {
			case r.Key == cmp.Baseline:
			case r.DeltaPct != nil:
				delta = fmt.Sprintf("%+.1f%%", *r.DeltaPct)
			default:
				delta = "n/a (no baseline data)"
			}
			fmt.Fprintf(&doc, "| %d | %s | %s | %s | %s | OK |\n",
				rank, r.Name, comma(int64(r.RequestsPerSec)), fmtMs(r.P99), delta)
		}
		doc.WriteString("\n")
	}

	doc.WriteString(headToHead(b, cmp))
	return doc.String()
}

// headToHead mirrors the per-scenario percent-difference table of the
// baseline candidate against each other candidate.
func headToHead(b results.Bundle, cmp results.Comparison) string {
	if len(b.Entries) < 2 {
		return ""
	}
	baseline := b.Entries[0]

	var doc strings.Builder
	doc.WriteString("## Head-to-Head\n")
	for _, other := range b.Entries[1:] {
		fmt.Fprintf(&doc, "\n### %s vs %s\n\n", baseline.Candidate.Name, other.Candidate.Name)
		doc.WriteString("| Scenario | RPS Diff | P99 Diff | Winner |\n")
		doc.WriteString("|----------|----------|----------|--------|\n")
		for _, sr := range cmp.Scenarios {
			base, okBase := lookupRanked(sr.Ranked, baseline.Candidate.Key)
			vs, okVs := lookupRanked(sr.Ranked, other.Candidate.Key)
			if !okBase || !okVs || base.Failed || vs.Failed {
				fmt.Fprintf(&doc, "| %s | - | - | - |\n", sr.Scenario.Name)
				continue
			}
			rpsDiff := results.PctDiff(base.RequestsPerSec, vs.RequestsPerSec)
			p99Diff := results.PctDiff(ms(base.P99), ms(vs.P99))
			winner := baseline.Candidate.Name
			if vs.RequestsPerSec > base.RequestsPerSec {
				winner = other.Candidate.Name
			}
			fmt.Fprintf(&doc, "| %s | %+.1f%% | %+.1f%% | %s |\n", sr.Scenario.Name, rpsDiff, p99Diff, winner)
		}
		fmt.Fprintf(&doc, "\nPositive RPS diff = %s faster. Negative P99 diff = %s faster.\n",
			baseline.Candidate.Name, baseline.Candidate.Name)
	}
	return doc.String()
}

func lookupRanked(ranked []results.RankedResult, key string) (results.RankedResult, bool) {
	for _, r := range ranked {
		if r.Key == key {
			return r, true
		}
	}
	return results.RankedResult{}, false
}
