package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/metassr/bench/internal/results"
)

// WriteAnalysis prints the plain-text analysis table used by the
// analyze-only mode and at the end of a live run.
func WriteAnalysis(w io.Writer, b results.Bundle) {
	fmt.Fprintf(w, "\n%s\nBENCHMARK ANALYSIS\n%s\n\n", strings.Repeat("=", 60), strings.Repeat("=", 60))

	for _, e := range b.Entries {
		if len(b.Entries) > 1 {
			fmt.Fprintf(w, "--- %s ---\n", e.Candidate.Name)
		}
		if e.Status != results.StatusOK {
			fmt.Fprintf(w, "FAILED: %s (%s)\n\n", e.Status, e.Failure)
			continue
		}

		fmt.Fprintf(w, "%-12s | %12s | %10s | %10s | %10s | Status\n", "Test", "RPS", "Avg", "P99", "Memory")
		fmt.Fprintln(w, strings.Repeat("-", 75))
		var failed []string
		for _, r := range e.Results {
			if r.Failed() {
				fmt.Fprintf(w, "%-12s | %12s | %10s | %10s | %10s | FAILED (%s)\n",
					r.Scenario.Name, "-", "-", "-", "-", r.ErrKind)
				failed = append(failed, r.Scenario.Name)
				continue
			}
			m := r.Metrics
			status := "OK"
			if m.SocketErrors > 0 {
				status = fmt.Sprintf("FAIL (%d)", m.SocketErrors)
				failed = append(failed, r.Scenario.Name)
			}
			fmt.Fprintf(w, "%-12s | %12s | %10s | %10s | %8.1fMB | %s\n",
				r.Scenario.Name,
				comma(int64(m.RequestsPerSec)),
				fmtMs(m.Latency.Avg),
				fmtMs(m.Latency.P99),
				float64(m.ServerMemoryKiB)/1024,
				status)
		}
		if len(failed) > 0 {
			fmt.Fprintf(w, "\n[WARNING] Tests with errors: %s\n\n", strings.Join(failed, ", "))
		} else {
			fmt.Fprintf(w, "\n[OK] All tests passed without errors\n\n")
		}
	}
}
