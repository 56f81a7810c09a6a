package api

import "strings"

// Metrics is the wire form of one scenario's parsed result. Latencies
// travel as milliseconds; the raw generator output is trimmed to a
// fixed rectangle so messages stay small.
type Metrics struct {
	RequestsPerSec float64 `json:"requests_per_sec"`
	LatencyAvgMs   float64 `json:"latency_avg_ms"`
	LatencyP50Ms   float64 `json:"latency_p50_ms"`
	LatencyP90Ms   float64 `json:"latency_p90_ms"`
	LatencyP99Ms   float64 `json:"latency_p99_ms"`
	LatencyMaxMs   float64 `json:"latency_max_ms"`
	TransferPerSec float64 `json:"transfer_bytes_per_sec"`
	TotalRequests  int64   `json:"total_requests"`
	SocketErrors   int64   `json:"socket_errors"`
	Timeouts       int64   `json:"timeouts"`
	MemoryKiB      int64   `json:"memory_kib"`
	RawOutput      string  `json:"raw_output"`
}

const (
	MaxRawOutputHeight = 40
	MaxRawOutputWidth  = 80
)

// TrimToRect cuts a text block to at most height lines of width runes,
// marking elisions with [...].
func TrimToRect(s string, maxHeight, maxWidth int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if runes := []rune(line); len(runes) > maxWidth {
			b.WriteString(string(runes[:maxWidth]) + "[...]")
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}
