package wrk

import "time"

// Latency holds the parsed latency figures of one load run. Durations
// serialize as nanoseconds so that bundles round-trip exactly.
type Latency struct {
	Avg time.Duration `json:"avg_ns"`
	P50 time.Duration `json:"p50_ns"`
	P90 time.Duration `json:"p90_ns"`
	P99 time.Duration `json:"p99_ns"`
	Max time.Duration `json:"max_ns"`
}

// MetricRecord is the parsed result of one scenario against one server.
// Raw keeps the untouched generator output for audit even when parsing
// succeeded.
type MetricRecord struct {
	RequestsPerSec  float64 `json:"requests_per_sec"`
	Latency         Latency `json:"latency"`
	TransferPerSec  float64 `json:"transfer_bytes_per_sec"`
	TotalRequests   int64   `json:"total_requests"`
	SocketErrors    int64   `json:"socket_errors"`
	Timeouts        int64   `json:"timeouts"`
	ServerMemoryKiB int64   `json:"server_memory_kib,omitempty"`
	Raw             string  `json:"raw"`
}
