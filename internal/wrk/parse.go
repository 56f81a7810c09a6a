package wrk

import (
	"regexp"
	"strconv"
	"time"
)

var (
	reReqSec     = regexp.MustCompile(`Requests/sec:\s+([\d.]+)`)
	reTransfer   = regexp.MustCompile(`Transfer/sec:\s+([\d.]+)([KMGT]?B)`)
	rePercentile = regexp.MustCompile(`(\d+)%:?\s+([\d.]+)(us|ms|s|m)\b`)
	reThreadLat  = regexp.MustCompile(`Latency\s+([\d.]+)(us|ms|s|m)\s+[\d.]+(?:us|ms|s|m)\s+([\d.]+)(us|ms|s|m)`)
	reTotalReq   = regexp.MustCompile(`(\d+)\s+requests in`)
	reSockErr    = regexp.MustCompile(`Socket errors:\s*connect\s+(\d+),\s*read\s+(\d+),\s*write\s+(\d+),\s*timeout\s+(\d+)`)
)

// Parse turns raw wrk report text into a MetricRecord. The requests/sec
// line and the 50/90/99 latency percentiles are mandatory; everything
// else defaults to zero when absent.
func Parse(raw string) (*MetricRecord, error) {
	rec := &MetricRecord{Raw: raw}

	m := reReqSec.FindStringSubmatch(raw)
	if m == nil {
		return nil, &ParseError{Missing: "Requests/sec line", Raw: raw}
	}
	rec.RequestsPerSec, _ = strconv.ParseFloat(m[1], 64)

	pcts := map[int]time.Duration{}
	for _, p := range rePercentile.FindAllStringSubmatch(raw, -1) {
		n, _ := strconv.Atoi(p[1])
		pcts[n] = parseDuration(p[2], p[3])
	}
	for _, want := range []int{50, 90, 99} {
		if _, ok := pcts[want]; !ok {
			return nil, &ParseError{Missing: "latency distribution", Raw: raw}
		}
	}
	rec.Latency.P50 = pcts[50]
	rec.Latency.P90 = pcts[90]
	rec.Latency.P99 = pcts[99]

	if m = reThreadLat.FindStringSubmatch(raw); m != nil {
		rec.Latency.Avg = parseDuration(m[1], m[2])
		rec.Latency.Max = parseDuration(m[3], m[4])
	}

	if m = reTransfer.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		rec.TransferPerSec = v * float64(transferUnit(m[2]))
	}

	if m = reTotalReq.FindStringSubmatch(raw); m != nil {
		rec.TotalRequests, _ = strconv.ParseInt(m[1], 10, 64)
	}

	if m = reSockErr.FindStringSubmatch(raw); m != nil {
		var total int64
		for _, g := range m[1:] {
			n, _ := strconv.ParseInt(g, 10, 64)
			total += n
		}
		rec.SocketErrors = total
		rec.Timeouts, _ = strconv.ParseInt(m[4], 10, 64)
	}

	return rec, nil
}

func parseDuration(value, unit string) time.Duration {
	v, _ := strconv.ParseFloat(value, 64)
	switch unit {
	case "us":
		return time.Duration(v * float64(time.Microsecond))
	case "ms":
		return time.Duration(v * float64(time.Millisecond))
	case "s":
		return time.Duration(v * float64(time.Second))
	case "m":
		return time.Duration(v * float64(time.Minute))
	}
	return 0
}

// wrk prints sizes with binary multiples.
func transferUnit(unit string) int64 {
	switch unit {
	case "KB":
		return 1 << 10
	case "MB":
		return 1 << 20
	case "GB":
		return 1 << 30
	case "TB":
		return 1 << 40
	}
	return 1
}
