package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func fmtMs(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func fmtTransfer(bytesPerSec float64) string {
	switch {
	case bytesPerSec >= 1<<30:
		return fmt.Sprintf("%.2fGB/s", bytesPerSec/(1<<30))
	case bytesPerSec >= 1<<20:
		return fmt.Sprintf("%.2fMB/s", bytesPerSec/(1<<20))
	case bytesPerSec >= 1<<10:
		return fmt.Sprintf("%.2fKB/s", bytesPerSec/(1<<10))
	}
	return fmt.Sprintf("%.0fB/s", bytesPerSec)
}

// comma renders 1234567 as 1,234,567.
func comma(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		return "-" + out
	}
	return out
}

// mermaidBarChart renders an xychart-beta block. The y axis gets 20%
// headroom above the largest value so bars never touch the frame.
func mermaidBarChart(title, yLabel string, labels []string, values []float64, asInt bool) string {
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}
	maxVal *= 1.2

	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = `"` + l + `"`
	}
	rendered := make([]string, len(values))
	for i, v := range values {
		if asInt {
			rendered[i] = strconv.Itoa(int(v))
		} else {
			rendered[i] = fmt.Sprintf("%.2f", v)
		}
	}

	var b strings.Builder
	b.WriteString("```mermaid\nxychart-beta\n")
	fmt.Fprintf(&b, "    title %q\n", title)
	fmt.Fprintf(&b, "    x-axis [%s]\n", strings.Join(quoted, ", "))
	if asInt {
		fmt.Fprintf(&b, "    y-axis %q 0 --> %d\n", yLabel, int(maxVal))
	} else {
		fmt.Fprintf(&b, "    y-axis %q 0 --> %.1f\n", yLabel, maxVal)
	}
	fmt.Fprintf(&b, "    bar [%s]\n", strings.Join(rendered, ", "))
	b.WriteString("```\n")
	return b.String()
}
