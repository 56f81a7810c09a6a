package server

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// FindPID returns the PID of the process listening on port, via lsof.
// Used to monitor memory of servers the harness did not spawn itself.
func FindPID(port int) (int, error) {
	out, err := exec.Command("lsof", "-ti", fmt.Sprintf(":%d", port)).Output()
	if err != nil {
		return 0, fmt.Errorf("lsof failed for port %d: %w", port, err)
	}
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) == 0 {
		return 0, fmt.Errorf("no process listening on port %d", port)
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("unexpected lsof output %q: %w", fields[0], err)
	}
	return pid, nil
}

// ResidentKiB reads the resident set size of a process from
// /proc/<pid>/status. Returns 0 when the process is gone or the
// platform has no procfs.
func ResidentKiB(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kib, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kib
	}
	return 0
}
