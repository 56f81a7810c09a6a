package results

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// SystemInfo is a host snapshot attached to every bundle so numbers can
// be read in context later.
type SystemInfo struct {
	OS        string  `json:"os"`
	OSVersion string  `json:"os_version"`
	Arch      string  `json:"arch"`
	CPU       string  `json:"cpu"`
	CPUCores  int     `json:"cpu_cores"`
	MemoryGB  float64 `json:"memory_gb"`
}

// CollectSystemInfo reads what it can and leaves the rest at defaults;
// on non-Linux hosts the procfs fields stay empty.
func CollectSystemInfo() SystemInfo {
	info := SystemInfo{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		CPU:      "Unknown",
		CPUCores: runtime.NumCPU(),
	}

	if data, err := os.ReadFile("/proc/sys/kernel/osrelease"); err == nil {
		info.OSVersion = strings.TrimSpace(string(data))
	}

	if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "model name") {
				if _, v, ok := strings.Cut(line, ":"); ok {
					info.CPU = strings.TrimSpace(v)
				}
				break
			}
		}
	}

	if data, err := os.ReadFile("/proc/meminfo"); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			if strings.HasPrefix(line, "MemTotal") {
				fields := strings.Fields(line)
				if len(fields) >= 2 {
					if kb, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
						info.MemoryGB = float64(kb) / 1024 / 1024
						info.MemoryGB = float64(int(info.MemoryGB*10+0.5)) / 10
					}
				}
				break
			}
		}
	}

	return info
}
