package scenario

import "time"

// Scenario is one fixed load profile handed to the load generator.
type Scenario struct {
	Name        string `json:"name"`
	Threads     int    `json:"threads"`
	Connections int    `json:"connections"`
	DurationSec int    `json:"duration"`
}

func (s Scenario) Duration() time.Duration {
	return time.Duration(s.DurationSec) * time.Second
}

// Catalog returns the canonical load profiles in escalation order.
// Lighter profiles run first so that a server that falls over under
// stress still yields data for the loads it survived.
func Catalog() []Scenario {
	return []Scenario{
		{Name: "Light", Threads: 1, Connections: 10, DurationSec: 20},
		{Name: "Medium", Threads: 4, Connections: 50, DurationSec: 40},
		{Name: "Heavy", Threads: 8, Connections: 200, DurationSec: 80},
		{Name: "Stress", Threads: 12, Connections: 500, DurationSec: 120},
	}
}

// CatalogWithDuration returns the catalog with every profile's duration
// replaced by seconds. Used by the comparison runner for short smoke runs.
func CatalogWithDuration(seconds int) []Scenario {
	out := Catalog()
	for i := range out {
		out[i].DurationSec = seconds
	}
	return out
}
