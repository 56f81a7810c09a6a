// Package candidates holds the registry of SSR applications under test.
package candidates

import (
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"
)

// Candidate describes one application: how to build it, how to run it
// locally, and which container image backs it in container mode. The
// registry is read-only configuration; a Candidate never changes during
// a run.
type Candidate struct {
	Key        string `toml:"key" json:"key"`
	Name       string `toml:"name" json:"name"`
	Port       int    `toml:"port" json:"port"`
	Dir        string `toml:"dir" json:"dir"`
	BuildCmd   string `toml:"build_cmd" json:"build_cmd,omitempty"`
	RunCmd     string `toml:"run_cmd" json:"run_cmd,omitempty"`
	Image      string `toml:"image" json:"image,omitempty"`
	Dockerfile string `toml:"dockerfile" json:"dockerfile,omitempty"`
	HealthPath string `toml:"health_path" json:"health_path,omitempty"`
}

func (c Candidate) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Port)
}

func (c Candidate) HealthURL() string {
	path := c.HealthPath
	if path == "" {
		path = "/"
	}
	return c.BaseURL() + path
}

// Defaults returns the two built-in reference candidates.
func Defaults() []Candidate {
	return []Candidate{
		{
			Key:        "metassr",
			Name:       "MetaSSR",
			Port:       8080,
			Dir:        "apps/metassr-app",
			BuildCmd:   "npm install && npm run build",
			RunCmd:     "npm start",
			Image:      "metassr-bench",
			Dockerfile: "Dockerfile.metassr",
		},
		{
			Key:        "nextjs",
			Name:       "Next.js",
			Port:       3001,
			Dir:        "apps/nextjs-app",
			BuildCmd:   "npm install && npm run build",
			RunCmd:     "npm start",
			Image:      "nextjs-bench",
			Dockerfile: "Dockerfile.nextjs",
		},
	}
}

type registryFile struct {
	Candidates []Candidate `toml:"candidates"`
}

// Load reads a TOML registry file with [[candidates]] entries.
func Load(path string) ([]Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate registry: %w", err)
	}
	var root registryFile
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse candidate registry TOML: %w", err)
	}
	if err := Validate(root.Candidates); err != nil {
		return nil, err
	}
	return root.Candidates, nil
}

// Validate checks registry invariants: keys unique and non-empty,
// ports unique and positive.
func Validate(cands []Candidate) error {
	if len(cands) == 0 {
		return fmt.Errorf("candidate registry is empty")
	}
	keys := mapset.NewSet[string]()
	ports := mapset.NewSet[int]()
	for _, c := range cands {
		if c.Key == "" {
			return fmt.Errorf("candidate %q has empty key", c.Name)
		}
		if !keys.Add(c.Key) {
			return fmt.Errorf("duplicate candidate key %q", c.Key)
		}
		if c.Port <= 0 {
			return fmt.Errorf("candidate %q has invalid port %d", c.Key, c.Port)
		}
		if !ports.Add(c.Port) {
			return fmt.Errorf("candidate %q reuses port %d", c.Key, c.Port)
		}
	}
	return nil
}

// Select picks candidates by key, preserving the order of keys.
func Select(cands []Candidate, keys []string) ([]Candidate, error) {
	byKey := make(map[string]Candidate, len(cands))
	for _, c := range cands {
		byKey[c.Key] = c
	}
	out := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		c, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("unknown candidate %q", k)
		}
		out = append(out, c)
	}
	return out, nil
}
