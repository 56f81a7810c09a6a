package candidates_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metassr/bench/internal/candidates"
)

func TestDefaultsValidate(t *testing.T) {
	defaults := candidates.Defaults()
	require.NoError(t, candidates.Validate(defaults))
	require.Equal(t, "metassr", defaults[0].Key)
	require.Equal(t, 8080, defaults[0].Port)
	require.Equal(t, "nextjs", defaults[1].Key)
	require.Equal(t, 3001, defaults[1].Port)
}

func TestURLs(t *testing.T) {
	c := candidates.Candidate{Key: "x", Port: 9000}
	require.Equal(t, "http://localhost:9000", c.BaseURL())
	require.Equal(t, "http://localhost:9000/", c.HealthURL())

	c.HealthPath = "/healthz"
	require.Equal(t, "http://localhost:9000/healthz", c.HealthURL())
}

func TestValidateRejectsDuplicates(t *testing.T) {
	dupKey := []candidates.Candidate{
		{Key: "a", Port: 8080},
		{Key: "a", Port: 8081},
	}
	require.ErrorContains(t, candidates.Validate(dupKey), `duplicate candidate key "a"`)

	dupPort := []candidates.Candidate{
		{Key: "a", Port: 8080},
		{Key: "b", Port: 8080},
	}
	require.ErrorContains(t, candidates.Validate(dupPort), "reuses port 8080")

	require.Error(t, candidates.Validate(nil))
	require.Error(t, candidates.Validate([]candidates.Candidate{{Key: "", Port: 8080}}))
	require.Error(t, candidates.Validate([]candidates.Candidate{{Key: "a", Port: 0}}))
}

func TestSelectPreservesKeyOrder(t *testing.T) {
	all := candidates.Defaults()

	sel, err := candidates.Select(all, []string{"nextjs", "metassr"})
	require.NoError(t, err)
	require.Equal(t, "nextjs", sel[0].Key)
	require.Equal(t, "metassr", sel[1].Key)

	_, err = candidates.Select(all, []string{"deno"})
	require.ErrorContains(t, err, `unknown candidate "deno"`)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[candidates]]
key = "astro"
name = "Astro"
port = 4321
dir = "apps/astro-app"
build_cmd = "npm install && npm run build"
run_cmd = "npm run preview"

[[candidates]]
key = "remix"
name = "Remix"
port = 3002
dir = "apps/remix-app"
run_cmd = "npm start"
health_path = "/healthz"
`), 0o644))

	cands, err := candidates.Load(path)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	require.Equal(t, "astro", cands[0].Key)
	require.Equal(t, 4321, cands[0].Port)
	require.Equal(t, "npm run preview", cands[0].RunCmd)
	require.Equal(t, "http://localhost:3002/healthz", cands[1].HealthURL())
}

func TestLoadRejectsInvalidRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[candidates]]
key = "a"
port = 8080

[[candidates]]
key = "a"
port = 8081
`), 0o644))

	_, err := candidates.Load(path)
	require.ErrorContains(t, err, "duplicate candidate key")

	_, err = candidates.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
