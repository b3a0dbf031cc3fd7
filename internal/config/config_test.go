package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	RegisterFlags(cmd)
	RegisterRetrievalFlags(cmd)
	RegisterOutputFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newCommand(t))
	require.NoError(t, err)

	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultBaseURL, cfg.FeedLink)
	require.Equal(t, models.ModeAuto, cfg.Mode)
	require.Equal(t, DefaultRateLimitRPS, cfg.RateLimitRPS)
	require.Equal(t, DefaultDOMWait, cfg.DOMWait)
	require.False(t, cfg.Browser)
	require.Empty(t, cfg.Plan.Queries)
}

func TestLoad_YAMLPlan(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plan.yaml", `
states: [NV, UT]
queries:
  - searchText: solar
    perState: true
searches:
  - name: Lithium
    url: https://eplanning.blm.gov/eplanning-ui/search?filter=lithium
options:
  baseUrl: https://example.test/
  outputDir: /tmp/feeds
  domWait: 5s
  browser: true
  headers:
    X-Api-Key: abc
`)

	cfg, err := Load(newCommand(t, "--config", path))
	require.NoError(t, err)

	require.Equal(t, []string{"NV", "UT"}, cfg.Plan.States)
	require.Len(t, cfg.Plan.Queries, 1)
	require.True(t, cfg.Plan.Queries[0].PerState)
	require.Len(t, cfg.Plan.Searches, 1)
	require.Equal(t, "https://example.test", cfg.BaseURL)
	require.Equal(t, "/tmp/feeds", cfg.OutputDir)
	require.Equal(t, 5*time.Second, cfg.DOMWait)
	require.True(t, cfg.Browser)
	require.Equal(t, "abc", cfg.Headers["X-Api-Key"])
	// Unset options keep their defaults.
	require.Equal(t, DefaultFeedTitle, cfg.FeedTitle)
	require.Equal(t, DefaultAPIPath, cfg.APIPath)
}

func TestLoad_JSON5PlanWithLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plan.json5", `{
  // national searches
  queries: [{searchText: "wind"}],
  options: {feedTitle: "Wind Projects", rps: 2},
}`)
	writeFile(t, dir, "plan.local.json5", `{options: {feedTitle: "Local Wind"}}`)

	cfg, err := Load(newCommand(t, "--config", path))
	require.NoError(t, err)

	require.Equal(t, "wind", cfg.Plan.Queries[0].SearchText)
	require.Equal(t, "Local Wind", cfg.FeedTitle)
	require.Equal(t, 2.0, cfg.RateLimitRPS)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plan.yml", `
options:
  outputDir: from-file
  mode: static
  userAgent: file-agent
`)
	t.Setenv("NEPAFEED_OUTPUT_DIR", "from-env")
	t.Setenv("NEPAFEED_USER_AGENT", "env-agent")

	cfg, err := Load(newCommand(t, "--config", path, "--out", "from-flag", "-H", "Accept-Language: en", "--rps", "0.5"))
	require.NoError(t, err)

	require.Equal(t, "from-flag", cfg.OutputDir)
	require.Equal(t, "env-agent", cfg.UserAgent)
	require.Equal(t, models.ModeStatic, cfg.Mode)
	require.Equal(t, "en", cfg.Headers["Accept-Language"])
	require.Equal(t, 0.5, cfg.RateLimitRPS)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(newCommand(t, "--config", filepath.Join(dir, "missing.yaml")))
	require.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "queries: [unterminated")
	_, err = Load(newCommand(t, "--config", bad))
	require.Error(t, err)

	_, err = Load(newCommand(t, "--mode", "telepathy"))
	require.ErrorContains(t, err, "unknown mode")

	_, err = Load(newCommand(t, "--base-url", "not a url"))
	require.Error(t, err)

	_, err = Load(newCommand(t, "--dom-wait", "soon"))
	require.Error(t, err)
}

func TestLocalOverridePath(t *testing.T) {
	require.Equal(t, "/etc/nepafeed/plan.local.yaml", LocalOverridePath("/etc/nepafeed/plan.yaml"))
}
