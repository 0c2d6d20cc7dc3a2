package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetEnv clears key for the test and restores it afterwards
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfig_Defaults(t *testing.T) {
	unsetEnv(t, "ODP_API_KEY")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/patent_database", cfg.Server.BasePath)
	assert.Equal(t, "Patent Search Tool", cfg.Server.ToolName)
	assert.Equal(t, "https://api.uspto.gov", cfg.ODP.BaseURL)
	assert.Equal(t, "", cfg.ODP.APIKey)
	assert.Equal(t, 60*time.Second, cfg.ODP.Timeout)
	assert.Equal(t, 30*time.Second, cfg.ODP.ProbeTimeout)
	assert.Equal(t, 5, cfg.ODP.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.ODP.RetryDelay)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 80*time.Second, cfg.Server.SearchTimeout)
	assert.Less(t, cfg.Server.SearchTimeout, cfg.Server.WriteTimeout)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
  tool_name: Acme Patents
odp:
  base_url: http://localhost:4010
  api_key: from-file
  retry_delay: 250ms
redis:
  enabled: true
  addr: redis:6379
rate_limit:
  enabled: true
  max_requests: 10
  strategy: endpoint
log:
  level: debug
  format: console
`)
	t.Setenv("ODP_API_KEY", "from-env")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(path, filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "Acme Patents", cfg.Server.ToolName)
	assert.Equal(t, "http://localhost:4010", cfg.ODP.BaseURL)
	assert.Equal(t, "from-env", cfg.ODP.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.ODP.RetryDelay)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 60, cfg.RateLimit.WindowSeconds)
	assert.Equal(t, "endpoint", cfg.RateLimit.Strategy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	unsetEnv(t, "ODP_API_KEY")
	envFile := writeFile(t, ".env", "ODP_API_KEY=from-dotenv\n")

	cfg, err := LoadConfig("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.ODP.APIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "port", yaml: "server:\n  port: 70000\n"},
		{name: "base path", yaml: "server:\n  base_path: patent\n"},
		{name: "search outlives write", yaml: "server:\n  write_timeout: 60s\n  search_timeout: 60s\n"},
		{name: "negative search timeout", yaml: "server:\n  search_timeout: -1s\n"},
		{name: "base url", yaml: "odp:\n  base_url: not a url\n"},
		{name: "log level", yaml: "log:\n  level: loud\n"},
		{name: "rate limit without redis", yaml: "rate_limit:\n  enabled: true\n"},
		{name: "strategy", yaml: "redis:\n  enabled: true\nrate_limit:\n  enabled: true\n  strategy: user\n"},
		{name: "malformed", yaml: "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tt.yaml)
			_, err := LoadConfig(path, filepath.Join(t.TempDir(), "none.env"))
			assert.Error(t, err)
		})
	}
}
