package positions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultRemoteBase, cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, ":3000", cfg.Proxy.Addr)
	assert.Equal(t, "/api/proxy/", cfg.Proxy.Prefix)
	assert.Equal(t, "3000", cfg.Proxy.DevPort)
	assert.Equal(t, []string{"*"}, cfg.Proxy.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, cfg.Proxy.CORS.AllowedMethods)
	assert.Equal(t, []string{"Content-Type", "Authorization"}, cfg.Proxy.CORS.AllowedHeaders)
	assert.False(t, cfg.MCP.Enabled)
	assert.Equal(t, "Positions API", cfg.MCP.ServerName)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.Equal(t, DefaultResolver(), cfg.Resolver())
}

func TestParseConfigFromBytes(t *testing.T) {
	t.Setenv("POSITIONS_TEST_API", "https://staging.example.com")
	t.Setenv("POSITIONS_TEST_KEY", "k-123")

	cfg, err := ParseConfigFromBytes([]byte(`
backend:
  base_url: ${POSITIONS_TEST_API}/
  timeout: 45
  default_headers:
    - name: X-API-Key
      value: $POSITIONS_TEST_KEY
proxy:
  addr: 127.0.0.1:8080
  dev_port: "5173"
  dev_hosts: [Dev.Internal]
  cors:
    allowed_origins: [http://localhost:5173]
mcp:
  enabled: true
  server_name: Staging Positions
logging:
  level: debug
  format: json
`))
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Backend.Timeout.Std())
	require.Len(t, cfg.Backend.DefaultHeaders, 1)
	assert.Equal(t, "k-123", cfg.Backend.DefaultHeaders[0].Value)
	assert.Equal(t, "127.0.0.1:8080", cfg.Proxy.Addr)
	assert.Equal(t, []string{"dev.internal"}, cfg.Proxy.DevHosts)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Proxy.CORS.AllowedOrigins)
	assert.Equal(t, []string{"Content-Type", "Authorization"}, cfg.Proxy.CORS.AllowedHeaders)
	assert.True(t, cfg.MCP.Enabled)
	assert.Equal(t, "Staging Positions", cfg.MCP.ServerName)
	assert.Equal(t, "1.0.0", cfg.MCP.Version)
	assert.Equal(t, "json", cfg.Logging.Format)

	r := cfg.Resolver()
	assert.Equal(t, "", r.Resolve(Environment{Browser: true, Hostname: "dev.internal"}))
	assert.Equal(t, "", r.Resolve(Environment{Browser: true, Hostname: "app.example.com", Port: "5173"}))
}

func TestParseConfigFromBytes_UnsetVariableFallsBackToDefault(t *testing.T) {
	cfg, err := ParseConfigFromBytes([]byte("backend:\n  base_url: ${POSITIONS_TEST_UNSET_VARIABLE}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRemoteBase, cfg.Backend.BaseURL)
}

func TestParseConfigFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "backend: [unterminated"},
		{"relative base url", "backend:\n  base_url: /api\n"},
		{"ftp base url", "backend:\n  base_url: ftp://example.com\n"},
		{"bad timeout", "backend:\n  timeout: soon\n"},
		{"negative timeout", "backend:\n  timeout: -5s\n"},
		{"header without name", "backend:\n  default_headers:\n    - value: x\n"},
		{"relative prefix", "proxy:\n  prefix: api/proxy/\n"},
		{"bad cors method", "proxy:\n  cors:\n    allowed_methods: [PATCH]\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigFromBytes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("proxy:\n  addr: :4000\n"), 0o644))

	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Proxy.Addr)

	t.Setenv("POSITIONS_TEST_DIR", dir)
	cfg, err = ParseConfig("$POSITIONS_TEST_DIR/positions.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Proxy.Addr)

	_, err = ParseConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".positions/token"), expandPath("~/.positions/token"))
	assert.Equal(t, "/tmp/token", expandPath("/tmp/token"))
}
