package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "backend: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, 9200, cfg.HTTP.Port)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "pcf", cfg.Redis.Namespace)
	assert.Equal(t, 200, cfg.Query.ScanPageSize)
	assert.Equal(t, 5000, cfg.Query.MaxResults)
	assert.Equal(t, "2.0.0", cfg.Query.MultiTenantMinClientVersion)
	assert.Equal(t, []string{"admin"}, cfg.Auth.TrustedRoles)
	assert.Equal(t, 60, cfg.JWT.ExpMin)
	assert.Empty(t, cfg.Query.RequesterGroups)
	assert.Empty(t, cfg.Redis.Shards)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backend:
  port: 8080
  db:
    driver: sqlite
    path: /var/lib/pcf/history.db
  redis:
    namespace: prod
    shards:
      - moniker: shard-1
        url: redis://q1:6379/0
      - moniker: PcfQueue-West01
        url: redis://q2:6379/0
  auth:
    trusted_roles: [admin, auditor]
    bootstrap_admin:
      username: root
      password: hunter2
  query:
    max_results: 100
    requester_groups:
      - [portal, portal-ppe]
  log:
    level: debug
    format: json
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/var/lib/pcf/history.db", cfg.DB.Path)
	assert.Equal(t, "prod", cfg.Redis.Namespace)
	assert.Equal(t, map[string]string{"shard-1": "redis://q1:6379/0", "PcfQueue-West01": "redis://q2:6379/0"}, cfg.Redis.Shards)
	assert.Equal(t, []string{"admin", "auditor"}, cfg.Auth.TrustedRoles)
	assert.Equal(t, "root", cfg.Auth.BootstrapAdmin.Username)
	assert.Equal(t, 100, cfg.Query.MaxResults)
	assert.Equal(t, [][]string{{"portal", "portal-ppe"}}, cfg.Query.RequesterGroups)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadShardMonikerKeepsCase(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
backend:
  redis:
    shards:
      - moniker: PcfQueue-West01
        url: redis://q1:6379/0
`))
	require.NoError(t, err)

	url, ok := cfg.Redis.Shards["PcfQueue-West01"]
	require.True(t, ok, "shards: %v", cfg.Redis.Shards)
	assert.Equal(t, "redis://q1:6379/0", url)
	assert.NotContains(t, cfg.Redis.Shards, "pcfqueue-west01")
}

func TestLoadRejectsBadShards(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing url", "backend:\n  redis:\n    shards:\n      - moniker: a\n"},
		{"duplicate moniker", "backend:\n  redis:\n    shards:\n      - {moniker: a, url: redis://x}\n      - {moniker: a, url: redis://y}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
