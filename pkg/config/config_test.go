package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/sql-optimizer/pkg/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
id: team
dialect: postgresql
strict: true
parallelism: 4
rules:
  - type: performance.select-star
    level: disabled
  - type: index.sort-columns
server:
  addr: ":9000"
  allowed_origins: ["https://example.com"]
cache:
  enabled: true
  ttl_seconds: 60
log:
  format: json
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "team", cfg.ID)
	assert.Equal(t, types.Dialect_POSTGRES, cfg.Dialect)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 4, cfg.Parallelism)
	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, RuleLevelDisabled, cfg.Rules[0].Level)
	assert.Equal(t, RuleLevelEnabled, cfg.Rules[1].Level)
	assert.Equal(t, []string{"performance.select-star"}, cfg.DisabledRules())

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)
	assert.Equal(t, DefaultCacheAddr, cfg.Cache.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeTemp(t, "rules.json", `{
  "id": "json",
  "dialect": "mssql",
  "rules": [{"type": "join.implicit", "level": "DISABLED"}]
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.Dialect_MSSQL, cfg.Dialect)
	assert.Equal(t, []string{"join.implicit"}, cfg.DisabledRules())
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
}

func TestLoadFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no type", "rules:\n  - level: disabled\n", "has no type"},
		{"bad level", "rules:\n  - type: join.implicit\n    level: sometimes\n", "unknown level"},
		{"not a document", "{{{", "failed to parse config file"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFromFile(writeTemp(t, "c.yaml", tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("default")
	assert.Equal(t, types.Dialect_DIALECT_UNSPECIFIED, cfg.Dialect)
	assert.Empty(t, cfg.DisabledRules())
	assert.Equal(t, []string{DefaultOrigin}, cfg.Server.AllowedOrigins)
	assert.EqualValues(t, DefaultMaxBodyBytes, cfg.Server.MaxBodyBytes)
	assert.Equal(t, DefaultCachePrefix, cfg.Cache.Prefix)
}

func TestValidate(t *testing.T) {
	known := []string{"join.implicit", "index.sort-columns"}

	cfg := DefaultConfig("x")
	cfg.Rules = []*RuleConfig{{Type: "join.implicit", Level: RuleLevelDisabled}}
	assert.NoError(t, cfg.Validate(known))

	cfg.Rules = append(cfg.Rules, &RuleConfig{Type: "join.nope"})
	err := cfg.Validate(known)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "join.nope")

	cfg.Rules = nil
	cfg.Parallelism = -1
	assert.Error(t, cfg.Validate(known))
}

func TestTemplate_RoundTrip(t *testing.T) {
	cfg := Template([]string{"join.implicit", "index.sort-columns"}, types.Dialect_MYSQL)
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, WriteFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.Dialect_MYSQL, loaded.Dialect)
	require.Len(t, loaded.Rules, 2)
	assert.Equal(t, "index.sort-columns", loaded.Rules[1].Type)
	assert.Empty(t, loaded.DisabledRules())
}
