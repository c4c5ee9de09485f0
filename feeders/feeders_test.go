package feeders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

func (l *level) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "low":
		*l = 1
	case "high":
		*l = 2
	default:
		*l = 0
	}
	return nil
}

type runSection struct {
	Delay  int64 `yaml:"delay" toml:"delay" json:"delay"`
	Period int64 `yaml:"period" toml:"period" json:"period"`
}

type testConfig struct {
	Timeout time.Duration         `yaml:"timeout" toml:"timeout" json:"timeout" env:"TIMEOUT"`
	Limit   int                   `yaml:"limit" toml:"limit" json:"limit" env:"LIMIT"`
	Overlap bool                  `yaml:"overlap" toml:"overlap" json:"overlap" env:"OVERLAP"`
	Name    string                `yaml:"name" toml:"name" json:"name" env:"NAME"`
	Level   level                 `yaml:"-" toml:"-" json:"-" env:"LEVEL"`
	Beans   map[string]runSection `yaml:"beans" toml:"beans" json:"beans"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestYamlFeeder_FeedKey(t *testing.T) {
	path := writeFile(t, "config.yaml", `
other:
  limit: 99
app:
  timeout: 5s
  limit: 7
  overlap: true
  beans:
    sum:
      delay: 2
      period: 10
`)

	var cfg testConfig
	require.NoError(t, NewYamlFeeder(path).FeedKey("app", &cfg))

	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 7, cfg.Limit)
	assert.True(t, cfg.Overlap)
	assert.Equal(t, runSection{Delay: 2, Period: 10}, cfg.Beans["sum"])
}

func TestTomlFeeder_FeedKey(t *testing.T) {
	path := writeFile(t, "config.toml", `
[app]
timeout = "250ms"
limit = 3
name = "demo"

[app.beans.sum]
delay = 1
period = 4
`)

	var cfg testConfig
	require.NoError(t, NewTomlFeeder(path).FeedKey("app", &cfg))

	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 3, cfg.Limit)
	assert.Equal(t, "demo", cfg.Name)
	assert.Equal(t, runSection{Delay: 1, Period: 4}, cfg.Beans["sum"])
}

func TestJSONFeeder_FeedKey(t *testing.T) {
	path := writeFile(t, "config.json", `{"app": {"timeout": 1000000, "limit": 4, "beans": {"sum": {"delay": 3}}}}`)

	var cfg testConfig
	require.NoError(t, NewJSONFeeder(path).FeedKey("app", &cfg))

	assert.Equal(t, time.Millisecond, cfg.Timeout)
	assert.Equal(t, 4, cfg.Limit)
	assert.Equal(t, int64(3), cfg.Beans["sum"].Delay)
}

func TestFileFeeders_MissingKeyLeavesTargetUntouched(t *testing.T) {
	yamlPath := writeFile(t, "config.yaml", "other:\n  limit: 1\n")
	tomlPath := writeFile(t, "config.toml", "[other]\nlimit = 1\n")
	jsonPath := writeFile(t, "config.json", `{"other": {"limit": 1}}`)

	for name, f := range map[string]interface {
		FeedKey(string, any) error
	}{
		"yaml": NewYamlFeeder(yamlPath),
		"toml": NewTomlFeeder(tomlPath),
		"json": NewJSONFeeder(jsonPath),
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig{Limit: 42}
			require.NoError(t, f.FeedKey("app", &cfg))
			assert.Equal(t, 42, cfg.Limit)
		})
	}
}

func TestFileFeeders_MissingFile(t *testing.T) {
	var cfg testConfig
	err := NewYamlFeeder(filepath.Join(t.TempDir(), "absent.yaml")).FeedKey("app", &cfg)
	assert.Error(t, err)
}

func TestAffixedEnvFeeder(t *testing.T) {
	t.Setenv("DIH_TIMEOUT_TEST", "45s")
	t.Setenv("DIH_LIMIT_TEST", "12")
	t.Setenv("DIH_OVERLAP_TEST", "true")
	t.Setenv("DIH_LEVEL_TEST", "high")
	t.Setenv("LIMIT", "1000")

	cfg := testConfig{Name: "kept"}
	require.NoError(t, NewAffixedEnvFeeder("dih", "test").FeedKey("ignored", &cfg))

	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 12, cfg.Limit)
	assert.True(t, cfg.Overlap)
	assert.Equal(t, level(2), cfg.Level)
	assert.Equal(t, "kept", cfg.Name)
}

func TestAffixedEnvFeeder_Errors(t *testing.T) {
	var cfg testConfig

	assert.ErrorIs(t, NewAffixedEnvFeeder("", "").Feed(&cfg), ErrEnvEmptyPrefixAndSuffix)
	assert.ErrorIs(t, NewAffixedEnvFeeder("DIH", "").Feed(cfg), ErrEnvInvalidStructure)
	assert.ErrorIs(t, NewAffixedEnvFeeder("DIH", "").Feed(nil), ErrEnvInvalidStructure)

	t.Setenv("DIH_TIMEOUT", "soon")
	assert.Error(t, NewAffixedEnvFeeder("DIH", "").Feed(&cfg))
}
