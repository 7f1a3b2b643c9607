package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, FileVersion, cfg.Version)
	assert.Equal(t, "latest", cfg.SpecVersion)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Empty(t, cfg.Engines)
	assert.NotNil(t, cfg.Alias)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Default()
	require.NoError(t, cfg.AddEngine(Engine{
		Name:   "local",
		URL:    "http://localhost:8080/engine-rest",
		Auth:   &Auth{User: "demo", Password: "demo"},
		Verify: true,
	}, true))
	require.NoError(t, cfg.AddEngine(Engine{Name: "prod", URL: "https://camunda.example.com/engine-rest"}, false))
	require.NoError(t, cfg.AddAlias("pi", "processInstances"))
	cfg.Template.ExtraPaths = []string{"/srv/templates"}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", loaded.CurrentEngine)
	require.Len(t, loaded.Engines, 2)
	assert.Equal(t, "demo", loaded.Engines[0].Auth.User)
	assert.True(t, loaded.Engines[0].Verify)
	assert.Nil(t, loaded.Engines[1].Auth)
	assert.Equal(t, map[string]string{"pi": "processInstances"}, loaded.Alias)
	assert.Equal(t, []string{"/srv/templates"}, loaded.Template.ExtraPaths)
}

func TestEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, Save(path, Default()))
	t.Setenv("CAMUNDACTL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "/tmp/custom.yml")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yml", p)
}

func TestEngineRegistry(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.AddEngine(Engine{Name: "a", URL: "http://a"}, false))
	require.NoError(t, cfg.AddEngine(Engine{Name: "b", URL: "http://b"}, true))

	err := cfg.AddEngine(Engine{Name: "a"}, false)
	assert.True(t, errors.Is(err, ErrEngineExists))

	e, err := cfg.Selected("")
	require.NoError(t, err)
	assert.Equal(t, "b", e.Name)

	e, err = cfg.Selected("a")
	require.NoError(t, err)
	assert.Equal(t, "http://a", e.URL)

	_, err = cfg.Selected("c")
	assert.True(t, errors.Is(err, ErrEngineNotFound))
	assert.Contains(t, err.Error(), "a, b")

	require.NoError(t, cfg.UseEngine("a"))
	assert.Equal(t, "a", cfg.CurrentEngine)

	require.NoError(t, cfg.RemoveEngine("a"))
	assert.Equal(t, []string{"b"}, cfg.EngineNames())
	assert.Empty(t, cfg.CurrentEngine)

	_, err = cfg.Selected("")
	assert.ErrorIs(t, err, ErrNoEngine)

	assert.ErrorIs(t, cfg.RemoveEngine("a"), ErrEngineNotFound)
	assert.ErrorIs(t, cfg.UseEngine("zzz"), ErrEngineNotFound)
}

func TestAliases(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.AddAlias("pi", "processInstances"))
	require.NoError(t, cfg.AddAlias("instances", "processInstances"))
	require.NoError(t, cfg.AddAlias("t", "task"))

	assert.Equal(t, []string{"instances", "pi"}, cfg.AliasesFor("processInstances"))
	assert.Empty(t, cfg.AliasesFor("incident"))

	require.NoError(t, cfg.RemoveAlias("pi"))
	assert.Equal(t, []string{"instances"}, cfg.AliasesFor("processInstances"))
	assert.ErrorIs(t, cfg.RemoveAlias("pi"), ErrAliasNotFound)
	assert.Error(t, cfg.AddAlias("", "x"))
}

func TestAliasKeepsCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := Default()
	require.NoError(t, cfg.AddAlias("PI", "processInstances"))
	require.NoError(t, cfg.AddAlias("pi", "processInstance"))
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"PI": "processInstances", "pi": "processInstance"}, loaded.Alias)
}
