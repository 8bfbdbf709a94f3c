package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webos/pkg/config"
	"webos/pkg/form"
)

const bmiSchema = `{
	"title": "BMI Calculator",
	"description": "Body mass index from height and weight",
	"components": [
		{"type": "number", "id": "height", "label": "Height (cm)", "required": true},
		{"type": "number", "id": "weight", "label": "Weight (kg)", "required": true}
	],
	"calculations": [
		{"type": "formula", "expression": "weight / ((height / 100) * (height / 100))", "outputs": ["BMI"]}
	]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, "bmi.json", bmiSchema))
	require.NoError(t, err)
	assert.Contains(t, out, "BMI Calculator: valid (2 fields, 1 calculations)")

	_, err = run(t, "validate", writeFile(t, "broken.json", `{"title":"broken"}`))
	assert.Error(t, err)

	_, err = run(t, "validate", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestEvalCommand(t *testing.T) {
	path := writeFile(t, "bmi.json", bmiSchema)

	out, err := run(t, "eval", path, "--set", "height=170", "--set", "weight=70")
	require.NoError(t, err)

	var state form.State
	require.NoError(t, json.Unmarshal([]byte(out), &state), out)
	bmi, ok := state.Results["BMI"].Float()
	require.True(t, ok)
	assert.InDelta(t, 24.22, bmi, 0.01)
	assert.Empty(t, state.Errors)

	out, err = run(t, "eval", path, "--set", "height=170")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &state), out)
	assert.Empty(t, state.Results)
	assert.Contains(t, state.Errors, "weight")

	_, err = run(t, "eval", path, "--set", "height")
	assert.Error(t, err)

	_, err = run(t, "eval", path, "--set", "shoe_size=42")
	assert.Error(t, err)
}

func TestConfigWriteCommand(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	path := filepath.Join(t.TempDir(), "conf", "webos.yaml")

	_, err := run(t, "config", "write", path)
	require.NoError(t, err)

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("WEBOS_LLM_API_KEY", "")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, config.Default().Server.Addr, cfg.Server.Addr)
}

func TestRootRejectsBadConfig(t *testing.T) {
	path := writeFile(t, "webos.yaml", "logging:\n  level: loud\n")
	_, err := run(t, "--config", path, "validate", writeFile(t, "bmi.json", bmiSchema))
	assert.Error(t, err)
}

func TestOpenCatalog(t *testing.T) {
	ctx := t.Context()

	store, err := openCatalog(ctx, config.CatalogConfig{Driver: "memory"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = openCatalog(ctx, config.CatalogConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "apps.db")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = openCatalog(ctx, config.CatalogConfig{Driver: "postgres"})
	assert.Error(t, err)
}

func TestWindowConfig(t *testing.T) {
	wc := windowConfig(config.Default().Desktop)
	assert.Equal(t, 1920, wc.ViewportWidth)
	assert.Equal(t, 80, wc.TaskbarHeight)
	assert.Equal(t, 1000, wc.BaseZ)
}
