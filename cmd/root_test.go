package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/conf"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`logging:
  default_level: error
  console:
    enabled: true
    level: error
database:
  type: sqlite
  sqlite:
    path: %s
`, filepath.Join(dir, "composite.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := RootCommand(&conf.Settings{}, "test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestIngestBothHalvesThenShow(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "ingest", "text", "7", "--score", "0.5", "--magnitude", "1.0", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "fused=false")

	out, err = execute(t, "ingest", "audio", "7", "--happy", "0.8", "--neutral", "0.2", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "fused=true")

	out, err = execute(t, "show", "7", "--format", "yaml", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "top_emotion: happy")
	assert.Contains(t, out, "sad: 0")

	out, err = execute(t, "job", "7", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "aggregated"`)

	out, err = execute(t, "recompute", "7", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"top_emotion": "happy"`)

	out, err = execute(t, "representative", "7", "8", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "happy (1 of 2 recordings fused)")
}

func TestSweepReportsEmptyRun(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "sweep", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"candidates": 0`)
}

func TestShowMissingComposite(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "show", "99", "--config", cfg)
	require.Error(t, err)
}

func TestInvalidRecordingID(t *testing.T) {
	cfg := writeConfig(t)

	_, err := execute(t, "ingest", "text", "abc", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recording id")
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	loaded, err := conf.Load(path)
	require.NoError(t, err)
	assert.Equal(t, conf.Defaults().Aggregation, loaded.Aggregation)

	_, err = execute(t, "config", "init", path)
	require.Error(t, err, "existing file must not be overwritten without --force")

	_, err = execute(t, "config", "init", path, "--force")
	require.NoError(t, err)
}
