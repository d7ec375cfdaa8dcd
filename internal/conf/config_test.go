package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	t.Parallel()

	s := Defaults()
	require.NoError(t, ValidateSettings(s))

	assert.Equal(t, DatabaseSQLite, s.Database.Type)
	assert.Equal(t, 5*time.Minute, s.Aggregation.LeaseDuration)
	assert.InDelta(t, 20.0, s.Aggregation.SweepRate, 1e-12)
	assert.InDelta(t, 3.0, s.Fusion.ArousalK, 1e-12)
	assert.Equal(t, 1000, s.Fusion.SurpriseCapBps)
	assert.Len(t, s.Fusion.Anchors, 6)
	assert.InDelta(t, 0.85, s.Fusion.Anchors["surprise"].Arousal, 1e-12)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
database:
  type: mysql
  mysql:
    host: db.internal
    username: composite
    database: voices
aggregation:
  leaseduration: 90s
fusion:
  surprisecapbps: 500
notification:
  enabled: true
  webhook:
    enabled: true
    url: https://hooks.example.com/composite
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DatabaseMySQL, s.Database.Type)
	assert.Equal(t, "db.internal", s.Database.MySQL.Host)
	assert.Equal(t, "3306", s.Database.MySQL.Port)
	assert.Equal(t, 90*time.Second, s.Aggregation.LeaseDuration)
	assert.Equal(t, 500, s.Fusion.SurpriseCapBps)
	assert.True(t, s.Notification.Webhook.Enabled)
	assert.Equal(t, "POST", s.Notification.Webhook.Method)
	assert.Same(t, s, GetSettings())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("COMPOSITE_SQLITE_PATH", "/var/lib/composite/jobs.db")
	t.Setenv("COMPOSITE_LEASE_DURATION", "2m")
	t.Setenv("COMPOSITE_AGGREGATION_SWEEPBATCHSIZE", "7")

	s, err := Load(writeConfig(t, "debug: false\n"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/composite/jobs.db", s.Database.SQLite.Path)
	assert.Equal(t, 2*time.Minute, s.Aggregation.LeaseDuration)
	assert.Equal(t, 7, s.Aggregation.SweepBatchSize)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("COMPOSITE_DATABASE_TYPE", "postgres")

	_, err := Load(writeConfig(t, "debug: true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPOSITE_DATABASE_TYPE")
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	s := Defaults()
	s.Database.Type = "oracle"
	s.Aggregation.LeaseDuration = 0
	s.Fusion.SurpriseDamping = 1.5
	delete(s.Fusion.Anchors, "fear")
	s.Notification.Enabled = true
	s.Notification.Webhook.Enabled = true
	s.Notification.Webhook.URL = "not a url"

	err := ValidateSettings(s)
	require.Error(t, err)

	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 5)
	assert.Contains(t, err.Error(), "fusion.anchors.fear is missing")
}

func TestSaveYAMLConfigCanBeReloaded(t *testing.T) {
	t.Parallel()

	s := Defaults()
	s.Aggregation.SweepBatchSize = 12
	s.Notification.Shoutrrr.URLs = []string{"generic://example.com/hook"}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveYAMLConfig(path, s))

	v, err := initViper(path)
	require.NoError(t, err)
	loaded := &Settings{}
	require.NoError(t, v.Unmarshal(loaded))

	assert.Equal(t, 12, loaded.Aggregation.SweepBatchSize)
	assert.Equal(t, s.Aggregation.LeaseDuration, loaded.Aggregation.LeaseDuration)
	assert.Equal(t, []string{"generic://example.com/hook"}, loaded.Notification.Shoutrrr.URLs)
}
