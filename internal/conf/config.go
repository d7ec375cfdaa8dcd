// Package conf loads and validates composite service settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
)

// Settings contains all configuration options for the composite service.
type Settings struct {
	Debug bool `yaml:"debug"`

	Logging      logger.LoggingConfig `yaml:"logging"`
	Database     DatabaseSettings     `yaml:"database"`
	Aggregation  AggregationSettings  `yaml:"aggregation"`
	Fusion       FusionSettings       `yaml:"fusion"`
	Cache        CacheSettings        `yaml:"cache"`
	Notification NotificationSettings `yaml:"notification"`
	Telemetry    TelemetrySettings    `yaml:"telemetry"`
	Sentry       SentrySettings       `yaml:"sentry"`
}

// DatabaseSettings selects and configures the relational store holding job state.
type DatabaseSettings struct {
	Type               string         `yaml:"type"`                                                 // sqlite or mysql
	SlowQueryThreshold time.Duration  `yaml:"slowquerythreshold" mapstructure:"slowquerythreshold"` // 0 disables slow query warnings
	SQLite             SQLiteSettings `yaml:"sqlite"`
	MySQL              MySQLSettings  `yaml:"mysql"`
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Path string `yaml:"path"`
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"maxopenconns"`
	MaxIdleConns    int           `yaml:"maxidleconns"`
	ConnMaxLifetime time.Duration `yaml:"connmaxlifetime"`
}

// AggregationSettings controls the completion barrier and the sweeper.
type AggregationSettings struct {
	LeaseDuration  time.Duration `yaml:"leaseduration"`  // how long an aggregation lock is honoured
	SweepInterval  time.Duration `yaml:"sweepinterval"`  // period of the reclaim and retry loop
	SweepBatchSize int           `yaml:"sweepbatchsize"` // ready jobs retried per sweep
	SweepRate      float64       `yaml:"sweeprate"`      // retries per second, 0 for unlimited
	SweepOnStart   bool          `yaml:"sweeponstart"`
}

// AnchorSettings is a (valence, arousal) point for one emotion category.
type AnchorSettings struct {
	Valence float64 `yaml:"valence"`
	Arousal float64 `yaml:"arousal"`
}

// FusionSettings holds the tunable constants of the valence-arousal fusion.
type FusionSettings struct {
	ArousalK        float64                   `yaml:"arousalk"`
	Epsilon         float64                   `yaml:"epsilon"`
	SurpriseDamping float64                   `yaml:"surprisedamping"`
	SurpriseCapBps  int                       `yaml:"surprisecapbps"`
	Anchors         map[string]AnchorSettings `yaml:"anchors"`
}

// CacheSettings configures the composite read cache.
type CacheSettings struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// NotificationSettings configures fan-out of finished composites.
type NotificationSettings struct {
	Enabled   bool             `yaml:"enabled"`
	Workers   int              `yaml:"workers"`
	QueueSize int              `yaml:"queuesize"`
	Timeout   time.Duration    `yaml:"timeout"`
	History   bool             `yaml:"history"` // persist a row per delivered notification
	Webhook   WebhookSettings  `yaml:"webhook"`
	Shoutrrr  ShoutrrrSettings `yaml:"shoutrrr"`
	MQTT      MQTTSettings     `yaml:"mqtt"`
}

// WebhookSettings configures the JSON webhook provider.
type WebhookSettings struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Method  string            `yaml:"method"`
	Headers map[string]string `yaml:"headers"`
}

// ShoutrrrSettings configures push delivery through shoutrrr service URLs.
type ShoutrrrSettings struct {
	Enabled bool     `yaml:"enabled"`
	URLs    []string `yaml:"urls"`
	Title   string   `yaml:"title"`
}

// MQTTSettings contains settings for MQTT publishing.
type MQTTSettings struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"clientid"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topicprefix"`
	Retain      bool   `yaml:"retain"`
	QoS         byte   `yaml:"qos"`
}

// TelemetrySettings controls the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// SentrySettings controls error reporting.
type SentrySettings struct {
	Enabled     bool   `yaml:"enabled"`
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables. An empty
// configFile searches the default config paths; a missing file means
// defaults plus environment.
func Load(configFile string) (*Settings, error) {
	v, err := initViper(configFile)
	if err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	return settings, nil
}

// GetSettings returns the most recently loaded settings, or nil.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

func initViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		for _, path := range GetDefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, errors.New(fmt.Errorf("error reading config file: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return v, nil
}

// Defaults returns settings built from defaults only.
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	// defaults always decode
	_ = v.Unmarshal(settings)
	return settings
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "windows" {
			paths = append(paths, filepath.Join(home, "AppData", "Roaming", "composite"))
		} else {
			paths = append(paths, filepath.Join(home, ".config", "composite"))
		}
	}
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/composite")
	}
	return paths
}

// SaveYAMLConfig writes settings to configPath through a temporary file and rename.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
