package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix is prepended to every environment override, e.g. COMPOSITE_DATABASE_TYPE.
const envPrefix = "COMPOSITE"

type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"database.type", "COMPOSITE_DATABASE_TYPE", validateEnvDatabaseType},
		{"database.sqlite.path", "COMPOSITE_SQLITE_PATH", nil},
		{"database.mysql.host", "COMPOSITE_MYSQL_HOST", nil},
		{"database.mysql.port", "COMPOSITE_MYSQL_PORT", validateEnvPort},
		{"database.mysql.username", "COMPOSITE_MYSQL_USERNAME", nil},
		{"database.mysql.password", "COMPOSITE_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "COMPOSITE_MYSQL_DATABASE", nil},

		{"aggregation.leaseduration", "COMPOSITE_LEASE_DURATION", validateEnvDuration},
		{"aggregation.sweepinterval", "COMPOSITE_SWEEP_INTERVAL", validateEnvDuration},

		{"notification.webhook.url", "COMPOSITE_WEBHOOK_URL", validateEnvURL},
		{"notification.mqtt.broker", "COMPOSITE_MQTT_BROKER", validateEnvURL},
		{"notification.mqtt.password", "COMPOSITE_MQTT_PASSWORD", nil},

		{"sentry.dsn", "COMPOSITE_SENTRY_DSN", validateEnvURL},
		{"debug", "COMPOSITE_DEBUG", validateEnvBool},
	}
}

// bindEnvVars binds explicit variables with validation and enables automatic
// COMPOSITE_<SECTION>_<KEY> lookups for every other key.
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var warnings []string
	for _, binding := range getEnvBindings() {
		if err := v.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}
		if binding.Validate == nil {
			continue
		}
		if value := os.Getenv(binding.EnvVar); value != "" {
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value %q: %v", binding.EnvVar, value, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(value) {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	}
	return fmt.Errorf("must be %q or %q", DatabaseSQLite, DatabaseMySQL)
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}
