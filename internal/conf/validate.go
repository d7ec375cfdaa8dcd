package conf

import (
	"fmt"
	"net"
	"strings"
)

const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// emotionLabels are the categories every anchor table must define.
var emotionLabels = []string{"happy", "sad", "neutral", "angry", "fear", "surprise"}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct and reports every problem at once.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}
	for _, check := range []func(*Settings) []string{
		validateDatabaseSettings,
		validateAggregationSettings,
		validateFusionSettings,
		validateNotificationSettings,
		validateTelemetrySettings,
	} {
		ve.Errors = append(ve.Errors, check(settings)...)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(s *Settings) []string {
	var errs []string
	db := &s.Database
	db.Type = strings.ToLower(db.Type)
	switch db.Type {
	case DatabaseSQLite:
		if db.SQLite.Path == "" {
			errs = append(errs, "database.sqlite.path is required")
		}
	case DatabaseMySQL:
		if db.MySQL.Host == "" || db.MySQL.Database == "" || db.MySQL.Username == "" {
			errs = append(errs, "database.mysql requires host, database and username")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.type must be %q or %q, got %q", DatabaseSQLite, DatabaseMySQL, db.Type))
	}
	return errs
}

func validateAggregationSettings(s *Settings) []string {
	var errs []string
	a := s.Aggregation
	if a.LeaseDuration <= 0 {
		errs = append(errs, "aggregation.leaseduration must be positive")
	}
	if a.SweepInterval <= 0 {
		errs = append(errs, "aggregation.sweepinterval must be positive")
	}
	if a.SweepBatchSize <= 0 {
		errs = append(errs, "aggregation.sweepbatchsize must be positive")
	}
	if a.SweepRate < 0 {
		errs = append(errs, "aggregation.sweeprate must not be negative")
	}
	return errs
}

func validateFusionSettings(s *Settings) []string {
	var errs []string
	f := s.Fusion
	if f.ArousalK <= 0 {
		errs = append(errs, "fusion.arousalk must be positive")
	}
	if f.Epsilon <= 0 {
		errs = append(errs, "fusion.epsilon must be positive")
	}
	if f.SurpriseDamping < 0 || f.SurpriseDamping > 1 {
		errs = append(errs, "fusion.surprisedamping must be within [0, 1]")
	}
	if f.SurpriseCapBps < 0 || f.SurpriseCapBps > 10000 {
		errs = append(errs, "fusion.surprisecapbps must be within [0, 10000]")
	}
	for _, label := range emotionLabels {
		anchor, ok := f.Anchors[label]
		if !ok {
			errs = append(errs, fmt.Sprintf("fusion.anchors.%s is missing", label))
			continue
		}
		if anchor.Valence < -1 || anchor.Valence > 1 || anchor.Arousal < -1 || anchor.Arousal > 1 {
			errs = append(errs, fmt.Sprintf("fusion.anchors.%s must lie within [-1, 1]", label))
		}
	}
	return errs
}

func validateNotificationSettings(s *Settings) []string {
	n := s.Notification
	if !n.Enabled {
		return nil
	}
	var errs []string
	if n.Workers <= 0 {
		errs = append(errs, "notification.workers must be positive")
	}
	if n.QueueSize <= 0 {
		errs = append(errs, "notification.queuesize must be positive")
	}
	if n.Webhook.Enabled {
		if err := validateEnvURL(n.Webhook.URL); err != nil {
			errs = append(errs, fmt.Sprintf("notification.webhook.url: %v", err))
		}
	}
	if n.Shoutrrr.Enabled && len(n.Shoutrrr.URLs) == 0 {
		errs = append(errs, "notification.shoutrrr.urls must not be empty when shoutrrr is enabled")
	}
	if n.MQTT.Enabled {
		if n.MQTT.Broker == "" {
			errs = append(errs, "notification.mqtt.broker is required when mqtt is enabled")
		}
		if n.MQTT.QoS > 2 {
			errs = append(errs, "notification.mqtt.qos must be 0, 1 or 2")
		}
	}
	return errs
}

func validateTelemetrySettings(s *Settings) []string {
	var errs []string
	if s.Telemetry.Enabled {
		if _, _, err := net.SplitHostPort(s.Telemetry.Listen); err != nil {
			errs = append(errs, fmt.Sprintf("telemetry.listen: %v", err))
		}
	}
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		errs = append(errs, "sentry.dsn is required when sentry is enabled")
	}
	return errs
}
