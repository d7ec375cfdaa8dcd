package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers default values for every configuration key.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/composite.log")
	v.SetDefault("logging.file_output.level", "info")
	v.SetDefault("logging.module_levels", map[string]string{})

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.slowquerythreshold", 200*time.Millisecond)
	v.SetDefault("database.sqlite.path", "composite.db")
	v.SetDefault("database.mysql.host", "localhost")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.username", "")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.database", "composite")
	v.SetDefault("database.mysql.maxopenconns", 100)
	v.SetDefault("database.mysql.maxidleconns", 10)
	v.SetDefault("database.mysql.connmaxlifetime", time.Hour)

	v.SetDefault("aggregation.leaseduration", 5*time.Minute)
	v.SetDefault("aggregation.sweepinterval", time.Minute)
	v.SetDefault("aggregation.sweepbatchsize", 50)
	v.SetDefault("aggregation.sweeprate", 20.0)
	v.SetDefault("aggregation.sweeponstart", true)

	v.SetDefault("fusion.arousalk", 3.0)
	v.SetDefault("fusion.epsilon", 1e-8)
	v.SetDefault("fusion.surprisedamping", 0.3)
	v.SetDefault("fusion.surprisecapbps", 1000)
	v.SetDefault("fusion.anchors", map[string]any{
		"happy":    map[string]float64{"valence": 0.80, "arousal": 0.60},
		"sad":      map[string]float64{"valence": -0.70, "arousal": -0.40},
		"neutral":  map[string]float64{"valence": 0.0, "arousal": 0.0},
		"angry":    map[string]float64{"valence": -0.70, "arousal": 0.80},
		"fear":     map[string]float64{"valence": -0.60, "arousal": 0.70},
		"surprise": map[string]float64{"valence": 0.0, "arousal": 0.85},
	})

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.workers", 2)
	v.SetDefault("notification.queuesize", 100)
	v.SetDefault("notification.timeout", 10*time.Second)
	v.SetDefault("notification.history", true)
	v.SetDefault("notification.webhook.enabled", false)
	v.SetDefault("notification.webhook.url", "")
	v.SetDefault("notification.webhook.method", "POST")
	v.SetDefault("notification.webhook.headers", map[string]string{})
	v.SetDefault("notification.shoutrrr.enabled", false)
	v.SetDefault("notification.shoutrrr.urls", []string{})
	v.SetDefault("notification.shoutrrr.title", "Voice diary")
	v.SetDefault("notification.mqtt.enabled", false)
	v.SetDefault("notification.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("notification.mqtt.clientid", "composite")
	v.SetDefault("notification.mqtt.username", "")
	v.SetDefault("notification.mqtt.password", "")
	v.SetDefault("notification.mqtt.topicprefix", "composite")
	v.SetDefault("notification.mqtt.retain", false)
	v.SetDefault("notification.mqtt.qos", 1)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.listen", "0.0.0.0:8090")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}
