package notification

import (
	"github.com/voicediary/composite/internal/conf"
	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/mqtt"
	"github.com/voicediary/composite/internal/observability/metrics"
)

// ProvidersFromSettings builds and validates every enabled provider. All
// validation failures are returned together.
func ProvidersFromSettings(settings *conf.NotificationSettings, mqttMetrics *metrics.MQTTMetrics) ([]Provider, error) {
	var (
		providers []Provider
		errs      []error
	)

	if settings.Webhook.Enabled {
		providers = append(providers, NewWebhookProvider(true,
			settings.Webhook.URL, settings.Webhook.Method, settings.Webhook.Headers, settings.Timeout))
	}
	if settings.Shoutrrr.Enabled {
		providers = append(providers, NewShoutrrrProvider(true,
			settings.Shoutrrr.URLs, settings.Shoutrrr.Title, settings.Timeout))
	}
	if settings.MQTT.Enabled {
		cfg := mqtt.DefaultConfig()
		cfg.Broker = settings.MQTT.Broker
		if settings.MQTT.ClientID != "" {
			cfg.ClientID = settings.MQTT.ClientID
		}
		cfg.Username = settings.MQTT.Username
		cfg.Password = settings.MQTT.Password
		cfg.Retain = settings.MQTT.Retain
		cfg.QoS = settings.MQTT.QoS
		if settings.Timeout > 0 {
			cfg.PublishTimeout = settings.Timeout
		}
		client, err := mqtt.NewClient(cfg, mqttMetrics)
		if err != nil {
			errs = append(errs, err)
		} else {
			providers = append(providers, NewMQTTProvider(client, settings.MQTT.TopicPrefix))
		}
	}

	for _, p := range providers {
		if err := p.ValidateConfig(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return providers, nil
}
