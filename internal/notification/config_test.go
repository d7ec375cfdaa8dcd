package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/conf"
)

func TestProvidersFromSettings(t *testing.T) {
	t.Parallel()

	settings := &conf.NotificationSettings{
		Enabled: true,
		Timeout: 2 * time.Second,
		Webhook: conf.WebhookSettings{Enabled: true, URL: "https://example.com/hook"},
		MQTT:    conf.MQTTSettings{Enabled: true, Broker: "tcp://127.0.0.1:1883", TopicPrefix: "diary"},
	}
	providers, err := ProvidersFromSettings(settings, nil)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "webhook", providers[0].GetName())
	assert.Equal(t, "mqtt", providers[1].GetName())
}

func TestProvidersFromSettingsCollectsErrors(t *testing.T) {
	t.Parallel()

	settings := &conf.NotificationSettings{
		Webhook:  conf.WebhookSettings{Enabled: true, URL: "not-a-url"},
		Shoutrrr: conf.ShoutrrrSettings{Enabled: true},
		MQTT:     conf.MQTTSettings{Enabled: true},
	}
	_, err := ProvidersFromSettings(settings, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook URL")
	assert.Contains(t, err.Error(), "shoutrrr URL")
	assert.Contains(t, err.Error(), "broker")
}

func TestProvidersFromSettingsNoneEnabled(t *testing.T) {
	t.Parallel()

	providers, err := ProvidersFromSettings(&conf.NotificationSettings{}, nil)
	require.NoError(t, err)
	assert.Empty(t, providers)
}
