package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/mqtt"
)

// MQTTProvider publishes each event as JSON to <prefix>/<recording id>.
type MQTTProvider struct {
	client      mqtt.Client
	topicPrefix string
}

// NewMQTTProvider wraps an MQTT client. The client is connected lazily.
func NewMQTTProvider(client mqtt.Client, topicPrefix string) *MQTTProvider {
	prefix := strings.TrimRight(topicPrefix, "/")
	if prefix == "" {
		prefix = "composite"
	}
	return &MQTTProvider{client: client, topicPrefix: prefix}
}

func (m *MQTTProvider) GetName() string { return "mqtt" }
func (m *MQTTProvider) IsEnabled() bool { return m.client != nil }

// ValidateConfig checks that a client is present.
func (m *MQTTProvider) ValidateConfig() error {
	if m.client == nil {
		return errors.Newf("mqtt provider has no client").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Topic returns the topic an event for recordingID is published to.
func (m *MQTTProvider) Topic(recordingID uint64) string {
	return fmt.Sprintf("%s/%d", m.topicPrefix, recordingID)
}

// Send publishes e, connecting first when needed.
func (m *MQTTProvider) Send(ctx context.Context, e *Event) error {
	if !m.client.IsConnected() {
		if err := m.client.Connect(ctx); err != nil {
			return retryable(err)
		}
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode mqtt payload: %w", err)
	}
	if err := m.client.Publish(ctx, m.Topic(e.RecordingID), payload); err != nil {
		return retryable(err)
	}
	return nil
}
