// Package mqtt provides a small MQTT publishing client over paho.
package mqtt

import (
	"context"
	"time"

	"github.com/voicediary/composite/internal/logger"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error
	// Publish sends payload to topic using the configured QoS and retain flag.
	Publish(ctx context.Context, topic string, payload []byte) error
	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
	// Disconnect closes the connection. It is safe to call more than once.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Retain            bool
	QoS               byte
	ReconnectCooldown time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values.
func DefaultConfig() Config {
	return Config{
		ClientID:          "composite",
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

var log = logger.Global().Module("mqtt")
