package mqtt

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/voicediary/composite/internal/errors"
	"github.com/voicediary/composite/internal/logger"
	"github.com/voicediary/composite/internal/observability/metrics"
)

// client implements the Client interface.
type client struct {
	config          Config
	internalClient  paho.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	metrics         *metrics.MQTTMetrics
}

// NewClient creates a client. m may be nil.
func NewClient(cfg Config, m *metrics.MQTTMetrics) (Client, error) {
	defaults := DefaultConfig()
	if cfg.Broker == "" {
		return nil, errors.Newf("mqtt broker is not configured").
			Component("mqtt").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = defaults.ClientID
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = defaults.DisconnectTimeout
	}
	if cfg.QoS > 2 {
		return nil, errors.Newf("invalid mqtt qos %d", cfg.QoS).
			Component("mqtt").
			Category(errors.CategoryValidation).
			Build()
	}
	return &client{config: cfg, metrics: m}, nil
}

// Connect resolves the broker host and connects. Attempts closer together
// than ReconnectCooldown are refused.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastConnAttempt.IsZero() && time.Since(c.lastConnAttempt) < c.config.ReconnectCooldown {
		return connectionError(fmt.Errorf("connection attempt too recent, last attempt was %v ago", time.Since(c.lastConnAttempt)), c.config.Broker)
	}
	c.lastConnAttempt = time.Now()

	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return connectionError(fmt.Errorf("invalid broker URL: %w", err), c.config.Broker)
	}
	host := u.Hostname()
	if host == "" {
		return connectionError(fmt.Errorf("broker URL %q has no host", c.config.Broker), c.config.Broker)
	}

	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return connectionError(fmt.Errorf("failed to resolve hostname %s: %w", host, err), c.config.Broker)
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.internalClient = paho.NewClient(opts)

	token := c.internalClient.Connect()
	if !waitToken(ctx, token, c.config.ConnectTimeout) {
		return connectionError(fmt.Errorf("connection timeout"), c.config.Broker)
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return connectionError(fmt.Errorf("connection error: %w", err), c.config.Broker)
	}

	c.metrics.UpdateConnectionStatus(true)
	return nil
}

// Publish sends payload to topic.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isConnected() {
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	timer := c.metrics.StartPublishTimer()
	defer timer.ObserveDuration()

	token := c.internalClient.Publish(topic, c.config.QoS, c.config.Retain, payload)
	if !waitToken(ctx, token, c.config.PublishTimeout) {
		c.metrics.IncrementErrors()
		log.Warn("publish timeout", logger.String("topic", topic))
		return errors.Newf("publish timeout").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	c.metrics.IncrementMessagesDelivered()
	c.metrics.ObserveMessageSize(len(payload))
	log.Debug("published", logger.String("topic", topic), logger.Int("bytes", len(payload)))
	return nil
}

// IsConnected returns true if the client is currently connected to the MQTT broker.
func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected()
}

func (c *client) isConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil {
		return
	}
	c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	c.internalClient = nil
	c.metrics.UpdateConnectionStatus(false)
}

func (c *client) onConnect(_ paho.Client) {
	log.Info("connected to MQTT broker", logger.String("broker", c.config.Broker))
	c.metrics.UpdateConnectionStatus(true)
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	log.Warn("connection to MQTT broker lost",
		logger.String("broker", c.config.Broker),
		logger.Error(err))
	c.metrics.UpdateConnectionStatus(false)
	c.metrics.IncrementErrors()
}

func (c *client) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	c.metrics.IncrementReconnectAttempts()
}

// waitToken waits for token completion, the timeout or ctx, whichever comes first.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func connectionError(err error, broker string) error {
	return errors.New(err).
		Component("mqtt").
		Category(errors.CategoryMQTTConnection).
		Context("broker", broker).
		Build()
}
