package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicediary/composite/internal/errors"
)

type fakeMQTTClient struct {
	mu         sync.Mutex
	connected  bool
	connectErr error
	topics     []string
	payloads   [][]byte
}

func (c *fakeMQTTClient) Connect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeMQTTClient) Publish(_ context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *fakeMQTTClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeMQTTClient) Disconnect() {}

func TestMQTTProviderPublishesPerRecordingTopic(t *testing.T) {
	t.Parallel()

	client := &fakeMQTTClient{}
	p := NewMQTTProvider(client, "diary/composite/")
	require.NoError(t, p.ValidateConfig())
	assert.Equal(t, "diary/composite/31", p.Topic(31))

	e := testEvent(31)
	require.NoError(t, p.Send(context.Background(), &e))

	assert.True(t, client.IsConnected(), "provider connects lazily")
	require.Len(t, client.topics, 1)
	assert.Equal(t, "diary/composite/31", client.topics[0])

	var got Event
	require.NoError(t, json.Unmarshal(client.payloads[0], &got))
	assert.Equal(t, uint64(31), got.RecordingID)
}

func TestMQTTProviderConnectFailureIsRetryable(t *testing.T) {
	t.Parallel()

	p := NewMQTTProvider(&fakeMQTTClient{connectErr: errors.NewStd("refused")}, "")
	assert.Equal(t, "composite/1", p.Topic(1))

	e := testEvent(1)
	err := p.Send(context.Background(), &e)
	var perr *providerError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Retryable)
}

func TestMQTTProviderWithoutClient(t *testing.T) {
	t.Parallel()

	p := NewMQTTProvider(nil, "")
	assert.False(t, p.IsEnabled())
	assert.Error(t, p.ValidateConfig())
}
