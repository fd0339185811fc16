package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/groupbalance/core/model"
	"github.com/kilianp07/groupbalance/pkg/export"
)

type dummyToken struct {
	err error
}

func (d *dummyToken) Wait() bool                     { return true }
func (d *dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d *dummyToken) Error() error                   { return d.err }
func (d *dummyToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// pendingToken never completes.
type pendingToken struct{}

func (pendingToken) Wait() bool                     { return false }
func (pendingToken) WaitTimeout(time.Duration) bool { return false }
func (pendingToken) Error() error                   { return nil }
func (pendingToken) Done() <-chan struct{}          { return make(chan struct{}) }

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	connectErr  error
	published   []published
	publishErrs []error
	hang        bool
	connected   bool
	disconnects int
}

func (m *mockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockClient) Connect() paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = m.connectErr == nil
	return &dummyToken{err: m.connectErr}
}

func (m *mockClient) Disconnect(uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.disconnects++
}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic: topic, qos: qos, retain: retained, payload: payload.([]byte)})
	if m.hang {
		return pendingToken{}
	}
	var err error
	if len(m.publishErrs) > 0 {
		err = m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
	}
	return &dummyToken{err: err}
}

func withMockClient(t *testing.T, m *mockClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
		m.opts = opts
		return m
	}
	t.Cleanup(func() { newMQTTClient = orig })
}

func sampleReport() export.Report {
	return export.Report{
		RunID:         "run-1",
		Seed:          42,
		Fitness:       0.25,
		GlobalAverage: 2.5,
		Iteration:     3,
		Groups: []export.Group{
			{Index: 0, Mean: 2.5, Members: []model.Entry{{ID: "a", Score: 1}, {ID: "d", Score: 4}}},
		},
	}
}

func TestResultPublisherPublish(t *testing.T) {
	m := &mockClient{}
	withMockClient(t, m)

	p, err := NewResultPublisher(Config{Broker: "tcp://localhost:1883", QoS: 1, Retain: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultResultTopic, p.Topic())

	require.NoError(t, p.Publish(context.Background(), sampleReport()))
	require.Len(t, m.published, 1)
	msg := m.published[0]
	assert.Equal(t, DefaultResultTopic, msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retain)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Contains(t, got, "published_at")
	assert.Contains(t, got, "groups")

	require.NoError(t, p.Close())
	assert.Equal(t, 1, m.disconnects)
}

func TestResultPublisherRetries(t *testing.T) {
	m := &mockClient{publishErrs: []error{errors.New("boom"), errors.New("boom")}}
	withMockClient(t, m)

	p, err := NewResultPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 3, BackoffMS: 1})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), sampleReport()))
	assert.Len(t, m.published, 3)
}

func TestResultPublisherGivesUp(t *testing.T) {
	m := &mockClient{publishErrs: []error{errors.New("a"), errors.New("b"), errors.New("c")}}
	withMockClient(t, m)

	p, err := NewResultPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)
	err = p.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.EqualError(t, err, "c")
	assert.Len(t, m.published, 3)
}

func TestResultPublisherTimeout(t *testing.T) {
	m := &mockClient{hang: true}
	withMockClient(t, m)

	p, err := NewResultPublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1, TimeoutMS: 10})
	require.NoError(t, err)
	err = p.Publish(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrPublishTimeout)
}

func TestResultPublisherContextCancel(t *testing.T) {
	m := &mockClient{hang: true}
	withMockClient(t, m)

	p, err := NewResultPublisher(Config{Broker: "tcp://localhost:1883", TimeoutMS: 10_000})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Publish(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, m.published, 1)
}

func TestNewResultPublisherConnectError(t *testing.T) {
	m := &mockClient{connectErr: errors.New("refused")}
	withMockClient(t, m)

	_, err := NewResultPublisher(Config{Broker: "tcp://localhost:1883"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}
