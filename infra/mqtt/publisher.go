package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/groupbalance/infra/logger"
	"github.com/kilianp07/groupbalance/pkg/export"
)

// ErrPublishTimeout is returned when the broker does not confirm a publish in time.
var ErrPublishTimeout = errors.New("timeout waiting for publish")

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// ResultPublisher sends finished reports to the configured result topic.
type ResultPublisher struct {
	cli        pahoClient
	topic      string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	log        logger.Logger
}

// message is the payload published for each run.
type message struct {
	export.Report
	PublishedAt int64 `json:"published_at"`
}

// NewResultPublisher connects to the broker described by cfg.
func NewResultPublisher(cfg Config) (*ResultPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	log.Infof("MQTT connected to %s", cfg.Broker)
	return &ResultPublisher{
		cli:        c,
		topic:      cfg.ResultTopic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    timeout,
		log:        log,
	}, nil
}

// Topic returns the topic results are published to.
func (p *ResultPublisher) Topic() string { return p.topic }

// Publish sends the report, retrying with exponential backoff.
func (p *ResultPublisher) Publish(ctx context.Context, r export.Report) error {
	payload, err := json.Marshal(message{Report: r, PublishedAt: time.Now().UnixMilli()})
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff * time.Duration(1<<(attempt-1))):
			}
		}
		publishErr = p.publishOnce(ctx, payload)
		if publishErr == nil {
			p.log.Infof("published run %s to %s", r.RunID, p.topic)
			return nil
		}
		if errors.Is(publishErr, context.Canceled) || errors.Is(publishErr, context.DeadlineExceeded) {
			return publishErr
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
	}
	return publishErr
}

func (p *ResultPublisher) publishOnce(ctx context.Context, payload []byte) error {
	token := p.cli.Publish(p.topic, p.qos, p.retain, payload)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects from the broker.
func (p *ResultPublisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
