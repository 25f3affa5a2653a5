// Package telemetry mirrors load samples to an MQTT broker for dashboards.
// The mirror is optional and entirely separate from the coordinator
// protocol: if it fails, reporting to the coordinator is unaffected.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dreamware/workernode/internal/cluster"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	disconnectMs   = 250
)

type Options struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
}

// Publisher sends LoadUpdate messages to <prefix>/<node id>/load.
type Publisher struct {
	raw    mqtt.Client
	prefix string
}

// Connect dials the broker. It gives up after a few seconds rather than
// retrying forever, so a missing broker cannot stall node startup.
func Connect(opts Options) (*Publisher, error) {
	o := mqtt.NewClientOptions()
	o.AddBroker(opts.BrokerURL)
	o.SetClientID(opts.ClientID)
	o.SetAutoReconnect(true)
	o.SetConnectTimeout(connectTimeout)
	c := mqtt.NewClient(o)

	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		c.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect %s: timed out", opts.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", opts.BrokerURL, err)
	}
	return NewPublisher(c, opts.TopicPrefix), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(c mqtt.Client, prefix string) *Publisher {
	return &Publisher{raw: c, prefix: prefix}
}

// Topic returns the topic samples for nodeID are published on.
func (p *Publisher) Topic(nodeID string) string {
	return fmt.Sprintf("%s/%s/load", p.prefix, nodeID)
}

// PublishLoad publishes one sample with QoS 0, not retained.
func (p *Publisher) PublishLoad(update cluster.LoadUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return err
	}
	token := p.raw.Publish(p.Topic(update.ID), 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timed out", p.Topic(update.ID))
	}
	return token.Error()
}

func (p *Publisher) Close() {
	p.raw.Disconnect(disconnectMs)
}
