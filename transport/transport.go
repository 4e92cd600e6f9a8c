// Package transport defines how surfaceflow reaches its input source and action
// sink. Each backend (channel, io, nats, kafka, rabbitmq, http) lives in its own
// sub-package and registers a Builder with the transport registry.
//
// A transport's subscriber delivers chunks of newline-delimited protocol
// messages on the input topic; its publisher carries actions raised by
// rendered components out on the action topic.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes the subscriber and then the publisher. When both share one
// underlying pub/sub it is closed once.
func (t Transport) Close() error {
	var subErr error
	if t.Subscriber != nil {
		subErr = t.Subscriber.Close()
	}
	if t.Publisher == nil {
		return subErr
	}
	if same, ok := t.Publisher.(message.Subscriber); ok && same == t.Subscriber {
		return subErr
	}
	if err := t.Publisher.Close(); err != nil {
		return err
	}
	return subErr
}

// Builder creates a transport from config.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values transports read. It lets
// transport packages stay independent of the full config package.
type Config interface {
	// GetPubSubSystem returns the transport name.
	GetPubSubSystem() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaClientID() string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS
	GetNATSURL() string

	// HTTP
	GetHTTPServerAddress() string
	GetHTTPPublisherURL() string

	// IO
	GetIOFile() string
	GetIOActionFile() string
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
