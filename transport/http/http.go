// Package http provides an HTTP transport. Agents POST batches of protocol
// lines to "<server address>/<input topic>"; actions are POSTed to
// "<publisher url><action topic>".
package http

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/surfaceflow/internal/runtime/ids"
	"github.com/drblury/surfaceflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "http"

// MaxBodySize bounds a single POSTed batch of protocol lines.
const MaxBodySize = 16 << 20

// HeaderMessageID carries an optional client-chosen message id.
const HeaderMessageID = "Message-Uuid"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(cfg http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(cfg, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(addr string, cfg http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return http.NewSubscriber(addr, cfg, logger)
}

func init() {
	Register()
}

// Register adds the HTTP transport to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// Build creates a new HTTP transport.
func Build(_ context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	serverAddr := cfg.GetHTTPServerAddress()
	publisherURL := cfg.GetHTTPPublisherURL()

	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: func(topic string, msg *message.Message) (*nethttp.Request, error) {
				return http.DefaultMarshalMessageFunc(publisherURL+topic, msg)
			},
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		serverAddr,
		http.SubscriberConfig{
			UnmarshalMessageFunc: UnmarshalLines,
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	go func() {
		if s, ok := subscriber.(*http.Subscriber); ok {
			if err := s.StartHTTPServer(); err != nil && err != nethttp.ErrServerClosed {
				logger.Error("Failed to start HTTP subscriber server", err, nil)
			}
		}
	}()

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: routeSubscriber{subscriber},
	}, nil
}

// UnmarshalLines turns a POSTed body of JSONL protocol lines into one
// message. HeaderMessageID is honoured when present.
func UnmarshalLines(_ string, r *nethttp.Request) (*message.Message, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("body exceeds %d bytes", MaxBodySize)
	}

	uuid := r.Header.Get(HeaderMessageID)
	if uuid == "" {
		uuid = ids.CreateULID()
	}
	return message.NewMessage(uuid, body), nil
}

// routeSubscriber mounts topics as absolute paths on the subscriber router.
type routeSubscriber struct {
	message.Subscriber
}

func (s routeSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if !strings.HasPrefix(topic, "/") {
		topic = "/" + topic
	}
	return s.Subscriber.Subscribe(ctx, topic)
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.HTTPCapabilities
}
