// Package transport wires the public transport registry into the service.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/drblury/surfaceflow/internal/runtime/config"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	"github.com/drblury/surfaceflow/transport"

	// Import all transport packages to register them.
	_ "github.com/drblury/surfaceflow/transport/transports"
)

// Transport combines a publisher and subscriber pair produced by a factory.
type Transport = transport.Transport

// Factory abstracts how the service initialises its message transport.
type Factory interface {
	Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error)

// Build calls f.
func (f FactoryFunc) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	return f(ctx, conf, logger)
}

// DefaultFactory returns the factory backed by the transport registry. An
// empty PubSubSystem selects the in-memory channel transport.
func DefaultFactory() Factory {
	return defaultFactory{}
}

type defaultFactory struct{}

func (defaultFactory) Build(ctx context.Context, conf *config.Config, logger watermill.LoggerAdapter) (Transport, error) {
	if conf == nil {
		return Transport{}, errspkg.ErrConfigRequired
	}
	if conf.PubSubSystem == "" {
		withDefault := *conf
		withDefault.PubSubSystem = "channel"
		conf = &withDefault
	}
	return transport.Build(ctx, conf, logger)
}

// Capabilities reports what the configured transport guarantees.
func Capabilities(conf *config.Config) transport.Capabilities {
	if conf == nil || conf.PubSubSystem == "" {
		return transport.GetCapabilities("channel")
	}
	return transport.GetCapabilities(conf.PubSubSystem)
}
