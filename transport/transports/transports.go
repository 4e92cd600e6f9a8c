// Package transports imports all built-in transports for auto-registration.
// Import this package to have all transports registered with the default registry.
package transports

import (
	// Import all transports for side-effect registration
	_ "github.com/drblury/surfaceflow/transport/channel"
	_ "github.com/drblury/surfaceflow/transport/http"
	_ "github.com/drblury/surfaceflow/transport/io"
	_ "github.com/drblury/surfaceflow/transport/jetstream"
	_ "github.com/drblury/surfaceflow/transport/kafka"
	_ "github.com/drblury/surfaceflow/transport/nats"
	_ "github.com/drblury/surfaceflow/transport/rabbitmq"
)
