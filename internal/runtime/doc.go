/*
Package runtime implements the surface rendering runtime behind surfaceflow.

# Architecture Overview

A Service consumes newline-delimited protocol messages from a Watermill
subscriber, applies them to a surface store, and renders surfaces on demand
through a registry of host supplied renderers. Actions raised by rendered
components are published on the action topic.

	transport → router (middleware) → stream parser → surface router → store
	                                                                    ↓
	              action topic ← action sink ← dispatcher ← Render(surfaceID)

# Package Structure

## Core Service (service.go, input.go)

The Service struct wires together:
  - Message router (Watermill) with one input handler
  - Publisher and subscriber connections
  - Middleware chain and chunk hooks
  - The surface store, renderer registry and dispatcher
  - HTTP servers for metrics and surface inspection

Input is applied one chunk at a time. Lines that fail to parse are counted,
logged and, when PoisonQueue is set, forwarded with their parse error. A
chunk is always acked.

## Middleware (middleware.go)

  - CorrelationID: ensures input chunks are traceable
  - LogMessages: debug logging of chunk payloads
  - Tracer: OpenTelemetry consumer span per chunk
  - Metrics: Watermill router metrics on Prometheus
  - Recoverer: panic recovery for renderers and listeners

## Publishing (publisher.go)

Converts actions into Watermill messages keyed by action id.

## Inspection (inspect.go)

Read-only JSON API over the surface store.

# Sub-packages

  - catalog/: JSON Schema validation of components per catalog
  - component/: normalized component model and child references
  - config/: service configuration with validation
  - datapath/: dotted data model paths
  - errors/: sentinel errors and error types
  - ids/: ULID generation for message and action IDs
  - jsoncodec/: JSON marshaling utilities
  - logging/: logger interface and adapters
  - metadata/: message metadata utilities
  - protocol/: message kinds and line parsing
  - render/: renderer registry and dispatcher
  - router/: applies parsed messages to the store
  - store/: immutable surfaces and change notification
  - stream/: line-oriented parser
  - transport/: transport factory used by the service
*/
package runtime
