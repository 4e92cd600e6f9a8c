// Package surfaceflow is the runtime side of a streamed UI protocol: a backend
// sends newline-delimited JSON messages that create surfaces, merge
// components into them and update their data models, and the host renders
// those surfaces with its own per-type renderers.
//
// Service hosts the runtime. It reads the input transport (Go channels, a
// JSONL file, NATS, NATS JetStream, Kafka, RabbitMQ or HTTP) from Config,
// applies every protocol line to an in-memory surface store, and publishes
// the actions raised by rendered components on the action topic. Hosts that
// do not need a transport feed lines directly with ApplyLine or ApplyText.
// A minimal setup therefore involves filling Config, registering renderers
// on a Registry, creating a Service and calling Start.
//
// # Protocol
//
// Two message generations are accepted. The current one uses createSurface,
// updateComponents, updateDataModel and deleteSurface; the legacy one uses
// beginRendering, surfaceUpdate, dataModelUpdate and deleteSurface. Both
// component encodings normalize to the same Component value. Invalid lines
// are logged, counted and optionally forwarded to a poison queue; they never
// stop the stream.
//
// # Rendering
//
// Render walks a surface from its root component, resolving child
// references of every supported shape, and calls the renderer registered for
// each component type with its rendered children, a DataAccessor scoped to
// the surface and an ActionEmitter. Components without a renderer render as
// an ErrorMarker instead of failing the tree.
//
// # Middleware
//
// The default middleware chain includes correlation ID injection, structured
// logging, OpenTelemetry tracing, Prometheus metrics and panic recovery.
// Custom middleware can be added via ServiceDependencies.Middlewares. Input
// is never retried.
//
// # Chunk Hooks
//
// ChunkHooks provides OnChunkStart, OnChunkDone and OnChunkError callbacks
// around every transport message applied by the service.
package surfaceflow
