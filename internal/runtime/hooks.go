package runtime

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
)

// ChunkContext describes one transport message of protocol lines.
type ChunkContext struct {
	// Topic is the topic the chunk was received from.
	Topic string
	// MessageUUID is the unique identifier of the transport message.
	MessageUUID string
	// CorrelationID is taken from the message metadata.
	CorrelationID string
	// Metadata contains the message metadata.
	Metadata message.Metadata
	// Context is the context associated with the message.
	Context context.Context
	// StartedAt is when the first line was pushed.
	StartedAt time.Time
	// Duration is how long applying took (only set in OnChunkDone and OnChunkError).
	Duration time.Duration
	// Lines is the number of non-blank lines pushed (only set in OnChunkDone and OnChunkError).
	Lines int
}

// ChunkHooks defines callbacks around applying an input chunk.
// All hooks are optional.
type ChunkHooks struct {
	OnChunkStart func(ctx ChunkContext)
	OnChunkDone  func(ctx ChunkContext)
	// OnChunkError is called when a line could not be applied. Lines that
	// failed to parse are not errors; they are reported through the parse
	// error counter and the poison queue.
	OnChunkError func(ctx ChunkContext, err error)
}

// Merge combines two ChunkHooks. The hooks from other run after those from h.
func (h ChunkHooks) Merge(other ChunkHooks) ChunkHooks {
	return ChunkHooks{
		OnChunkStart: chainHooks(h.OnChunkStart, other.OnChunkStart),
		OnChunkDone:  chainHooks(h.OnChunkDone, other.OnChunkDone),
		OnChunkError: chainErrorHooks(h.OnChunkError, other.OnChunkError),
	}
}

func chainHooks(a, b func(ChunkContext)) func(ChunkContext) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx ChunkContext) {
		a(ctx)
		b(ctx)
	}
}

func chainErrorHooks(a, b func(ChunkContext, error)) func(ChunkContext, error) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx ChunkContext, err error) {
		a(ctx, err)
		b(ctx, err)
	}
}

func (h ChunkHooks) start(ctx ChunkContext) {
	if h.OnChunkStart != nil {
		h.OnChunkStart(ctx)
	}
}

func (h ChunkHooks) finish(ctx ChunkContext, err error) {
	if err != nil {
		if h.OnChunkError != nil {
			h.OnChunkError(ctx, err)
		}
		return
	}
	if h.OnChunkDone != nil {
		h.OnChunkDone(ctx)
	}
}

// LoggingHooks returns hooks that log every applied chunk at debug level
// and failures at error level.
func LoggingHooks(logger loggingpkg.ServiceLogger) ChunkHooks {
	return ChunkHooks{
		OnChunkDone: func(ctx ChunkContext) {
			logger.Debug("Chunk applied", loggingpkg.LogFields{
				"topic":          ctx.Topic,
				"message_uuid":   ctx.MessageUUID,
				"correlation_id": ctx.CorrelationID,
				"lines":          ctx.Lines,
				"duration_ms":    ctx.Duration.Milliseconds(),
			})
		},
		OnChunkError: func(ctx ChunkContext, err error) {
			logger.Error("Chunk failed", err, loggingpkg.LogFields{
				"topic":          ctx.Topic,
				"message_uuid":   ctx.MessageUUID,
				"correlation_id": ctx.CorrelationID,
				"lines":          ctx.Lines,
			})
		},
	}
}
