package runtime

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ThreeDotsLabs/watermill/message"

	idspkg "github.com/drblury/surfaceflow/internal/runtime/ids"
	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/surfaceflow/internal/runtime/metadata"
	"github.com/drblury/surfaceflow/internal/runtime/protocol"
)

const (
	inputHandlerName = "surfaceflow_input"

	// maxLoggedLineLength caps how much of an invalid line is logged.
	maxLoggedLineLength = 512
)

func (s *Service) registerInputHandler() {
	s.router.AddNoPublisherHandler(
		inputHandlerName,
		s.Conf.GetInputTopic(),
		s.subscriber,
		s.handleInput,
	)
}

// handleInput applies one chunk of JSONL. The chunk is always acked: invalid
// lines are discarded and failures are reported through the hooks.
func (s *Service) handleInput(msg *message.Message) error {
	chunk := ChunkContext{
		Topic:         s.Conf.GetInputTopic(),
		MessageUUID:   msg.UUID,
		CorrelationID: msg.Metadata.Get(metadatapkg.KeyCorrelationID),
		Metadata:      msg.Metadata,
		Context:       msg.Context(),
		StartedAt:     time.Now(),
	}
	s.hooks.start(chunk)

	lines, err := s.applyChunk(string(msg.Payload), metadatapkg.FromWatermill(msg.Metadata))

	chunk.Duration = time.Since(chunk.StartedAt)
	chunk.Lines = lines
	s.hooks.finish(chunk, err)
	if err != nil {
		s.Logger.Error("Failed to apply input chunk", err, loggingpkg.LogFields{
			"message_uuid":   msg.UUID,
			"correlation_id": chunk.CorrelationID,
		})
	}
	return nil
}

// ApplyLine parses and applies a single protocol line.
func (s *Service) ApplyLine(line string) error {
	_, err := s.applyChunk(line, nil)
	return err
}

// ApplyText applies newline-delimited protocol text in order.
func (s *Service) ApplyText(text string) error {
	_, err := s.applyChunk(text, nil)
	return err
}

// ApplyReader applies every line read from r until EOF or ctx is done.
func (s *Service) ApplyReader(ctx context.Context, r io.Reader) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.chunkMetadata = metadatapkg.New(metadatapkg.KeyCorrelationID, idspkg.CreateULID())
	defer func() { s.chunkMetadata = nil }()
	return s.parser.Consume(ctx, r)
}

// applyChunk pushes every line of text, continuing past lines that fail to
// apply. It returns the number of non-blank lines seen.
func (s *Service) applyChunk(text string, md metadatapkg.Metadata) (int, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.chunkMetadata = md
	defer func() { s.chunkMetadata = nil }()

	var (
		lines int
		errs  []error
	)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines++
		if err := s.parser.Push(line); err != nil {
			errs = append(errs, err)
		}
	}
	return lines, errors.Join(errs...)
}

// handleParseError runs with applyMu held.
func (s *Service) handleParseError(perr *protocol.ParseError, line string) {
	s.metrics.RecordParseError()
	s.Logger.Warn("Discarding invalid protocol line", loggingpkg.LogFields{
		"reason":         perr.Reason,
		"line":           truncate(line, maxLoggedLineLength),
		"correlation_id": s.chunkMetadata[metadatapkg.KeyCorrelationID],
	})

	if s.Conf.PoisonQueue == "" || s.publisher == nil {
		return
	}

	poison := message.NewMessage(idspkg.CreateULID(), []byte(line))
	poison.Metadata = metadatapkg.ToWatermill(s.chunkMetadata.With(metadatapkg.KeyParseError, perr.Reason))
	if err := s.publisher.Publish(s.Conf.PoisonQueue, poison); err != nil {
		s.Logger.Error("Failed to publish invalid line to poison queue", err, loggingpkg.LogFields{
			"poison_queue": s.Conf.PoisonQueue,
		})
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
