// Package io provides a file-based transport. The subscriber follows a JSONL
// file of protocol lines the way `tail -f` does and delivers every complete
// line as one message. The publisher appends each action payload as a
// line to a second file.
package io

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/surfaceflow/internal/runtime/ids"
	"github.com/drblury/surfaceflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "io"

const (
	// DefaultInputFile is read when no input file is configured.
	DefaultInputFile = "surfaces.jsonl"
	// DefaultActionFile receives actions when no action file is configured.
	DefaultActionFile = "actions.jsonl"
	// DefaultPollInterval is how long the subscriber waits at end of file.
	DefaultPollInterval = 50 * time.Millisecond
)

var errClosed = errors.New("io: transport is closed")

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return NewPublisher(filePath, logger), nil
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return NewSubscriber(filePath, logger), nil
}

func init() {
	Register()
}

// Register adds the I/O transport to the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.IOCapabilities)
}

// Build creates a new I/O transport.
func Build(_ context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	inputFile := cfg.GetIOFile()
	if inputFile == "" {
		inputFile = DefaultInputFile
	}
	actionFile := cfg.GetIOActionFile()
	if actionFile == "" {
		actionFile = DefaultActionFile
	}

	pub, err := PublisherFactory(actionFile, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	sub, err := SubscriberFactory(inputFile, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  pub,
		Subscriber: sub,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.IOCapabilities
}

// Publisher appends message payloads to a file, one per line.
type Publisher struct {
	filePath string
	logger   watermill.LoggerAdapter

	mu     sync.Mutex
	closed bool
}

// NewPublisher returns a Publisher writing to filePath.
func NewPublisher(filePath string, logger watermill.LoggerAdapter) *Publisher {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Publisher{filePath: filePath, logger: logger}
}

// Publish appends the payload of every message. The topic is not recorded.
func (p *Publisher) Publish(_ string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errClosed
	}

	f, err := os.OpenFile(p.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, msg := range messages {
		w.Write(bytes.TrimRight(msg.Payload, "\r\n"))
		w.WriteByte('\n')
	}
	return w.Flush()
}

// Close closes the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Subscriber follows a file of newline-delimited protocol lines.
type Subscriber struct {
	filePath string
	logger   watermill.LoggerAdapter

	// PollInterval is how long to wait for the file to grow at EOF.
	PollInterval time.Duration

	closeOnce sync.Once
	closing   chan struct{}
}

// NewSubscriber returns a Subscriber reading filePath from its start.
func NewSubscriber(filePath string, logger watermill.LoggerAdapter) *Subscriber {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &Subscriber{
		filePath:     filePath,
		logger:       logger,
		PollInterval: DefaultPollInterval,
		closing:      make(chan struct{}),
	}
}

// Subscribe streams every line of the file, then keeps following it. The
// topic only labels log output; each subscription reads the whole file.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	select {
	case <-s.closing:
		return nil, errClosed
	default:
	}

	f, err := os.OpenFile(s.filePath, os.O_RDONLY|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	out := make(chan *message.Message)
	go s.follow(ctx, f, out, topic)
	return out, nil
}

// Close stops every subscription.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() { close(s.closing) })
	return nil
}

func (s *Subscriber) follow(ctx context.Context, f *os.File, out chan<- *message.Message, topic string) {
	defer close(out)
	defer f.Close()

	reader := bufio.NewReader(f)
	var pending []byte

	for {
		chunk, err := reader.ReadBytes('\n')
		pending = append(pending, chunk...)

		if errors.Is(err, io.EOF) {
			// A partial line stays pending until its newline is written.
			select {
			case <-ctx.Done():
				return
			case <-s.closing:
				return
			case <-time.After(s.PollInterval):
			}
			continue
		}
		if err != nil {
			s.logger.Error("Failed to read file", err, watermill.LogFields{"file": s.filePath, "topic": topic})
			return
		}

		line := bytes.TrimRight(pending, "\r\n")
		pending = nil
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if !s.deliver(ctx, out, line) {
			return
		}
	}
}

func (s *Subscriber) deliver(ctx context.Context, out chan<- *message.Message, line []byte) bool {
	msg := message.NewMessage(ids.CreateULID(), line)

	select {
	case out <- msg:
	case <-ctx.Done():
		return false
	case <-s.closing:
		return false
	}

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		s.logger.Debug("Message nacked", watermill.LogFields{"uuid": msg.UUID})
	case <-ctx.Done():
		return false
	case <-s.closing:
		return false
	}
	return true
}
