package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	configpkg "github.com/drblury/surfaceflow/internal/runtime/config"
	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
	transportpkg "github.com/drblury/surfaceflow/internal/runtime/transport"
)

func newTestLogger() loggingpkg.ServiceLogger {
	return loggingpkg.NewSlogServiceLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

type published struct {
	topic string
	msg   *message.Message
}

type testPublisher struct {
	mu        sync.Mutex
	published []published
	err       error
}

func (p *testPublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, msg := range messages {
		p.published = append(p.published, published{topic: topic, msg: msg})
	}
	return nil
}

func (p *testPublisher) Close() error { return nil }

func (p *testPublisher) On(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*message.Message
	for _, entry := range p.published {
		if entry.topic == topic {
			out = append(out, entry.msg)
		}
	}
	return out
}

type testSubscriber struct{}

func (s *testSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (s *testSubscriber) Close() error { return nil }

type mockTransportFactory struct {
	publisher *testPublisher
	err       error
}

func (f *mockTransportFactory) Build(context.Context, *configpkg.Config, watermill.LoggerAdapter) (transportpkg.Transport, error) {
	if f.err != nil {
		return transportpkg.Transport{}, f.err
	}
	if f.publisher == nil {
		f.publisher = &testPublisher{}
	}
	return transportpkg.Transport{Publisher: f.publisher, Subscriber: &testSubscriber{}}, nil
}

// recordingLogger keeps warnings and errors, discarding everything else.
type recordingLogger struct {
	loggingpkg.ServiceLogger

	mu       sync.Mutex
	warnings []string
	errors   []string
	infos    []string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{ServiceLogger: loggingpkg.NewNopServiceLogger()}
}

func (r *recordingLogger) With(loggingpkg.LogFields) loggingpkg.ServiceLogger { return r }

func (r *recordingLogger) Info(msg string, _ loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}

func (r *recordingLogger) Warn(msg string, _ loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

func (r *recordingLogger) Error(msg string, _ error, _ loggingpkg.LogFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recordingLogger) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

// newTestService builds a Service on a recording publisher.
func newTestService(t *testing.T, conf *configpkg.Config, deps ServiceDependencies) (*Service, *testPublisher) {
	t.Helper()
	if conf == nil {
		conf = &configpkg.Config{}
	}
	factory := &mockTransportFactory{publisher: &testPublisher{}}
	if deps.TransportFactory == nil {
		deps.TransportFactory = factory
	}
	if deps.MetricsRegisterer == nil {
		deps.MetricsRegisterer = prometheus.NewRegistry()
	}
	deps.DisableDefaultMiddlewares = true

	svc, err := TryNewService(conf, newTestLogger(), context.Background(), deps)
	require.NoError(t, err)
	return svc, factory.publisher
}
