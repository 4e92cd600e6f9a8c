package transport

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/surfaceflow/internal/runtime/config"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	"github.com/drblury/surfaceflow/internal/runtime/logging"
)

func testLogger() watermill.LoggerAdapter {
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return logging.NewWatermillAdapter(logging.NewSlogServiceLogger(slogger))
}

func TestDefaultFactoryBuildsChannel(t *testing.T) {
	tr, err := DefaultFactory().Build(context.Background(), &config.Config{PubSubSystem: "channel"}, testLogger())
	require.NoError(t, err)
	defer tr.Close()

	assert.NotNil(t, tr.Publisher)
	assert.NotNil(t, tr.Subscriber)
}

func TestDefaultFactoryFallsBackToChannel(t *testing.T) {
	cfg := &config.Config{}
	tr, err := DefaultFactory().Build(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer tr.Close()

	assert.Empty(t, cfg.PubSubSystem, "caller config must not be mutated")
	assert.Equal(t, "channel", Capabilities(cfg).Name)
}

func TestDefaultFactoryErrors(t *testing.T) {
	_, err := DefaultFactory().Build(context.Background(), nil, testLogger())
	assert.ErrorIs(t, err, errspkg.ErrConfigRequired)

	_, err = DefaultFactory().Build(context.Background(), &config.Config{PubSubSystem: "carrier-pigeon"}, testLogger())
	assert.Error(t, err)
}

func TestCapabilitiesLookup(t *testing.T) {
	assert.Equal(t, "kafka", Capabilities(&config.Config{PubSubSystem: "kafka"}).Name)
	assert.True(t, Capabilities(&config.Config{PubSubSystem: "io"}).SupportsReplay)
	assert.Equal(t, "channel", Capabilities(nil).Name)
}

func TestFactoryFunc(t *testing.T) {
	called := false
	f := FactoryFunc(func(context.Context, *config.Config, watermill.LoggerAdapter) (Transport, error) {
		called = true
		return Transport{}, nil
	})
	_, err := f.Build(context.Background(), &config.Config{}, testLogger())
	require.NoError(t, err)
	assert.True(t, called)
}
