package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/surfaceflow/internal/runtime/config"
	"github.com/drblury/surfaceflow/transport"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	defer func() { transport.DefaultRegistry = original }()

	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "channel", caps.Name)
	assert.True(t, caps.SupportsOrdering)
	assert.Empty(t, caps.OrderingWarning())
	assert.Equal(t, transport.ChannelCapabilities, Capabilities())
}

func TestBuildDeliversInOrder(t *testing.T) {
	tr, err := Build(context.Background(), &config.Config{PubSubSystem: TransportName}, watermill.NopLogger{})
	require.NoError(t, err)
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := tr.Subscriber.Subscribe(ctx, "surfaces")
	require.NoError(t, err)

	lines := []string{
		`{"createSurface":{"surfaceId":"s1","root":"r"}}`,
		`{"deleteSurface":{"surfaceId":"s1"}}`,
	}
	for _, line := range lines {
		require.NoError(t, tr.Publisher.Publish("surfaces", message.NewMessage(watermill.NewUUID(), []byte(line))))
	}

	for _, want := range lines {
		select {
		case msg := <-messages:
			assert.Equal(t, want, string(msg.Payload))
			msg.Ack()
		case <-ctx.Done():
			t.Fatal("timed out waiting for message")
		}
	}
}

func TestBuildUsesFactory(t *testing.T) {
	originalFactory := Factory
	defer func() { Factory = originalFactory }()

	var gotCfg gochannel.Config
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
		gotCfg = cfg
		return pubSub, pubSub
	}

	tr, err := Build(context.Background(), &config.Config{}, watermill.NopLogger{})
	require.NoError(t, err)
	assert.Same(t, pubSub, tr.Publisher)
	assert.Equal(t, int64(DefaultOutputBuffer), gotCfg.OutputChannelBuffer)
}
