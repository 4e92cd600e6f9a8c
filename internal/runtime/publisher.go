package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	idspkg "github.com/drblury/surfaceflow/internal/runtime/ids"
	"github.com/drblury/surfaceflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/surfaceflow/internal/runtime/metadata"
	"github.com/drblury/surfaceflow/internal/runtime/render"
)

// NewActionMessage converts an action into a Watermill message. The message
// UUID is the action id; a missing id is filled with a new ULID.
func NewActionMessage(action render.Action, metadata metadatapkg.Metadata) (*message.Message, error) {
	if action.Type == "" {
		return nil, errspkg.ErrActionTypeRequired
	}
	if action.ID == "" {
		action.ID = idspkg.CreateULID()
	}

	payload, err := jsoncodec.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action payload: %w", err)
	}

	md := metadata.With(metadatapkg.KeyActionID, action.ID).
		With(metadatapkg.KeyActionType, action.Type).
		With(metadatapkg.KeySurfaceID, action.SurfaceID)
	if md[metadatapkg.KeyCorrelationID] == "" {
		md = md.With(metadatapkg.KeyCorrelationID, idspkg.CreateULID())
	}

	msg := message.NewMessage(action.ID, payload)
	msg.Metadata = metadatapkg.ToWatermill(md.WithoutEmpty())
	return msg, nil
}

// PublishAction marshals the action and publishes it to the provided topic.
func PublishAction(ctx context.Context, publisher message.Publisher, topic string, action render.Action, metadata metadatapkg.Metadata) error {
	if publisher == nil {
		return errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return errspkg.ErrTopicRequired
	}

	msg, err := NewActionMessage(action, metadata)
	if err != nil {
		return err
	}

	if ctx != nil {
		msg.SetContext(ctx)
	}

	return publisher.Publish(topic, msg)
}

// PublishAction emits the action on the configured action topic.
func (s *Service) PublishAction(ctx context.Context, action render.Action) error {
	if s == nil {
		return errors.New("surfaceflow: service is nil")
	}
	return PublishAction(ctx, s.publisher, s.Conf.GetActionTopic(), action, nil)
}

// actionSink is the default emitter given to the dispatcher. It stamps the
// action id, forwards the action to the host handler and publishes it.
type actionSink struct {
	s *Service
}

func (a actionSink) Emit(action render.Action) {
	s := a.s
	if action.ID == "" {
		action.ID = idspkg.CreateULID()
	}
	s.metrics.RecordAction(action.Type)

	if s.actionHandler != nil {
		s.actionHandler.Emit(action)
	}

	if err := s.PublishAction(context.Background(), action); err != nil {
		s.Logger.Error("Failed to publish action", err, loggingpkg.LogFields{
			"action_id":   action.ID,
			"action_type": action.Type,
			"surface_id":  action.SurfaceID,
		})
	}
}

// identifiedEmitter fills in missing action ids before forwarding.
type identifiedEmitter struct {
	next render.ActionEmitter
}

func (e identifiedEmitter) Emit(action render.Action) {
	if action.ID == "" {
		action.ID = idspkg.CreateULID()
	}
	e.next.Emit(action)
}
