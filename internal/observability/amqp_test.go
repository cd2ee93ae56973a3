package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"campus-chat/internal/mocks"
)

func TestPublishEventWithoutPublisher(t *testing.T) {
	SetPublisher(nil)
	require.NoError(t, PublishEvent(context.Background(), RoutingWSEvents, EventEnvelope{}, nil))
}

func TestPublishEventForwardsHeaders(t *testing.T) {
	pub := new(mocks.PublisherMock)
	SetPublisher(pub)
	t.Cleanup(func() { SetPublisher(nil) })

	headers := BuildHeaders("req-1", "trace-1")
	env := EventEnvelope{EventType: "ws_events", EventName: "ws_connect"}
	pub.On("PublishJSON", context.Background(), RoutingWSEvents, env, headers).Return(errors.New("closed")).Once()

	err := PublishEvent(context.Background(), RoutingWSEvents, env, headers)
	require.Error(t, err)
	require.Equal(t, map[string]string{"x-request-id": "req-1", "trace_id": "trace-1"}, headers)
	pub.AssertExpectations(t)
}
