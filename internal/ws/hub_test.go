package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(hub *Hub, userID string) *Client {
	c := newClient(hub, nil, ConnInfo{ConnID: newConnID(), UserID: userID}, nil, zap.NewNop())
	hub.Register(c)
	return c
}

func readFrame(t *testing.T, c *Client) outboundFrame {
	t.Helper()
	select {
	case raw := <-c.send:
		var f outboundFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	default:
		t.Fatalf("expected a queued frame for %s", c.info.UserID)
		return outboundFrame{}
	}
}

type outboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, "alice")

	hub.Join("room-1", c)
	require.Equal(t, 1, hub.RoomSize("room-1"))
	require.True(t, hub.InRoom("room-1", c))

	hub.Leave("room-1", c)
	require.Equal(t, 0, hub.RoomSize("room-1"))
	require.Empty(t, hub.rooms)
}

func TestHubPublishReachesOnlyRoom(t *testing.T) {
	hub := NewHub(nil)
	alice, bob, carol := testClient(hub, "alice"), testClient(hub, "bob"), testClient(hub, "carol")
	hub.Join("room-1", alice)
	hub.Join("room-1", bob)
	hub.Join("room-2", carol)

	hub.Publish("room-1", "receiveLoungeMessage", map[string]string{"text": "hi"})

	require.Equal(t, "receiveLoungeMessage", readFrame(t, alice).Event)
	require.Equal(t, "receiveLoungeMessage", readFrame(t, bob).Event)
	require.Len(t, carol.send, 0)
}

func TestHubPublishExcept(t *testing.T) {
	hub := NewHub(nil)
	alice, bob := testClient(hub, "alice"), testClient(hub, "bob")
	hub.Join("m", alice)
	hub.Join("m", bob)

	hub.PublishExcept("m", EventTyping, nil, alice)

	require.Len(t, alice.send, 0)
	require.Equal(t, EventTyping, readFrame(t, bob).Event)
}

func TestHubUnregisterLeavesAllRooms(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, "alice")
	hub.Join("a", c)
	hub.Join("b", c)

	hub.Unregister(c)
	require.Equal(t, 0, hub.RoomSize("a"))
	require.Equal(t, 0, hub.RoomSize("b"))

	_, open := <-c.send
	require.False(t, open)

	hub.Unregister(c)
	hub.Publish("a", "x", nil)
}

func TestHubCloseRoom(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, "alice")
	hub.Join("lounge", c)
	hub.Join("other", c)

	hub.CloseRoom("lounge")
	require.Equal(t, 0, hub.RoomSize("lounge"))
	require.False(t, hub.InRoom("lounge", c))
	require.True(t, hub.InRoom("other", c))

	hub.Publish("lounge", "receiveLoungeMessage", nil)
	require.Len(t, c.send, 0)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	slow, fast := testClient(hub, "slow"), testClient(hub, "fast")
	hub.Join("r", slow)
	hub.Join("r", fast)

	for i := 0; i < sendBuffer; i++ {
		slow.send <- []byte(`{}`)
	}
	hub.Publish("r", "receiveLoungeMessage", nil)

	require.False(t, hub.InRoom("r", slow))
	require.True(t, hub.InRoom("r", fast))
	require.Equal(t, "receiveLoungeMessage", readFrame(t, fast).Event)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	alice, bob := testClient(hub, "alice"), testClient(hub, "bob")

	hub.Broadcast(EventUserOnline, presenceEvent{UserID: "carol"})

	for _, c := range []*Client{alice, bob} {
		f := readFrame(t, c)
		require.Equal(t, EventUserOnline, f.Event)
		require.JSONEq(t, `{"user_id":"carol"}`, string(f.Data))
	}
}

func TestHubLeaveUserEvictsEveryConnection(t *testing.T) {
	hub := NewHub(nil)
	phone, laptop, bob := testClient(hub, "alice"), testClient(hub, "alice"), testClient(hub, "bob")
	for _, c := range []*Client{phone, laptop, bob} {
		hub.Join("lounge", c)
	}
	hub.Join("other", phone)

	hub.LeaveUser("lounge", "alice")
	require.False(t, hub.InRoom("lounge", phone))
	require.False(t, hub.InRoom("lounge", laptop))
	require.True(t, hub.InRoom("other", phone))

	hub.Publish("lounge", "receiveLoungeMessage", map[string]string{"text": "after leave"})
	require.Len(t, phone.send, 0)
	require.Len(t, laptop.send, 0)
	require.Equal(t, "receiveLoungeMessage", readFrame(t, bob).Event)
}
