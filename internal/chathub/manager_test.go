package chathub_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomrelay/backend/internal/chathub"
	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/storage"
)

func TestManager_RegisterSendsConnected(t *testing.T) {
	hub := startHub(t, chathub.Options{})

	connect(t, hub, "conn-a")

	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Connections)
}

func TestManager_UnregisterClosesClient(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-a")

	disconnect(t, hub, a)

	assert.True(t, a.closed.Load())
	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Connections)

	// A second unregister of the same client is a no-op.
	disconnect(t, hub, a)
}

func TestManager_DuplicateRegisterIgnored(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	connect(t, hub, "conn-a")

	dup := newMockClient("conn-a")
	require.True(t, hub.Register(dup))
	barrier(t, hub)

	expectNoEvent(t, dup)
}

func TestManager_UnknownEventIgnored(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-a")

	emit(t, hub, a, "no-such-event", map[string]string{"roomId": "r1"})

	expectNoEvent(t, a)
}

func TestManager_EventFromUnknownConnectionIgnored(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	ghost := newMockClient("ghost")

	emit(t, hub, ghost, models.EventCreateRoom, models.RoomRequest{RoomID: "r1", UserID: "u1"})

	expectNoEvent(t, ghost)
	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.VideoRooms)
}

func TestManager_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-a")
	b := connect(t, hub, "conn-b")

	emit(t, hub, a, models.EventJoinCollaboration, models.RoomRequest{RoomID: "c1", UserID: "u1"})
	emit(t, hub, b, models.EventJoinCollaboration, models.RoomRequest{RoomID: "c1", UserID: "u2"})
	expectEvent(t, a, models.EventExistingMessages)
	expectEvent(t, b, models.EventExistingMessages)

	// b never reads; the hub keeps serving a regardless.
	for i := 0; i < cap(b.RecvChannel)+10; i++ {
		emit(t, hub, a, models.EventTyping, models.RoomRequest{RoomID: "c1", UserID: "u1"})
	}
	assert.Len(t, b.RecvChannel, cap(b.RecvChannel))

	emit(t, hub, b, models.EventMessage, models.MessageRequest{RoomID: "c1", Message: models.Message{"text": "still here"}})
	env := expectEvent(t, a, models.EventMessage)
	assert.Equal(t, "still here", decodeAs[models.Message](t, env)["text"])
}

func TestManager_ShutdownClosesClients(t *testing.T) {
	hub := chathub.NewManagerService(chathub.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	a := newMockClient("conn-a")
	require.True(t, hub.Register(a))

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	assert.True(t, a.closed.Load())
	assert.False(t, hub.Register(newMockClient("late")))
	assert.False(t, hub.Submit(chathub.Inbound{ConnID: "conn-a"}))

	_, err := hub.Stats(context.Background())
	assert.ErrorIs(t, err, chathub.ErrStopped)
}

func TestManager_MirrorsBroadcasts(t *testing.T) {
	pub := new(MockPublisher)
	published := make(chan storage.MirroredEvent, 8)
	pub.On("PublishEvent", mock.Anything, mock.AnythingOfType("storage.MirroredEvent")).
		Run(func(args mock.Arguments) { published <- args.Get(1).(storage.MirroredEvent) }).
		Return(nil)

	hub := startHub(t, chathub.Options{Publisher: pub})
	a := connect(t, hub, "conn-a")

	emit(t, hub, a, models.EventCreateBuildRoom, models.CreateBuildRoomRequest{Name: "Demo", Owner: "u1"})

	select {
	case ev := <-published:
		assert.Equal(t, models.EventRoomsUpdated, ev.Event)
		assert.Empty(t, ev.Room)
		assert.Contains(t, string(ev.Data), `"name":"Demo"`)
	case <-time.After(time.Second):
		t.Fatal("rooms-updated was not mirrored")
	}
}

func TestManager_MirrorFailureDoesNotAffectClients(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishEvent", mock.Anything, mock.Anything).Return(assert.AnError)

	hub := startHub(t, chathub.Options{Publisher: pub})
	a := connect(t, hub, "conn-a")

	emit(t, hub, a, models.EventCreateBuildRoom, models.CreateBuildRoomRequest{Name: "Demo", Owner: "u1"})

	expectEvent(t, a, models.EventRoomCreated)
	expectEvent(t, a, models.EventRoomsUpdated)
}

func TestManager_QueryTimeoutLeavesHubUsable(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	connect(t, hub, "conn-a")

	// Callers giving up at any point must neither block the hub nor race
	// with it writing the result.
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(i%5)*time.Microsecond)
		stats, err := hub.Stats(ctx)
		if err == nil {
			assert.Equal(t, 1, stats.Connections)
		} else {
			assert.ErrorIs(t, err, context.DeadlineExceeded)
		}
		cancel()
	}

	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Connections)
}
