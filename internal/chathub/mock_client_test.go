package chathub_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/backend/internal/chathub"
	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/rooms"
)

type MockClient struct {
	connID      string
	RecvChannel chan models.Envelope
	closed      atomic.Bool
}

func newMockClient(connID string) *MockClient {
	return &MockClient{
		connID:      connID,
		RecvChannel: make(chan models.Envelope, 64),
	}
}

func (c *MockClient) GetConnID() string {
	return c.connID
}

func (c *MockClient) GetSendChannel() chan<- models.Envelope {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed.Store(true)
}

// startHub runs a hub with predictable display names until the test ends.
func startHub(t *testing.T, opts chathub.Options) *chathub.ManagerService {
	t.Helper()
	if opts.Store == nil {
		opts.Store = rooms.NewStore(rooms.WithDisplayNames(func(userID string) string {
			return "Name-" + userID
		}))
	}
	hub := chathub.NewManagerService(opts)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

// barrier returns once the hub has processed everything submitted before it.
func barrier(t *testing.T, hub *chathub.ManagerService) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := hub.Stats(ctx)
	require.NoError(t, err)
}

// connect registers a mock client and consumes its connected event.
func connect(t *testing.T, hub *chathub.ManagerService, connID string) *MockClient {
	t.Helper()
	c := newMockClient(connID)
	require.True(t, hub.Register(c))
	barrier(t, hub)

	env := expectEvent(t, c, models.EventConnected)
	var p models.ConnectedPayload
	require.NoError(t, env.Decode(&p))
	assert.Equal(t, connID, p.ConnectionID)
	return c
}

func disconnect(t *testing.T, hub *chathub.ManagerService, c *MockClient) {
	t.Helper()
	hub.Unregister(c)
	barrier(t, hub)
}

// emit submits an event from c and waits for the hub to handle it.
func emit(t *testing.T, hub *chathub.ManagerService, c *MockClient, event string, data any) {
	t.Helper()
	env, err := models.NewEnvelope(event, data)
	require.NoError(t, err)
	require.True(t, hub.Submit(chathub.Inbound{ConnID: c.connID, Envelope: env}))
	barrier(t, hub)
}

func expectEvent(t *testing.T, c *MockClient, event string) models.Envelope {
	t.Helper()
	select {
	case env := <-c.RecvChannel:
		require.Equal(t, event, env.Event, "unexpected event for %s: %s", c.connID, string(env.Data))
		return env
	default:
		require.FailNowf(t, "missing event", "%s did not receive %s", c.connID, event)
		return models.Envelope{}
	}
}

func expectNoEvent(t *testing.T, c *MockClient) {
	t.Helper()
	select {
	case env := <-c.RecvChannel:
		assert.Failf(t, "unexpected event", "%s received %s %s", c.connID, env.Event, string(env.Data))
	default:
	}
}

func expectError(t *testing.T, c *MockClient, message string) {
	t.Helper()
	env := expectEvent(t, c, models.EventError)
	var p models.ErrorPayload
	require.NoError(t, env.Decode(&p))
	assert.Equal(t, message, p.Message)
}

func decodeAs[T any](t *testing.T, env models.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
