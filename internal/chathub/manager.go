// Package chathub is the relay's reactor. A single ManagerService goroutine
// owns the Room Store, the connection registry and the room broadcast groups;
// every inbound event runs to completion on that goroutine before the next
// one starts, so room state needs no locks.
package chathub

import (
	"context"
	"errors"

	"github.com/pion/logging"

	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/rooms"
	"roomrelay/backend/internal/signaling"
	"roomrelay/backend/internal/storage"
)

var (
	// ErrTransport marks an outbound frame that could not be queued. It is
	// logged and never surfaced to clients.
	ErrTransport = errors.New("transport send failed")
	// ErrStopped is returned by queries issued after the hub stopped.
	ErrStopped = errors.New("hub stopped")
)

// Options configures a ManagerService.
type Options struct {
	// Store is the room store. A fresh one is created when nil.
	Store *rooms.Store
	// LoggerFactory creates the hub's loggers. Defaults to pion's default factory.
	LoggerFactory logging.LoggerFactory
	// Validator checks signaling payloads. Defaults to signaling.Presence.
	Validator signaling.Validator
	// SignalUnicast delivers offers, answers and candidates only to the
	// target user's connections when they can be resolved.
	SignalUnicast bool
	// Publisher, when set, receives a copy of every room and global broadcast.
	Publisher storage.Publisher
}

// ManagerService is the hub.
type ManagerService struct {
	clients  map[string]Client
	store    *rooms.Store
	registry *registry
	groups   *groups

	// Channels
	RegisterCh   chan Client
	UnregisterCh chan Client
	IncomingCh   chan Inbound
	queryCh      chan func()

	validator     signaling.Validator
	signalUnicast bool
	mirror        *eventMirror

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	done          chan struct{}
}

// NewManagerService creates a hub. Call Run to start it.
func NewManagerService(opts Options) *ManagerService {
	if opts.Store == nil {
		opts.Store = rooms.NewStore()
	}
	if opts.LoggerFactory == nil {
		opts.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	if opts.Validator == nil {
		opts.Validator = signaling.Presence{}
	}

	m := &ManagerService{
		clients:       make(map[string]Client),
		store:         opts.Store,
		registry:      newRegistry(),
		groups:        newGroups(),
		RegisterCh:    make(chan Client),
		UnregisterCh:  make(chan Client),
		IncomingCh:    make(chan Inbound),
		queryCh:       make(chan func()),
		validator:     opts.Validator,
		signalUnicast: opts.SignalUnicast,
		loggerFactory: opts.LoggerFactory,
		log:           opts.LoggerFactory.NewLogger("hub"),
		done:          make(chan struct{}),
	}
	if opts.Publisher != nil {
		m.mirror = newEventMirror(opts.Publisher, opts.LoggerFactory.NewLogger("mirror"))
	}
	return m
}

// Run processes registrations, inbound events and queries until ctx is
// cancelled, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	if m.mirror != nil {
		go m.mirror.run(ctx)
	}
	m.log.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return
		case c := <-m.RegisterCh:
			m.register(c)
		case c := <-m.UnregisterCh:
			m.unregister(c)
		case in := <-m.IncomingCh:
			m.dispatch(in)
		case q := <-m.queryCh:
			q()
		}
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Logger returns a logger for scope from the hub's factory.
func (m *ManagerService) Logger(scope string) logging.LeveledLogger {
	return m.loggerFactory.NewLogger(scope)
}

// --- Entry points for other goroutines ---

// Register hands a new client to the hub. It returns false if the hub has stopped.
func (m *ManagerService) Register(c Client) bool {
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes a client and sweeps its room memberships.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// Submit queues an inbound event. It returns false if the hub has stopped.
func (m *ManagerService) Submit(in Inbound) bool {
	select {
	case m.IncomingCh <- in:
		return true
	case <-m.done:
		return false
	}
}

// BuildRooms returns the current build-room list.
func (m *ManagerService) BuildRooms(ctx context.Context) ([]models.BuildRoom, error) {
	return query(ctx, m, m.store.BuildRooms)
}

// Stats returns live counts of connections and rooms.
func (m *ManagerService) Stats(ctx context.Context) (models.Stats, error) {
	return query(ctx, m, func() models.Stats {
		video, chat, build := m.store.Counts()
		return models.Stats{
			Connections: len(m.clients),
			VideoRooms:  video,
			ChatRooms:   chat,
			BuildRooms:  build,
		}
	})
}

// query runs fn on the hub goroutine and waits for its result. The result
// channel is buffered so the hub never blocks on a caller that gave up.
func query[T any](ctx context.Context, m *ManagerService, fn func() T) (T, error) {
	var zero T
	result := make(chan T, 1)
	select {
	case m.queryCh <- func() { result <- fn() }:
	case <-m.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case out := <-result:
		return out, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// --- Hub goroutine only ---

func (m *ManagerService) register(c Client) {
	connID := c.GetConnID()
	if _, exists := m.clients[connID]; exists {
		m.log.Warnf("connection %s registered twice, ignoring", connID)
		return
	}
	m.clients[connID] = c
	m.log.Debugf("connection %s registered (%d live)", connID, len(m.clients))
	m.sendTo(connID, models.EventConnected, models.ConnectedPayload{ConnectionID: connID})
}

// unregister is the disconnect sweep: the connection leaves every broadcast
// group, then each room it was bound to sees the same departure logic as an
// explicit leave.
func (m *ManagerService) unregister(c Client) {
	connID := c.GetConnID()
	if _, ok := m.clients[connID]; !ok {
		return
	}
	delete(m.clients, connID)
	m.groups.leaveAll(connID)

	for _, b := range m.registry.remove(connID) {
		// Another tab of the same user keeps the membership alive.
		if m.registry.isBound(b.kind, b.roomID, b.userID) {
			continue
		}
		m.log.Debugf("connection %s left %s room %s as %s", connID, b.kind, b.roomID, b.userID)
		switch b.kind {
		case kindVideo:
			m.departVideo(b.roomID, b.userID)
		case kindBuild:
			m.departBuild(b.roomID, b.userID)
		}
	}

	c.Close()
	m.log.Debugf("connection %s unregistered (%d live)", connID, len(m.clients))
}

func (m *ManagerService) shutdown() {
	for connID, c := range m.clients {
		delete(m.clients, connID)
		c.Close()
	}
	close(m.done)
	m.log.Info("hub stopped")
}
