package chathub

import (
	"slices"

	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/storage"
)

// groups tracks which connections are subscribed to which room broadcast
// group. Groups are keyed by room id alone, shared by all room kinds.
type groups struct {
	rooms  map[string]map[string]struct{}
	ofConn map[string]map[string]struct{}
}

func newGroups() *groups {
	return &groups{
		rooms:  make(map[string]map[string]struct{}),
		ofConn: make(map[string]map[string]struct{}),
	}
}

func (g *groups) join(roomID, connID string) {
	if g.rooms[roomID] == nil {
		g.rooms[roomID] = make(map[string]struct{})
	}
	g.rooms[roomID][connID] = struct{}{}
	if g.ofConn[connID] == nil {
		g.ofConn[connID] = make(map[string]struct{})
	}
	g.ofConn[connID][roomID] = struct{}{}
}

func (g *groups) leave(roomID, connID string) {
	if members, ok := g.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(g.rooms, roomID)
		}
	}
	if subs, ok := g.ofConn[connID]; ok {
		delete(subs, roomID)
		if len(subs) == 0 {
			delete(g.ofConn, connID)
		}
	}
}

func (g *groups) leaveAll(connID string) {
	for roomID := range g.ofConn[connID] {
		g.leave(roomID, connID)
	}
}

func (g *groups) has(roomID, connID string) bool {
	_, ok := g.rooms[roomID][connID]
	return ok
}

// members returns the connections of a group in a stable order.
func (g *groups) members(roomID string) []string {
	out := make([]string, 0, len(g.rooms[roomID]))
	for connID := range g.rooms[roomID] {
		out = append(out, connID)
	}
	slices.Sort(out)
	return out
}

// --- Delivery ---

// sendTo delivers an event to a single connection.
func (m *ManagerService) sendTo(connID, event string, data any) {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		m.log.Errorf("encode %s for %s: %v", event, connID, err)
		return
	}
	m.deliver(connID, env)
}

// toRoom delivers an event to every member of the room's group except
// exceptConn. An empty exceptConn includes everybody.
func (m *ManagerService) toRoom(roomID, exceptConn, event string, data any) {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		m.log.Errorf("encode %s for room %s: %v", event, roomID, err)
		return
	}
	for _, connID := range m.groups.members(roomID) {
		if connID != exceptConn {
			m.deliver(connID, env)
		}
	}
	m.mirrorEvent(roomID, env)
}

// toAll delivers an event to every live connection.
func (m *ManagerService) toAll(event string, data any) {
	env, err := models.NewEnvelope(event, data)
	if err != nil {
		m.log.Errorf("encode %s for broadcast: %v", event, err)
		return
	}
	for connID := range m.clients {
		m.deliver(connID, env)
	}
	m.mirrorEvent("", env)
}

// deliver never blocks the hub. A full buffer drops the frame.
func (m *ManagerService) deliver(connID string, env models.Envelope) {
	c, ok := m.clients[connID]
	if !ok {
		return
	}
	select {
	case c.GetSendChannel() <- env:
	default:
		m.log.Warnf("%v: buffer full for %s, dropping %s", ErrTransport, connID, env.Event)
	}
}

func (m *ManagerService) mirrorEvent(roomID string, env models.Envelope) {
	if m.mirror == nil {
		return
	}
	m.mirror.enqueue(storage.MirroredEvent{Room: roomID, Event: env.Event, Data: env.Data})
}
