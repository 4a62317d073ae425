package chathub

import "slices"

// roomKind tags which room map a binding refers to. Room ids of different
// kinds live in separate namespaces of the Room Store.
type roomKind int

const (
	kindVideo roomKind = iota
	kindChat
	kindBuild
)

func (k roomKind) String() string {
	switch k {
	case kindVideo:
		return "video"
	case kindChat:
		return "chat"
	case kindBuild:
		return "build"
	}
	return "unknown"
}

// binding records that a connection acts as userID inside a room. One
// connection may act as several users in the same room.
type binding struct {
	kind   roomKind
	roomID string
	userID string
}

// registry is the connection registry: for every connection, the logical
// users it acts as in each room it created or joined. Authorization and the
// disconnect sweep both read user ids from here.
type registry struct {
	conns map[string][]binding
}

func newRegistry() *registry {
	return &registry{conns: make(map[string][]binding)}
}

// bind records that connID acts as userID in the room. Binding the same
// triple twice is a no-op.
func (r *registry) bind(connID string, kind roomKind, roomID, userID string) {
	b := binding{kind: kind, roomID: roomID, userID: userID}
	if slices.Contains(r.conns[connID], b) {
		return
	}
	r.conns[connID] = append(r.conns[connID], b)
}

// unbind forgets that connID acts as userID in the room.
func (r *registry) unbind(connID string, kind roomKind, roomID, userID string) {
	r.filter(connID, func(b binding) bool {
		return b.kind == kind && b.roomID == roomID && b.userID == userID
	})
}

func (r *registry) filter(connID string, drop func(binding) bool) {
	list, ok := r.conns[connID]
	if !ok {
		return
	}
	list = slices.DeleteFunc(list, drop)
	if len(list) == 0 {
		delete(r.conns, connID)
		return
	}
	r.conns[connID] = list
}

// usersFor returns the users connID acts as in the room, in bind order.
func (r *registry) usersFor(connID string, kind roomKind, roomID string) []string {
	var out []string
	for _, b := range r.conns[connID] {
		if b.kind == kind && b.roomID == roomID {
			out = append(out, b.userID)
		}
	}
	return out
}

// inRoom reports whether connID still has any binding to roomID, of any kind.
func (r *registry) inRoom(connID, roomID string) bool {
	return slices.ContainsFunc(r.conns[connID], func(b binding) bool { return b.roomID == roomID })
}

// connsFor returns every connection bound as userID to roomID, of any kind.
func (r *registry) connsFor(roomID, userID string) []string {
	var out []string
	for connID, list := range r.conns {
		for _, b := range list {
			if b.roomID == roomID && b.userID == userID {
				out = append(out, connID)
				break
			}
		}
	}
	slices.Sort(out)
	return out
}

// isBound reports whether any connection is still bound as userID to the room.
func (r *registry) isBound(kind roomKind, roomID, userID string) bool {
	for _, list := range r.conns {
		for _, b := range list {
			if b.kind == kind && b.roomID == roomID && b.userID == userID {
				return true
			}
		}
	}
	return false
}

// dropRoom forgets every binding to the room.
func (r *registry) dropRoom(kind roomKind, roomID string) {
	for connID := range r.conns {
		r.filter(connID, func(b binding) bool { return b.kind == kind && b.roomID == roomID })
	}
}

// remove forgets the connection and returns its bindings in bind order.
func (r *registry) remove(connID string) []binding {
	list := r.conns[connID]
	delete(r.conns, connID)
	return list
}
