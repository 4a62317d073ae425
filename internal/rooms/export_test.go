package rooms

import "roomrelay/backend/internal/models"

// Read-only views used by the external tests.

func (s *Store) VideoRoom(roomID string) (host string, participants []string, ok bool) {
	room, ok := s.video[roomID]
	if !ok {
		return "", nil, false
	}
	return room.leader, room.snapshot(), true
}

// ChatLog returns a copy of a room's log without creating the room.
func (s *Store) ChatLog(roomID string) ([]models.Message, bool) {
	room, ok := s.chat[roomID]
	if !ok {
		return nil, false
	}
	return cloneMessages(room.messages), true
}
