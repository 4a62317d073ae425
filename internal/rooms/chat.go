package rooms

import (
	"slices"

	"roomrelay/backend/internal/models"
)

// isoMillis is ISO-8601 in UTC with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type chatRoom struct {
	messages []models.Message
}

// chatRoom returns the room's log, creating an empty one on first use.
// Chat rooms are never deleted.
func (s *Store) chatRoom(roomID string) *chatRoom {
	room, ok := s.chat[roomID]
	if !ok {
		room = &chatRoom{}
		s.chat[roomID] = room
	}
	return room
}

// JoinChat returns the full log of roomID, creating the room if needed.
func (s *Store) JoinChat(roomID, userID string) ([]models.Message, error) {
	if roomID == "" || userID == "" {
		return nil, newError(ErrValidation, msgMissingFields)
	}
	return cloneMessages(s.chatRoom(roomID).messages), nil
}

// PostMessage finalizes msg with an id and timestamp when the client did not
// supply them, appends it to the room's log and returns the stored copy.
func (s *Store) PostMessage(roomID string, msg models.Message) (models.Message, error) {
	if roomID == "" || msg == nil {
		return nil, newError(ErrValidation, msgMissingFields)
	}

	final := msg.Clone()
	if final.ID() == "" {
		final["id"] = s.newID()
	}
	if final.Timestamp() == "" {
		final["timestamp"] = s.now().UTC().Format(isoMillis)
	}

	room := s.chatRoom(roomID)
	room.messages = append(room.messages, final)
	if s.historyLimit > 0 && len(room.messages) > s.historyLimit {
		room.messages = slices.Delete(room.messages, 0, len(room.messages)-s.historyLimit)
	}
	return final.Clone(), nil
}

func cloneMessages(in []models.Message) []models.Message {
	out := make([]models.Message, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}
