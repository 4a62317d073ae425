package rooms

import "roomrelay/backend/internal/models"

type videoRoom struct {
	roster
}

// CreateVideoRoom registers roomID with userID as host and sole participant.
func (s *Store) CreateVideoRoom(roomID, userID string) error {
	if roomID == "" || userID == "" {
		return newError(ErrValidation, msgRoomAndUserRequired)
	}
	if _, ok := s.video[roomID]; ok {
		return newError(ErrConflict, msgRoomExists)
	}
	s.video[roomID] = &videoRoom{roster: newRoster(userID)}
	return nil
}

// JoinVideoRoom adds userID to the room and returns the other participants,
// each with a synthesized display name. Joining twice is a no-op.
func (s *Store) JoinVideoRoom(roomID, userID string) ([]models.Participant, error) {
	if roomID == "" || userID == "" {
		return nil, newError(ErrValidation, msgRoomAndUserRequired)
	}
	room, ok := s.video[roomID]
	if !ok {
		return nil, newError(ErrNotFound, msgRoomMissing)
	}
	room.add(userID)

	existing := make([]models.Participant, 0, len(room.members))
	for _, id := range room.members {
		if id == userID {
			continue
		}
		existing = append(existing, models.Participant{ID: id, Name: s.displayName(id)})
	}
	return existing, nil
}

// EndVideoRoom deletes the room. Only the host may end it.
func (s *Store) EndVideoRoom(roomID, userID string) error {
	if roomID == "" || userID == "" {
		return newError(ErrValidation, msgRoomAndUserRequired)
	}
	room, ok := s.video[roomID]
	if !ok {
		return newError(ErrNotFound, msgRoomMissing)
	}
	if room.leader != userID {
		return newError(ErrAuthorization, msgHostOnly)
	}
	delete(s.video, roomID)
	return nil
}

// LeaveVideoRoom removes userID, promoting a new host or deleting the room
// as needed.
func (s *Store) LeaveVideoRoom(roomID, userID string) Departure {
	room, ok := s.video[roomID]
	if !ok {
		return Departure{}
	}
	d := room.remove(userID)
	if d.Deleted {
		delete(s.video, roomID)
	}
	return d
}
