package chathub

import "roomrelay/backend/internal/models"

func (m *ManagerService) handleCreateRoom(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if err := m.store.CreateVideoRoom(req.RoomID, req.UserID); err != nil {
		return err
	}

	m.groups.join(req.RoomID, connID)
	m.registry.bind(connID, kindVideo, req.RoomID, req.UserID)
	m.sendTo(connID, models.EventRoomCreated, models.RoomIDPayload{RoomID: req.RoomID})
	m.log.Infof("video room %s created by %s", req.RoomID, req.UserID)
	return nil
}

func (m *ManagerService) handleJoinRoom(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	existing, err := m.store.JoinVideoRoom(req.RoomID, req.UserID)
	if err != nil {
		return err
	}

	m.groups.join(req.RoomID, connID)
	m.registry.bind(connID, kindVideo, req.RoomID, req.UserID)
	m.sendTo(connID, models.EventRoomJoined, models.RoomIDPayload{RoomID: req.RoomID})
	m.sendTo(connID, models.EventExistingParticipants, existing)
	m.toRoom(req.RoomID, connID, models.EventUserJoined, models.UserPayload{UserID: req.UserID})
	m.log.Infof("user %s joined video room %s (%d already there)", req.UserID, req.RoomID, len(existing))
	return nil
}

func (m *ManagerService) handleEndRoom(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if err := m.store.EndVideoRoom(req.RoomID, req.UserID); err != nil {
		return err
	}

	m.toRoom(req.RoomID, "", models.EventRoomEnded, nil)
	m.registry.dropRoom(kindVideo, req.RoomID)
	m.log.Infof("video room %s ended by %s", req.RoomID, req.UserID)
	return nil
}

// departVideo removes a user who disconnected and announces a new host if
// one was promoted.
func (m *ManagerService) departVideo(roomID, userID string) {
	d := m.store.LeaveVideoRoom(roomID, userID)
	if !d.Removed {
		return
	}
	if d.NewLeader != "" {
		m.toRoom(roomID, "", models.EventNewHost, models.NewHostPayload{NewHost: d.NewLeader})
		m.log.Infof("video room %s: host passed to %s", roomID, d.NewLeader)
	}
	if d.Deleted {
		m.log.Infof("video room %s is empty, deleted", roomID)
	}
}
