package chathub

import (
	"fmt"
	"slices"

	"roomrelay/backend/internal/models"
)

func (m *ManagerService) handleCreateBuildRoom(connID string, env models.Envelope) error {
	var req models.CreateBuildRoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	room, err := m.store.CreateBuildRoom(req.Name, req.Description, req.Owner)
	if err != nil {
		return err
	}

	m.groups.join(room.ID, connID)
	m.registry.bind(connID, kindBuild, room.ID, req.Owner)
	m.sendTo(connID, models.EventRoomCreated, models.RoomIDPayload{RoomID: room.ID})
	m.broadcastRoomList()
	m.log.Infof("build room %s (%q) created by %s", room.ID, room.Name, req.Owner)
	return nil
}

func (m *ManagerService) handleJoinBuildRoom(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	room, err := m.store.JoinBuildRoom(req.RoomID, req.UserID)
	if err != nil {
		return err
	}

	m.groups.join(req.RoomID, connID)
	m.registry.bind(connID, kindBuild, req.RoomID, req.UserID)
	m.sendTo(connID, models.EventRoomJoined, room)
	m.toRoom(req.RoomID, "", models.EventUserJoined, models.UserPayload{UserID: req.UserID})
	m.broadcastRoomList()
	m.log.Infof("user %s joined build room %s", req.UserID, req.RoomID)
	return nil
}

func (m *ManagerService) handleLeaveBuildRoom(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if req.RoomID == "" || req.UserID == "" {
		return fmt.Errorf("%w: roomId and userId", errMissingFields)
	}

	d := m.store.LeaveBuildRoom(req.RoomID, req.UserID)
	if !d.Found {
		return nil
	}
	if d.NewLeader != "" {
		m.toRoom(req.RoomID, "", models.EventNewOwner, models.NewOwnerPayload{NewOwner: d.NewLeader})
	}
	m.registry.unbind(connID, kindBuild, req.RoomID, req.UserID)
	// The connection may still act as another user in this room.
	if !m.registry.inRoom(connID, req.RoomID) {
		m.groups.leave(req.RoomID, connID)
	}
	m.toRoom(req.RoomID, "", models.EventUserLeft, models.UserPayload{UserID: req.UserID})
	m.broadcastRoomList()
	m.log.Infof("user %s left build room %s", req.UserID, req.RoomID)
	return nil
}

// departBuild is the disconnect counterpart of handleLeaveBuildRoom; the
// connection has already left every group.
func (m *ManagerService) departBuild(roomID, userID string) {
	d := m.store.LeaveBuildRoom(roomID, userID)
	if !d.Removed {
		return
	}
	if d.NewLeader != "" {
		m.toRoom(roomID, "", models.EventNewOwner, models.NewOwnerPayload{NewOwner: d.NewLeader})
	}
	m.toRoom(roomID, "", models.EventUserLeft, models.UserPayload{UserID: userID})
	m.broadcastRoomList()
}

func (m *ManagerService) handleCreatePullRequest(_ string, env models.Envelope) error {
	var req models.CreatePullRequestRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	pr, err := m.store.CreatePullRequest(req.RoomID, req.PullRequest)
	if err != nil {
		return err
	}
	m.toRoom(req.RoomID, "", models.EventPullRequestCreated, pr)
	m.log.Infof("pull request %s created in build room %s", pr.ID(), req.RoomID)
	return nil
}

// handleReviewPullRequest authorizes by the users the reviewing connection
// is bound to in this room, not by anything in the request.
func (m *ManagerService) handleReviewPullRequest(connID string, env models.Envelope) error {
	var req models.ReviewPullRequestRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	reviewer := m.reviewerFor(connID, req.RoomID)
	prID := models.FieldString(req.PullRequestID)

	pr, err := m.store.ReviewPullRequest(req.RoomID, prID, req.Status, reviewer)
	if err != nil {
		return err
	}
	m.toRoom(req.RoomID, "", models.EventPullRequestUpdated, pr)
	m.log.Infof("pull request %s in build room %s set to %q by %s", prID, req.RoomID, req.Status, reviewer)
	return nil
}

// reviewerFor picks the owner when the connection acts as the owner among
// its users in the room, else the first user it is bound as.
func (m *ManagerService) reviewerFor(connID, roomID string) string {
	users := m.registry.usersFor(connID, kindBuild, roomID)
	if len(users) == 0 {
		return ""
	}
	if room, ok := m.store.BuildRoom(roomID); ok && slices.Contains(users, room.Owner) {
		return room.Owner
	}
	return users[0]
}

func (m *ManagerService) broadcastRoomList() {
	m.toAll(models.EventRoomsUpdated, m.store.BuildRooms())
}
