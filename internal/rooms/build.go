package rooms

import "roomrelay/backend/internal/models"

type buildRoom struct {
	roster
	id           string
	name         string
	description  string
	pullRequests []models.PullRequest
}

func (r *buildRoom) snapshot() models.BuildRoom {
	prs := make([]models.PullRequest, len(r.pullRequests))
	for i, pr := range r.pullRequests {
		prs[i] = pr.Clone()
	}
	return models.BuildRoom{
		ID:           r.id,
		Name:         r.name,
		Description:  r.description,
		Owner:        r.leader,
		Participants: r.roster.snapshot(),
		PullRequests: prs,
	}
}

// CreateBuildRoom opens a build room owned by owner under a fresh id.
func (s *Store) CreateBuildRoom(name, description, owner string) (models.BuildRoom, error) {
	if name == "" || owner == "" {
		return models.BuildRoom{}, newError(ErrValidation, msgMissingFields)
	}
	room := &buildRoom{
		roster:       newRoster(owner),
		id:           s.newID(),
		name:         name,
		description:  description,
		pullRequests: []models.PullRequest{},
	}
	s.build[room.id] = room
	s.buildOrder = append(s.buildOrder, room.id)
	return room.snapshot(), nil
}

// JoinBuildRoom appends userID to the participants unless already present.
func (s *Store) JoinBuildRoom(roomID, userID string) (models.BuildRoom, error) {
	if roomID == "" || userID == "" {
		return models.BuildRoom{}, newError(ErrValidation, msgRoomAndUserRequired)
	}
	room, ok := s.build[roomID]
	if !ok {
		return models.BuildRoom{}, newError(ErrNotFound, msgRoomNotFound)
	}
	room.add(userID)
	return room.snapshot(), nil
}

// LeaveBuildRoom removes userID. The room is deleted when empty; otherwise a
// departing owner hands over to the first remaining participant.
func (s *Store) LeaveBuildRoom(roomID, userID string) Departure {
	room, ok := s.build[roomID]
	if !ok {
		return Departure{}
	}
	d := room.remove(userID)
	if d.Deleted {
		delete(s.build, roomID)
		s.removeBuildOrder(roomID)
	}
	return d
}

// CreatePullRequest appends pr to the room as given.
func (s *Store) CreatePullRequest(roomID string, pr models.PullRequest) (models.PullRequest, error) {
	if roomID == "" || pr == nil {
		return nil, newError(ErrValidation, msgMissingFields)
	}
	room, ok := s.build[roomID]
	if !ok {
		return nil, newError(ErrNotFound, msgRoomNotFound)
	}
	stored := pr.Clone()
	room.pullRequests = append(room.pullRequests, stored)
	return stored.Clone(), nil
}

// ReviewPullRequest sets the status of pull request prID. reviewer must be
// the room owner.
func (s *Store) ReviewPullRequest(roomID, prID, status, reviewer string) (models.PullRequest, error) {
	if roomID == "" {
		return nil, newError(ErrValidation, msgMissingFields)
	}
	room, ok := s.build[roomID]
	if !ok {
		return nil, newError(ErrNotFound, msgRoomNotFound)
	}

	var target models.PullRequest
	for _, pr := range room.pullRequests {
		if prID != "" && pr.ID() == prID {
			target = pr
			break
		}
	}
	if target == nil {
		return nil, newError(ErrNotFound, msgPullRequestNotFound)
	}
	if reviewer == "" || room.leader != reviewer {
		return nil, newError(ErrAuthorization, msgOwnerOnly)
	}

	target["status"] = status
	return target.Clone(), nil
}

// BuildRoom returns a snapshot of one build room.
func (s *Store) BuildRoom(roomID string) (models.BuildRoom, bool) {
	room, ok := s.build[roomID]
	if !ok {
		return models.BuildRoom{}, false
	}
	return room.snapshot(), true
}

// BuildRooms returns every build room in creation order. Build rooms are
// globally discoverable, unlike video and chat rooms.
func (s *Store) BuildRooms() []models.BuildRoom {
	out := make([]models.BuildRoom, 0, len(s.buildOrder))
	for _, id := range s.buildOrder {
		out = append(out, s.build[id].snapshot())
	}
	return out
}
