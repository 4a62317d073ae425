package chathub_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/backend/internal/chathub"
	"roomrelay/backend/internal/models"
)

func createBuildRoom(t *testing.T, hub *chathub.ManagerService, c *MockClient, name, owner string) string {
	t.Helper()
	emit(t, hub, c, models.EventCreateBuildRoom, models.CreateBuildRoomRequest{Name: name, Owner: owner})
	roomID := decodeAs[models.RoomIDPayload](t, expectEvent(t, c, models.EventRoomCreated)).RoomID
	require.NotEmpty(t, roomID)
	return roomID
}

func roomList(t *testing.T, c *MockClient) []models.BuildRoom {
	t.Helper()
	return decodeAs[[]models.BuildRoom](t, expectEvent(t, c, models.EventRoomsUpdated))
}

// buildPair creates a build room owned by u1 on owner and joined by u2 on
// member, with every notification drained.
func buildPair(t *testing.T, hub *chathub.ManagerService) (owner, member *MockClient, roomID string) {
	t.Helper()
	owner = connect(t, hub, "conn-1")
	member = connect(t, hub, "conn-2")
	roomID = createBuildRoom(t, hub, owner, "Demo", "u1")
	roomList(t, owner)
	roomList(t, member)

	emit(t, hub, member, models.EventJoinBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u2"})
	expectEvent(t, member, models.EventRoomJoined)
	expectEvent(t, member, models.EventUserJoined)
	roomList(t, member)
	expectEvent(t, owner, models.EventUserJoined)
	roomList(t, owner)
	return owner, member, roomID
}

func TestBuild_CreateNotifiesEveryone(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	creator := connect(t, hub, "conn-1")
	listener := connect(t, hub, "conn-2")

	roomID := createBuildRoom(t, hub, creator, "Demo", "u1")

	for _, c := range []*MockClient{creator, listener} {
		list := roomList(t, c)
		require.Len(t, list, 1)
		assert.Equal(t, roomID, list[0].ID)
		assert.Equal(t, "Demo", list[0].Name)
		assert.Equal(t, "u1", list[0].Owner)
		assert.Equal(t, []string{"u1"}, list[0].Participants)
		assert.Equal(t, []models.PullRequest{}, list[0].PullRequests)
		expectNoEvent(t, c)
	}
}

func TestBuild_CreateValidation(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-1")

	emit(t, hub, a, models.EventCreateBuildRoom, models.CreateBuildRoomRequest{Name: "Demo"})

	expectError(t, a, "Missing required fields")
	expectNoEvent(t, a)
}

func TestBuild_JoinSendsSnapshotAndAnnounces(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner := connect(t, hub, "conn-1")
	member := connect(t, hub, "conn-2")
	roomID := createBuildRoom(t, hub, owner, "Demo", "u1")
	roomList(t, owner)
	roomList(t, member)

	emit(t, hub, member, models.EventJoinBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u2"})

	room := decodeAs[models.BuildRoom](t, expectEvent(t, member, models.EventRoomJoined))
	assert.Equal(t, []string{"u1", "u2"}, room.Participants)
	for _, c := range []*MockClient{member, owner} {
		assert.Equal(t, "u2", decodeAs[models.UserPayload](t, expectEvent(t, c, models.EventUserJoined)).UserID)
		list := roomList(t, c)
		require.Len(t, list, 1)
		assert.Equal(t, []string{"u1", "u2"}, list[0].Participants)
	}

	// Joining again does not duplicate the participant.
	emit(t, hub, member, models.EventJoinBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u2"})
	room = decodeAs[models.BuildRoom](t, expectEvent(t, member, models.EventRoomJoined))
	assert.Equal(t, []string{"u1", "u2"}, room.Participants)
}

func TestBuild_JoinMissingRoom(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-1")

	emit(t, hub, a, models.EventJoinBuildRoom, models.RoomRequest{RoomID: "nope", UserID: "u1"})

	expectError(t, a, "Room not found")
	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.BuildRooms)
}

func TestBuild_OwnerLeavePassesOwnership(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner, member, roomID := buildPair(t, hub)

	emit(t, hub, owner, models.EventLeaveBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u1"})

	assert.Equal(t, "u2", decodeAs[models.NewOwnerPayload](t, expectEvent(t, member, models.EventNewOwner)).NewOwner)
	assert.Equal(t, "u1", decodeAs[models.UserPayload](t, expectEvent(t, member, models.EventUserLeft)).UserID)
	list := roomList(t, member)
	require.Len(t, list, 1)
	assert.Equal(t, "u2", list[0].Owner)
	assert.Equal(t, []string{"u2"}, list[0].Participants)

	expectEvent(t, owner, models.EventNewOwner)
	roomList(t, owner)
	expectNoEvent(t, owner)

	// The leaver no longer receives room traffic.
	emit(t, hub, member, models.EventCreatePullRequest, models.CreatePullRequestRequest{
		RoomID: roomID, PullRequest: models.PullRequest{"id": "pr-1"},
	})
	expectEvent(t, member, models.EventPullRequestCreated)
	expectNoEvent(t, owner)
}

func TestBuild_LeaveUnknownRoomIsQuiet(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-1")

	emit(t, hub, a, models.EventLeaveBuildRoom, models.RoomRequest{RoomID: "nope", UserID: "u1"})

	expectNoEvent(t, a)
}

func TestBuild_DisconnectSweep(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner, member, roomID := buildPair(t, hub)

	disconnect(t, hub, owner)

	assert.Equal(t, "u2", decodeAs[models.NewOwnerPayload](t, expectEvent(t, member, models.EventNewOwner)).NewOwner)
	assert.Equal(t, "u1", decodeAs[models.UserPayload](t, expectEvent(t, member, models.EventUserLeft)).UserID)
	list := roomList(t, member)
	require.Len(t, list, 1)
	assert.Equal(t, roomID, list[0].ID)
	assert.Equal(t, []string{"u2"}, list[0].Participants)

	disconnect(t, hub, member)

	stats, err := hub.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.BuildRooms)
	rooms, err := hub.BuildRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestBuild_PullRequestLifecycle(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner, member, roomID := buildPair(t, hub)

	emit(t, hub, member, models.EventCreatePullRequest, models.CreatePullRequestRequest{
		RoomID:      roomID,
		PullRequest: models.PullRequest{"id": 7, "title": "Fix build", "status": "open"},
	})
	for _, c := range []*MockClient{owner, member} {
		pr := decodeAs[models.PullRequest](t, expectEvent(t, c, models.EventPullRequestCreated))
		assert.Equal(t, "Fix build", pr["title"])
	}

	// The string form of the id matches the numeric one.
	emit(t, hub, owner, models.EventReviewPullRequest, models.ReviewPullRequestRequest{
		RoomID: roomID, PullRequestID: "7", Status: "approved",
	})
	for _, c := range []*MockClient{owner, member} {
		pr := decodeAs[models.PullRequest](t, expectEvent(t, c, models.EventPullRequestUpdated))
		assert.Equal(t, "approved", pr["status"])
		assert.Equal(t, "7", pr.ID())
	}

	rooms, err := hub.BuildRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Len(t, rooms[0].PullRequests, 1)
	assert.Equal(t, "approved", rooms[0].PullRequests[0]["status"])
}

func TestBuild_ReviewByNonOwnerRejected(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner, member, roomID := buildPair(t, hub)
	outsider := connect(t, hub, "conn-3")

	emit(t, hub, member, models.EventCreatePullRequest, models.CreatePullRequestRequest{
		RoomID: roomID, PullRequest: models.PullRequest{"id": "pr-1", "status": "open"},
	})
	expectEvent(t, owner, models.EventPullRequestCreated)
	expectEvent(t, member, models.EventPullRequestCreated)

	for _, c := range []*MockClient{member, outsider} {
		emit(t, hub, c, models.EventReviewPullRequest, models.ReviewPullRequestRequest{
			RoomID: roomID, PullRequestID: "pr-1", Status: "approved",
		})
		expectError(t, c, "Only room owner can review pull requests")
	}
	expectNoEvent(t, owner)

	rooms, err := hub.BuildRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", rooms[0].PullRequests[0]["status"])
}

func TestBuild_PullRequestErrors(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner, _, roomID := buildPair(t, hub)

	emit(t, hub, owner, models.EventCreatePullRequest, models.CreatePullRequestRequest{RoomID: roomID})
	expectError(t, owner, "Missing required fields")

	emit(t, hub, owner, models.EventCreatePullRequest, models.CreatePullRequestRequest{
		RoomID: "nope", PullRequest: models.PullRequest{"id": "pr-1"},
	})
	expectError(t, owner, "Room not found")

	emit(t, hub, owner, models.EventReviewPullRequest, models.ReviewPullRequestRequest{
		RoomID: roomID, PullRequestID: "missing", Status: "approved",
	})
	expectError(t, owner, "Pull request not found")
}

func TestBuild_DisconnectSweepsEveryUserOfTheConnection(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-a")
	roomID := createBuildRoom(t, hub, a, "Demo", "u1")
	roomList(t, a)
	emit(t, hub, a, models.EventJoinBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u2"})
	expectEvent(t, a, models.EventRoomJoined)
	expectEvent(t, a, models.EventUserJoined)
	roomList(t, a)

	disconnect(t, hub, a)

	rooms, err := hub.BuildRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestBuild_LeaveUnbindsOnlyTheLeavingUser(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	a := connect(t, hub, "conn-a")
	roomID := createBuildRoom(t, hub, a, "Demo", "u1")
	roomList(t, a)
	emit(t, hub, a, models.EventJoinBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u2"})
	expectEvent(t, a, models.EventRoomJoined)
	expectEvent(t, a, models.EventUserJoined)
	roomList(t, a)

	emit(t, hub, a, models.EventLeaveBuildRoom, models.RoomRequest{RoomID: roomID, UserID: "u2"})

	// Still subscribed as u1, so the connection hears its own departure.
	assert.Equal(t, "u2", decodeAs[models.UserPayload](t, expectEvent(t, a, models.EventUserLeft)).UserID)
	list := roomList(t, a)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"u1"}, list[0].Participants)

	// u1 is still the owner and can review.
	emit(t, hub, a, models.EventCreatePullRequest, models.CreatePullRequestRequest{
		RoomID: roomID, PullRequest: models.PullRequest{"id": "pr-1", "status": "open"},
	})
	expectEvent(t, a, models.EventPullRequestCreated)
	emit(t, hub, a, models.EventReviewPullRequest, models.ReviewPullRequestRequest{
		RoomID: roomID, PullRequestID: "pr-1", Status: "approved",
	})
	expectEvent(t, a, models.EventPullRequestUpdated)

	disconnect(t, hub, a)

	rooms, err := hub.BuildRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestBuild_ReviewerIsOwnerAmongConnectionUsers(t *testing.T) {
	hub := startHub(t, chathub.Options{})
	owner := connect(t, hub, "conn-1")
	roomID := createBuildRoom(t, hub, owner, "Demo", "u1")
	roomList(t, owner)

	// A second connection acts as a member first, then as the owner.
	other := connect(t, hub, "conn-2")
	roomList(t, other)
	for _, user := range []string{"u2", "u1"} {
		emit(t, hub, other, models.EventJoinBuildRoom, models.RoomRequest{RoomID: roomID, UserID: user})
		expectEvent(t, other, models.EventRoomJoined)
		expectEvent(t, other, models.EventUserJoined)
		roomList(t, other)
		expectEvent(t, owner, models.EventUserJoined)
		roomList(t, owner)
	}

	emit(t, hub, other, models.EventCreatePullRequest, models.CreatePullRequestRequest{
		RoomID: roomID, PullRequest: models.PullRequest{"id": "pr-1", "status": "open"},
	})
	expectEvent(t, other, models.EventPullRequestCreated)
	expectEvent(t, owner, models.EventPullRequestCreated)

	emit(t, hub, other, models.EventReviewPullRequest, models.ReviewPullRequestRequest{
		RoomID: roomID, PullRequestID: "pr-1", Status: "approved",
	})
	pr := decodeAs[models.PullRequest](t, expectEvent(t, other, models.EventPullRequestUpdated))
	assert.Equal(t, "approved", pr["status"])
}
