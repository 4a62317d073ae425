package models

import "encoding/json"

// RoomRequest covers create-room, join-room, end-room, join-collaboration,
// typing, stopped-typing, join-build-room and leave-build-room.
type RoomRequest struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// SignalRequest is an offer, answer or ice-candidate. Only the field matching
// the event is expected to be set; the payload is relayed as-is.
type SignalRequest struct {
	RoomID       string          `json:"roomId"`
	UserID       string          `json:"userId"`
	TargetUserID string          `json:"targetUserId"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

// Payload returns the relayed field for the given signaling event.
func (r SignalRequest) Payload(event string) json.RawMessage {
	switch event {
	case EventOffer:
		return r.Offer
	case EventAnswer:
		return r.Answer
	case EventICECandidate:
		return r.Candidate
	}
	return nil
}

// MessageRequest posts a chat message to a collaboration room.
type MessageRequest struct {
	RoomID  string  `json:"roomId"`
	Message Message `json:"message"`
}

// CreateBuildRoomRequest opens a new build room.
type CreateBuildRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// CreatePullRequestRequest appends a pull request to a build room.
type CreatePullRequestRequest struct {
	RoomID      string      `json:"roomId"`
	PullRequest PullRequest `json:"pullRequest"`
}

// ReviewPullRequestRequest sets the status of an existing pull request.
// PullRequestID may be a JSON string or number.
type ReviewPullRequestRequest struct {
	RoomID        string `json:"roomId"`
	PullRequestID any    `json:"pullRequestId"`
	Status        string `json:"status"`
}
