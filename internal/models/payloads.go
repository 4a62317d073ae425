package models

import (
	"encoding/json"
	"strconv"
)

// Message is a chat message. Apart from id and timestamp the fields are
// defined by the client and kept verbatim.
type Message map[string]any

// ID returns the message id as a string, or "" when absent.
func (m Message) ID() string { return FieldString(m["id"]) }

// Timestamp returns the message timestamp, or "" when absent.
func (m Message) Timestamp() string { return FieldString(m["timestamp"]) }

// Clone returns a shallow copy of the message.
func (m Message) Clone() Message {
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PullRequest is a build-room contribution record. The core only reads id and
// writes status; every other field belongs to the client.
type PullRequest map[string]any

// ID returns the pull request id as a string, or "" when absent.
func (p PullRequest) ID() string { return FieldString(p["id"]) }

// Clone returns a shallow copy of the pull request.
func (p PullRequest) Clone() PullRequest {
	out := make(PullRequest, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// FieldString renders an opaque JSON scalar as a string so that ids sent as
// numbers and ids sent as strings compare equal.
func FieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// Participant is an entry of existing-participants.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BuildRoom is the public snapshot of a build room, as carried by
// room-joined and rooms-updated.
type BuildRoom struct {
	// ID is generated by the server at creation time.
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Owner is the participant allowed to review pull requests.
	Owner string `json:"owner"`
	// Participants is ordered by join time; Participants[0] inherits ownership.
	Participants []string      `json:"participants"`
	PullRequests []PullRequest `json:"pullRequests"`
}

// Stats is a point-in-time count of live relay state.
type Stats struct {
	Connections int `json:"connections"`
	VideoRooms  int `json:"videoRooms"`
	ChatRooms   int `json:"chatRooms"`
	BuildRooms  int `json:"buildRooms"`
}

// Outbound payloads.
type (
	ConnectedPayload struct {
		ConnectionID string `json:"connectionId"`
	}
	ErrorPayload struct {
		Message string `json:"message"`
	}
	RoomIDPayload struct {
		RoomID string `json:"roomId"`
	}
	UserPayload struct {
		UserID string `json:"userId"`
	}
	NewHostPayload struct {
		NewHost string `json:"newHost"`
	}
	NewOwnerPayload struct {
		NewOwner string `json:"newOwner"`
	}
	TypingPayload struct {
		UserID   string `json:"userId"`
		IsTyping bool   `json:"isTyping"`
	}
	// SignalPayload relays exactly one of Offer, Answer or Candidate.
	SignalPayload struct {
		UserID    string          `json:"userId"`
		Offer     json.RawMessage `json:"offer,omitempty"`
		Answer    json.RawMessage `json:"answer,omitempty"`
		Candidate json.RawMessage `json:"candidate,omitempty"`
	}
	ExistingMessagesPayload struct {
		RoomID   string    `json:"roomId"`
		Messages []Message `json:"messages"`
	}
)
