package models

import "encoding/json"

// Inbound event names.
const (
	EventCreateRoom        = "create-room"
	EventJoinRoom          = "join-room"
	EventEndRoom           = "end-room"
	EventOffer             = "offer"
	EventAnswer            = "answer"
	EventICECandidate      = "ice-candidate"
	EventJoinCollaboration = "join-collaboration"
	EventMessage           = "message"
	EventTyping            = "typing"
	EventStoppedTyping     = "stopped-typing"
	EventCreateBuildRoom   = "create-build-room"
	EventJoinBuildRoom     = "join-build-room"
	EventLeaveBuildRoom    = "leave-build-room"
	EventCreatePullRequest = "create-pull-request"
	EventReviewPullRequest = "review-pull-request"
)

// Outbound event names. offer, answer, ice-candidate and message are echoed
// under their inbound names.
const (
	EventConnected            = "connected"
	EventError                = "error"
	EventRoomCreated          = "room-created"
	EventRoomJoined           = "room-joined"
	EventExistingParticipants = "existing-participants"
	EventUserJoined           = "user-joined"
	EventUserLeft             = "user-left"
	EventRoomEnded            = "room-ended"
	EventNewHost              = "new-host"
	EventNewOwner             = "new-owner"
	EventExistingMessages     = "existing-messages"
	EventUserTyping           = "user-typing"
	EventUserStoppedTyping    = "user-stopped-typing"
	EventRoomsUpdated         = "rooms-updated"
	EventPullRequestCreated   = "pull-request-created"
	EventPullRequestUpdated   = "pull-request-updated"
)

// Envelope is the single frame format on the websocket, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an Envelope for the given event.
func NewEnvelope(event string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// Decode unmarshals the envelope payload into v. An absent payload leaves v untouched.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}
