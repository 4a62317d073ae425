package chathub

import (
	"errors"
	"fmt"

	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/rooms"
)

// errMissingFields is returned by relay-only handlers, whose failures are
// logged rather than reported.
var errMissingFields = errors.New("missing required fields")

type handlerFunc func(m *ManagerService, connID string, env models.Envelope) error

// route binds an event to its handler. Silent routes only log failures;
// the others answer the caller with error{message}. fallback is the message
// used when the failure carries none of its own.
type route struct {
	handle   handlerFunc
	silent   bool
	fallback string
}

var routes = map[string]route{
	models.EventCreateRoom: {handle: (*ManagerService).handleCreateRoom, fallback: "Failed to create room"},
	models.EventJoinRoom:   {handle: (*ManagerService).handleJoinRoom, fallback: "Failed to join room"},
	models.EventEndRoom:    {handle: (*ManagerService).handleEndRoom, fallback: "Failed to end room"},

	models.EventOffer:        {handle: (*ManagerService).handleSignal, silent: true},
	models.EventAnswer:       {handle: (*ManagerService).handleSignal, silent: true},
	models.EventICECandidate: {handle: (*ManagerService).handleSignal, silent: true},

	models.EventJoinCollaboration: {handle: (*ManagerService).handleJoinCollaboration, fallback: "Error joining collaboration"},
	models.EventMessage:           {handle: (*ManagerService).handleMessage, silent: true},
	models.EventTyping:            {handle: (*ManagerService).handleTyping, silent: true},
	models.EventStoppedTyping:     {handle: (*ManagerService).handleTyping, silent: true},

	models.EventCreateBuildRoom:   {handle: (*ManagerService).handleCreateBuildRoom, fallback: "Failed to create build room"},
	models.EventJoinBuildRoom:     {handle: (*ManagerService).handleJoinBuildRoom, fallback: "Failed to join build room"},
	models.EventLeaveBuildRoom:    {handle: (*ManagerService).handleLeaveBuildRoom, silent: true},
	models.EventCreatePullRequest: {handle: (*ManagerService).handleCreatePullRequest, fallback: "Failed to create pull request"},
	models.EventReviewPullRequest: {handle: (*ManagerService).handleReviewPullRequest, fallback: "Failed to review pull request"},
}

// dispatch is the handler boundary: failures never leave the originating
// connection and never affect other rooms.
func (m *ManagerService) dispatch(in Inbound) {
	if _, ok := m.clients[in.ConnID]; !ok {
		m.log.Debugf("event %s from unknown connection %s dropped", in.Envelope.Event, in.ConnID)
		return
	}
	r, ok := routes[in.Envelope.Event]
	if !ok {
		m.log.Debugf("unknown event %q from %s", in.Envelope.Event, in.ConnID)
		return
	}

	err := r.handle(m, in.ConnID, in.Envelope)
	if err == nil {
		return
	}
	if r.silent {
		m.log.Warnf("%s from %s dropped: %v", in.Envelope.Event, in.ConnID, err)
		return
	}

	m.log.Debugf("%s from %s failed: %v", in.Envelope.Event, in.ConnID, err)
	m.sendTo(in.ConnID, models.EventError, models.ErrorPayload{Message: userMessage(err, r.fallback)})
}

func userMessage(err error, fallback string) string {
	var roomErr *rooms.Error
	if errors.As(err, &roomErr) {
		return roomErr.Message
	}
	return fallback
}

func decode(env models.Envelope, v any) error {
	if err := env.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return nil
}
