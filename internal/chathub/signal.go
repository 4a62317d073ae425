package chathub

import (
	"fmt"

	"roomrelay/backend/internal/models"
)

// handleSignal relays an offer, answer or ICE candidate. By default it goes
// to the whole room except the sender and receivers filter on their own;
// with unicast enabled it goes straight to the target's connections when
// they can be resolved.
func (m *ManagerService) handleSignal(connID string, env models.Envelope) error {
	var req models.SignalRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if req.RoomID == "" || req.UserID == "" || req.TargetUserID == "" {
		return fmt.Errorf("%w: roomId, userId and targetUserId", errMissingFields)
	}
	payload := req.Payload(env.Event)
	if err := m.validator.Validate(env.Event, payload); err != nil {
		return err
	}

	out := models.SignalPayload{UserID: req.UserID}
	switch env.Event {
	case models.EventOffer:
		out.Offer = payload
	case models.EventAnswer:
		out.Answer = payload
	case models.EventICECandidate:
		out.Candidate = payload
	}
	m.log.Tracef("%s from %s to %s in room %s", env.Event, req.UserID, req.TargetUserID, req.RoomID)

	if m.signalUnicast {
		if targets := m.signalTargets(connID, req.RoomID, req.TargetUserID); len(targets) > 0 {
			outEnv, err := models.NewEnvelope(env.Event, out)
			if err != nil {
				return err
			}
			for _, target := range targets {
				m.deliver(target, outEnv)
			}
			return nil
		}
	}

	m.toRoom(req.RoomID, connID, env.Event, out)
	return nil
}

// signalTargets resolves the target user's connections that are subscribed
// to the room, never including the sender.
func (m *ManagerService) signalTargets(senderConn, roomID, targetUserID string) []string {
	var targets []string
	for _, connID := range m.registry.connsFor(roomID, targetUserID) {
		if connID != senderConn && m.groups.has(roomID, connID) {
			targets = append(targets, connID)
		}
	}
	return targets
}
