package chathub

import (
	"fmt"

	"roomrelay/backend/internal/models"
)

func (m *ManagerService) handleJoinCollaboration(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	messages, err := m.store.JoinChat(req.RoomID, req.UserID)
	if err != nil {
		return err
	}

	m.groups.join(req.RoomID, connID)
	m.registry.bind(connID, kindChat, req.RoomID, req.UserID)
	m.sendTo(connID, models.EventExistingMessages, models.ExistingMessagesPayload{
		RoomID:   req.RoomID,
		Messages: messages,
	})
	return nil
}

// handleMessage stores the message and echoes it to the whole room,
// sender included, so the sender sees the server-assigned id and timestamp.
func (m *ManagerService) handleMessage(_ string, env models.Envelope) error {
	var req models.MessageRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	final, err := m.store.PostMessage(req.RoomID, req.Message)
	if err != nil {
		return err
	}
	m.toRoom(req.RoomID, "", models.EventMessage, final)
	return nil
}

// handleTyping relays typing and stopped-typing. Nothing is stored.
func (m *ManagerService) handleTyping(connID string, env models.Envelope) error {
	var req models.RoomRequest
	if err := decode(env, &req); err != nil {
		return err
	}
	if req.RoomID == "" || req.UserID == "" {
		return fmt.Errorf("%w: roomId and userId", errMissingFields)
	}

	event, typing := models.EventUserTyping, true
	if env.Event == models.EventStoppedTyping {
		event, typing = models.EventUserStoppedTyping, false
	}
	m.toRoom(req.RoomID, connID, event, models.TypingPayload{UserID: req.UserID, IsTyping: typing})
	return nil
}
