// Package signaling checks that relayed WebRTC negotiation payloads are
// well-formed before they leave the server. The relay never acts on their
// contents; a failed check only means the frame is dropped.
package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pion/ice/v4"
	"github.com/pion/sdp/v3"

	"roomrelay/backend/internal/models"
)

var (
	// ErrEmptyPayload is returned when the event carries no payload field.
	ErrEmptyPayload = errors.New("signaling payload is empty")
	// ErrMalformed is returned when the payload does not parse.
	ErrMalformed = errors.New("signaling payload is malformed")
)

// sessionDescription mirrors RTCSessionDescriptionInit.
type sessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// iceCandidate mirrors RTCIceCandidateInit.
type iceCandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
}

// Validator checks payloads for one signaling event.
type Validator interface {
	Validate(event string, payload json.RawMessage) error
}

// Presence only requires the payload to be present and valid JSON.
type Presence struct{}

// Validate implements Validator.
func (Presence) Validate(_ string, payload json.RawMessage) error {
	if isEmpty(payload) {
		return ErrEmptyPayload
	}
	if !json.Valid(payload) {
		return fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	return nil
}

// Strict additionally parses the SDP of offers and answers and the candidate
// line of ICE candidates.
type Strict struct{}

// Validate implements Validator.
func (Strict) Validate(event string, payload json.RawMessage) error {
	if err := (Presence{}).Validate(event, payload); err != nil {
		return err
	}

	switch event {
	case models.EventOffer, models.EventAnswer:
		return validateDescription(event, payload)
	case models.EventICECandidate:
		return validateCandidate(payload)
	}
	return nil
}

func validateDescription(event string, payload json.RawMessage) error {
	var desc sessionDescription
	if err := json.Unmarshal(payload, &desc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if desc.Type != "" && desc.Type != event && !(event == models.EventAnswer && desc.Type == "pranswer") {
		return fmt.Errorf("%w: %s carries type %q", ErrMalformed, event, desc.Type)
	}

	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
		return fmt.Errorf("%w: sdp: %v", ErrMalformed, err)
	}
	return nil
}

func validateCandidate(payload json.RawMessage) error {
	var cand iceCandidate
	if err := json.Unmarshal(payload, &cand); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// An empty candidate signals end-of-candidates.
	line := strings.TrimPrefix(cand.Candidate, "candidate:")
	if line == "" {
		return nil
	}
	if _, err := ice.UnmarshalCandidate(line); err != nil {
		return fmt.Errorf("%w: candidate: %v", ErrMalformed, err)
	}
	return nil
}

func isEmpty(payload json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(payload))
	return trimmed == "" || trimmed == "null"
}
