package chathub

import "roomrelay/backend/internal/models"

// Client is the interface for one live connection. It abstracts the
// underlying transport so the hub can address connections uniformly.
type Client interface {
	// GetConnID returns the identifier allocated to the connection on connect.
	GetConnID() string

	// GetSendChannel returns the channel the hub writes outbound envelopes to.
	// Only the hub sends on it, and only the hub closes it (through Close).
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the connection down. Called by the hub exactly once.
	Close()
}

// Inbound is one event received from a connection.
type Inbound struct {
	ConnID   string
	Envelope models.Envelope
}
