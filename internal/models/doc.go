// Package models holds the wire vocabulary of the relay: the websocket
// envelope, event names, inbound request payloads and outbound snapshots.
package models
