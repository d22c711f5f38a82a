package models

import "encoding/json"

// ClientMessage is an inbound intent from a websocket client. ID is optional;
// when present the server answers with an Ack carrying the same ID.
type ClientMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack answers a ClientMessage that carried an ID.
type Ack struct {
	Type  string      `json:"type"`
	ID    string      `json:"id"`
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// ServerMessage is a generic server push that is not a game event.
type ServerMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}
