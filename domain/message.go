package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const TypeButtonPress = "BUTTON_PRESS"

// BroadcastMessage is the wire payload sent over the peer data channel.
// Receivers forward it verbatim; there is no versioning.
type BroadcastMessage struct {
	Type      string          `json:"type"`
	ButtonID  string          `json:"buttonId"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // milliseconds since epoch
}

// NewButtonPress builds the message for a press of b at now. A payload that
// parses as JSON is embedded as-is; anything else is sent as a JSON string.
func NewButtonPress(b ButtonConfig, now time.Time) BroadcastMessage {
	return BroadcastMessage{
		Type:      TypeButtonPress,
		ButtonID:  b.ID,
		Payload:   payloadValue(b.Payload),
		Timestamp: now.UnixMilli(),
	}
}

func payloadValue(raw string) json.RawMessage {
	if raw != "" && json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(raw)
	return quoted
}

func (m BroadcastMessage) Encode() ([]byte, error) {
	if len(m.Payload) == 0 {
		m.Payload = json.RawMessage("null")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal broadcast message: %w", err)
	}
	return data, nil
}

// DecodeMessage interprets inbound channel data as a BroadcastMessage.
func DecodeMessage(data []byte) (BroadcastMessage, error) {
	var m BroadcastMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return BroadcastMessage{}, fmt.Errorf("invalid broadcast message: %w", err)
	}
	if m.Type == "" {
		return BroadcastMessage{}, fmt.Errorf("invalid broadcast message: missing type")
	}
	return m, nil
}

func (m BroadcastMessage) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}
