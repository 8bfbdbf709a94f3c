package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Protocol errors.
var (
	// ErrInvalidOpcode is returned when opcode is invalid.
	ErrInvalidOpcode = errors.New("invalid opcode")
	// ErrPayloadTooLarge is returned when payload exceeds maximum size.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	// ErrInvalidTimestamp is returned when timestamp is invalid.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// MaxPayloadSize is the maximum allowed payload size (1 MB).
const MaxPayloadSize = 1 << 20

// Message represents a protocol message with an opcode, timestamp, and payload.
type Message struct {
	// Opcode is the message type identifier.
	Opcode Opcode `json:"op"`
	// Timestamp is the Unix timestamp in nanoseconds.
	Timestamp int64 `json:"ts"`
	// Payload is the message data.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage creates a new message with the given opcode and JSON-encoded
// payload. The timestamp is set to the current time in nanoseconds.
func NewMessage(opcode Opcode, payload any) (*Message, error) {
	if !opcode.IsValid() {
		return nil, ErrInvalidOpcode
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding %s payload: %w", opcode, err)
		}
		if len(b) > MaxPayloadSize {
			return nil, ErrPayloadTooLarge
		}
		raw = b
	}
	return &Message{
		Opcode:    opcode,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// Validate checks a decoded message.
func (m *Message) Validate() error {
	if !m.Opcode.IsValid() {
		return ErrInvalidOpcode
	}
	if m.Timestamp < 0 {
		return ErrInvalidTimestamp
	}
	if len(m.Payload) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	return nil
}

// DecodePayload unmarshals the payload into v.
func (m *Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

// Time returns the message timestamp.
func (m *Message) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}
