package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	before := time.Now().UnixNano()
	msg, err := NewMessage(OpcodeWindowOpened, map[string]string{"id": "w1"})
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	if msg.Opcode != OpcodeWindowOpened {
		t.Errorf("expected opcode %v, got %v", OpcodeWindowOpened, msg.Opcode)
	}
	if msg.Timestamp < before {
		t.Errorf("timestamp %d before %d", msg.Timestamp, before)
	}
	if string(msg.Payload) != `{"id":"w1"}` {
		t.Errorf("unexpected payload %s", msg.Payload)
	}
}

func TestNewMessageWithoutPayload(t *testing.T) {
	msg, err := NewMessage(OpcodePong, nil)
	if err != nil {
		t.Fatalf("NewMessage failed: %v", err)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "payload") {
		t.Errorf("expected payload to be omitted, got %s", data)
	}
}

func TestNewMessageErrors(t *testing.T) {
	if _, err := NewMessage(OpcodeInvalid, nil); !errors.Is(err, ErrInvalidOpcode) {
		t.Errorf("expected ErrInvalidOpcode, got %v", err)
	}
	big := strings.Repeat("x", MaxPayloadSize)
	if _, err := NewMessage(OpcodeError, big); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
	if _, err := NewMessage(OpcodeError, func() {}); err == nil {
		t.Error("expected error for unencodable payload")
	}
}

func TestMessageJSON(t *testing.T) {
	msg := &Message{Opcode: OpcodeAppDeleted, Timestamp: 42, Payload: json.RawMessage(`{"id":"a1"}`)}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	expected := `{"op":"app.deleted","ts":42,"payload":{"id":"a1"}}`
	if string(data) != expected {
		t.Errorf("expected %s, got %s", expected, data)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := decoded.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	var payload struct{ ID string }
	if err := decoded.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload.ID != "a1" {
		t.Errorf("expected id a1, got %q", payload.ID)
	}
}

func TestMessageUnknownOpcode(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"op":"window.exploded","ts":1}`), &msg)
	if !errors.Is(err, ErrInvalidOpcode) {
		t.Errorf("expected ErrInvalidOpcode, got %v", err)
	}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		expected error
	}{
		{"valid", Message{Opcode: OpcodePing, Timestamp: 1}, nil},
		{"invalid opcode", Message{Opcode: Opcode(200), Timestamp: 1}, ErrInvalidOpcode},
		{"negative timestamp", Message{Opcode: OpcodePing, Timestamp: -1}, ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.msg.Validate(); !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		opcode   Opcode
		expected string
	}{
		{OpcodeSnapshot, "desktop.snapshot"},
		{OpcodeWindowOpened, "window.opened"},
		{OpcodeWindowClosed, "window.closed"},
		{OpcodeWindowChanged, "window.changed"},
		{OpcodeAppCreated, "app.created"},
		{OpcodeAppDeleted, "app.deleted"},
		{OpcodeFormUpdated, "form.updated"},
		{OpcodePing, "ping"},
		{OpcodePong, "pong"},
		{OpcodeError, "error"},
		{OpcodeInvalid, "unknown"},
		{Opcode(255), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.opcode.String(); got != tt.expected {
			t.Errorf("Opcode(%d).String() = %q, expected %q", tt.opcode, got, tt.expected)
		}
	}
}

func TestOpcodeRoundTrip(t *testing.T) {
	for op := OpcodeSnapshot; op <= OpcodeError; op++ {
		parsed, err := ParseOpcode(op.String())
		if err != nil {
			t.Fatalf("ParseOpcode(%q) failed: %v", op, err)
		}
		if parsed != op {
			t.Errorf("expected %v, got %v", op, parsed)
		}
	}
}
