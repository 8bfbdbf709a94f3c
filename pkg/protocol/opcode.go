package protocol

import "fmt"

// Opcode represents message type identifiers in the WebOS event protocol.
type Opcode uint8

// Protocol opcodes defining message types.
const (
	// OpcodeInvalid represents an invalid or unspecified opcode.
	OpcodeInvalid Opcode = iota
	// OpcodeSnapshot carries the full desktop state (server → client).
	OpcodeSnapshot
	// OpcodeWindowOpened announces a new window.
	OpcodeWindowOpened
	// OpcodeWindowClosed announces a closed window.
	OpcodeWindowClosed
	// OpcodeWindowChanged announces geometry, focus or state changes.
	OpcodeWindowChanged
	// OpcodeAppCreated announces a new desktop application.
	OpcodeAppCreated
	// OpcodeAppDeleted announces a removed desktop application.
	OpcodeAppDeleted
	// OpcodeFormUpdated carries the new render model of a form.
	OpcodeFormUpdated
	// OpcodePing is used for keep-alive ping messages (client → server).
	OpcodePing
	// OpcodePong is used for keep-alive pong responses.
	OpcodePong
	// OpcodeError is used for error messages.
	OpcodeError
)

var opcodeNames = map[Opcode]string{
	OpcodeSnapshot:      "desktop.snapshot",
	OpcodeWindowOpened:  "window.opened",
	OpcodeWindowClosed:  "window.closed",
	OpcodeWindowChanged: "window.changed",
	OpcodeAppCreated:    "app.created",
	OpcodeAppDeleted:    "app.deleted",
	OpcodeFormUpdated:   "form.updated",
	OpcodePing:          "ping",
	OpcodePong:          "pong",
	OpcodeError:         "error",
}

// String returns the string representation of the opcode.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "unknown"
}

// IsValid checks if the opcode is a valid protocol opcode.
func (o Opcode) IsValid() bool {
	return o >= OpcodeSnapshot && o <= OpcodeError
}

// ParseOpcode returns the opcode with the given name.
func ParseOpcode(name string) (Opcode, error) {
	for op, n := range opcodeNames {
		if n == name {
			return op, nil
		}
	}
	return OpcodeInvalid, fmt.Errorf("%w: %q", ErrInvalidOpcode, name)
}

// MarshalText encodes the opcode by name.
func (o Opcode) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, ErrInvalidOpcode
	}
	return []byte(o.String()), nil
}

// UnmarshalText decodes an opcode name.
func (o *Opcode) UnmarshalText(text []byte) error {
	op, err := ParseOpcode(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
