// Package protocol implements the WebOS desktop event protocol.
//
// Events flow from the Go backend to every connected browser over a
// WebSocket as JSON envelopes:
//
//	{"op": "window.opened", "ts": 1700000000000000000, "payload": {...}}
//
// # Usage
//
// Creating a message:
//
//	msg, err := protocol.NewMessage(protocol.OpcodeWindowOpened, win)
//
// Reading a payload:
//
//	var win wm.Window
//	err := msg.DecodePayload(&win)
//
// Clients may send OpcodePing; the server answers with OpcodePong.
package protocol
