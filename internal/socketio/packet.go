package socketio

import (
	"encoding/json"
	"errors"
)

// Engine.IO v4 packet types.
const (
	engineOpen    byte = '0'
	engineClose   byte = '1'
	enginePing    byte = '2'
	enginePong    byte = '3'
	engineMessage byte = '4'
)

// Socket.IO v5 packet types, carried inside engine message packets.
const (
	socketConnect      byte = '0'
	socketDisconnect   byte = '1'
	socketEvent        byte = '2'
	socketConnectError byte = '4'
)

var (
	packetConnect = []byte{engineMessage, socketConnect}
	packetPong    = []byte{enginePong}
)

type packet struct {
	engine byte
	socket byte
	data   string
}

func parsePacket(raw []byte) (packet, error) {
	if len(raw) == 0 {
		return packet{}, errors.New("empty packet")
	}
	p := packet{engine: raw[0]}
	rest := raw[1:]
	if p.engine != engineMessage {
		p.data = string(rest)
		return p, nil
	}
	if len(rest) == 0 {
		return packet{}, errors.New("empty message packet")
	}
	p.socket = rest[0]
	rest = rest[1:]
	// Skip a namespace prefix ("/admin,") and an ack id before the payload.
	if len(rest) > 0 && rest[0] == '/' {
		for i, b := range rest {
			if b == ',' {
				rest = rest[i+1:]
				break
			}
		}
	}
	for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		rest = rest[1:]
	}
	p.data = string(rest)
	return p, nil
}

// event decodes an event payload of the form ["name", "fragment", ...].
// Non-string first arguments are passed through as their JSON text.
func (p packet) event() (name, fragment string, ok bool) {
	var args []json.RawMessage
	if err := json.Unmarshal([]byte(p.data), &args); err != nil || len(args) == 0 {
		return "", "", false
	}
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", "", false
	}
	if len(args) < 2 {
		return name, "", true
	}
	if err := json.Unmarshal(args[1], &fragment); err != nil {
		fragment = string(args[1])
	}
	return name, fragment, true
}
