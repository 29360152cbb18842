package websocket

import (
	"errors"
	"strings"
)

var (
	ErrNotWebSocket        = errors.New("websocket: not a websocket handshake")
	ErrBadWebSocketKey     = errors.New("websocket: invalid Sec-WebSocket-Key")
	ErrBadWebSocketVersion = errors.New("websocket: unsupported Sec-WebSocket-Version")
	ErrUpgradeFailed       = errors.New("websocket: upgrade failed")
)

// selectSubprotocol selects the first client protocol that is also supported by the server.
func selectSubprotocol(clientProtos, serverProtos []string) string {
	for _, clientProto := range clientProtos {
		for _, serverProto := range serverProtos {
			if clientProto == serverProto {
				return clientProto
			}
		}
	}
	return ""
}

// SelectSubprotocol picks the first of the client's requested
// subprotocols (as sent in a comma-separated Sec-WebSocket-Protocol
// header) that the server also supports, in client preference order.
// It returns "" when there is no overlap, which callers should treat
// as "omit Sec-WebSocket-Protocol from the response" rather than an
// error (RFC 6455 §4.2.2 makes subprotocol negotiation optional).
func SelectSubprotocol(clientHeader string, serverProtos []string) string {
	if clientHeader == "" || len(serverProtos) == 0 {
		return ""
	}
	var clientProtos []string
	for _, tok := range strings.Split(clientHeader, ",") {
		clientProtos = append(clientProtos, strings.TrimSpace(tok))
	}
	return selectSubprotocol(clientProtos, serverProtos)
}
