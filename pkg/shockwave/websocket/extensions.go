package websocket

import (
	"strconv"
	"strings"
)

// PermessageDeflateParams is one negotiated permessage-deflate
// extension (RFC 7692 §7) offer or agreement.
type PermessageDeflateParams struct {
	Enabled                 bool
	ServerNoContextTakeover bool
	ClientNoContextTakeover bool
	// ServerMaxWindowBits/ClientMaxWindowBits are the negotiated LZ77
	// window sizes, 8-15 inclusive (RFC 7692 §7.1.2). 0 means the
	// default (15) applies.
	ServerMaxWindowBits int
	ClientMaxWindowBits int
}

// minWindowBits/maxWindowBits bound RFC 7692's window-bits parameter.
// klauspost/compress/flate only compresses at the standard 32KiB (15
// bit) window regardless of what a peer asks for, so values outside
// this range are rejected rather than silently reinterpreted.
const (
	minWindowBits = 8
	maxWindowBits = 15
)

// ParseExtensions parses a Sec-WebSocket-Extensions header value and
// returns the permessage-deflate parameters it offers, if any.
// Unrecognized extensions are ignored rather than rejected — RFC 7692
// §5 leaves that to the implementation, and this package only
// implements the one extension it advertises.
func ParseExtensions(header string) (PermessageDeflateParams, error) {
	var params PermessageDeflateParams
	if header == "" {
		return params, nil
	}

	for _, offer := range strings.Split(header, ",") {
		tokens := strings.Split(offer, ";")
		name := strings.TrimSpace(tokens[0])
		if !strings.EqualFold(name, "permessage-deflate") {
			continue
		}
		params.Enabled = true

		for _, tok := range tokens[1:] {
			tok = strings.TrimSpace(tok)
			key, value, _ := strings.Cut(tok, "=")
			key = strings.TrimSpace(key)
			value = strings.Trim(strings.TrimSpace(value), `"`)

			switch strings.ToLower(key) {
			case "server_no_context_takeover":
				params.ServerNoContextTakeover = true
			case "client_no_context_takeover":
				params.ClientNoContextTakeover = true
			case "server_max_window_bits":
				bits, err := parseWindowBits(value)
				if err != nil {
					return PermessageDeflateParams{}, err
				}
				params.ServerMaxWindowBits = bits
			case "client_max_window_bits":
				bits, err := parseWindowBits(value)
				if err != nil {
					return PermessageDeflateParams{}, err
				}
				params.ClientMaxWindowBits = bits
			}
		}
		break
	}

	return params, nil
}

func parseWindowBits(value string) (int, error) {
	if value == "" {
		// client_max_window_bits is valid with no value, meaning "the
		// client supports a server-chosen value"; leave unset (0).
		return 0, nil
	}
	bits, err := strconv.Atoi(value)
	if err != nil {
		return 0, ErrBadExtensionParam
	}
	if bits < minWindowBits || bits > maxWindowBits {
		return 0, ErrBadExtensionParam
	}
	return bits, nil
}

