package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// credentialFromRequest extracts the handshake credential. Browsers cannot
// set headers on a WebSocket handshake, so they send it as the subprotocol
// that follows marker; the marker is then echoed back as the selected
// subprotocol. Other clients use an Authorization bearer header.
func credentialFromRequest(r *http.Request, marker string) (string, http.Header) {
	protocols := websocket.Subprotocols(r)
	for i, protocol := range protocols {
		if protocol == marker && i+1 < len(protocols) {
			return protocols[i+1], http.Header{"Sec-Websocket-Protocol": {marker}}
		}
	}

	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token), nil
	}
	return "", nil
}
