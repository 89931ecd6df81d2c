// Package server defines the transport errors and shared helpers used by
// the client pumps and the hub.
package server

import (
	"errors"
	"strings"

	"github.com/Tyrowin/roomrelay/internal/protocol"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrClientClosed   = errors.New("client closed")
)

// ConnectionHandler receives the lifecycle of every upgraded connection.
type ConnectionHandler interface {
	OnConnect(conn protocol.Conn)
	OnMessage(conn protocol.Conn, data []byte)
	OnDisconnect(conn protocol.Conn)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
