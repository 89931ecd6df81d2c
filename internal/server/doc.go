// Package server is the WebSocket transport of the room relay.
//
// It upgrades HTTP connections, runs one read pump and one write pump per
// connection, and reports connection lifecycle and inbound frames to a
// ConnectionHandler (the protocol handler in production). Outbound frames
// come back through Client.Send, which never blocks.
package server
