//go:generate go run go.uber.org/mock/mockgen -source=sink.go -destination=../mocks/mock_sink.go -package=mocks
package rooms

// Sink is the outbound side of a participant's connection. Send must not
// block: implementations enqueue and return an error when they cannot.
// Close evicts the connection; the transport reports the disconnect
// afterwards.
type Sink interface {
	Send(payload []byte) error
	Close() error
}
