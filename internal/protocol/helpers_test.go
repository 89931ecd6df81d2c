package protocol

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/rooms"
)

type fakeConn struct {
	id         string
	credential string

	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	failSend bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString(), credential: "token-" + uuid.NewString()}
}

func (c *fakeConn) ID() string         { return c.id }
func (c *fakeConn) Credential() string { return c.credential }

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failSend {
		return errors.New("send buffer full")
	}
	c.frames = append(c.frames, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// drain returns and forgets the frames received so far, decoded as generic
// JSON objects.
func (c *fakeConn) drain(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	frames := c.frames
	c.frames = nil
	c.mu.Unlock()

	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func newTestLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func newTestHandler(opts ...rooms.DirectoryOption) (*Handler, *rooms.Directory) {
	log := newTestLogger()
	dir := rooms.NewDirectory(log, opts...)
	return NewHandler(log, dir), dir
}

func joinFrame(nickname string) []byte {
	return []byte(`{"type":0,"nickname":"` + nickname + `"}`)
}

func chatFrame(message string) []byte {
	return []byte(`{"type":2,"message":"` + message + `"}`)
}

// joinAll connects and joins one fake connection per nickname and clears
// their inboxes.
func joinAll(t *testing.T, h *Handler, nicknames ...string) []*fakeConn {
	t.Helper()
	conns := make([]*fakeConn, 0, len(nicknames))
	for _, n := range nicknames {
		c := newFakeConn()
		h.OnConnect(c)
		require.NoError(t, h.Handle(c, joinFrame(n)))
		conns = append(conns, c)
	}
	for _, c := range conns {
		c.drain(t)
	}
	return conns
}
