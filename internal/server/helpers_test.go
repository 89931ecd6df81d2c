package server_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/protocol"
	"github.com/Tyrowin/roomrelay/internal/server"
)

const (
	testOrigin  = "http://localhost:9090"
	readTimeout = 2 * time.Second
)

// frame is a decoded outbound message. Only the fields of its type are set.
type frame struct {
	Type      protocol.Type `json:"type"`
	Room      uint32        `json:"room"`
	RoomCount int           `json:"roomCount"`
	RoomMax   int           `json:"roomMax"`
	RoomState int           `json:"roomState"`
	Nickname  string        `json:"nickname"`
	Users     int           `json:"users"`
	From      string        `json:"from"`
	Message   string        `json:"message"`
	Error     string        `json:"error"`
}

// startRelay runs a relay behind an httptest server and returns it with its
// WebSocket URL. mutate may adjust the configuration first.
func startRelay(t *testing.T, mutate func(*server.Config)) (*server.Server, *httptest.Server, string) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{testOrigin}
	cfg.LogLevel = "DEBUG"
	if mutate != nil {
		mutate(cfg)
	}

	relay, err := server.New(*cfg, logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	relay.Start()

	testServer := httptest.NewServer(relay.Routes())
	t.Cleanup(func() {
		_ = relay.Shutdown(nil, 2*time.Second)
		testServer.Close()
	})

	return relay, testServer, "ws" + strings.TrimPrefix(testServer.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, dialer *websocket.Dialer) *websocket.Conn {
	t.Helper()

	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	}
	headers := http.Header{}
	headers.Set("Origin", testOrigin)

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(data, &f), string(data))
	return f
}

// expectNoFrame asserts nothing arrives within d. The connection cannot be
// read from afterwards.
func expectNoFrame(t *testing.T, conn *websocket.Conn, d time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(d)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame %s", data)
}

// join connects a participant and waits for its own JOIN notice.
func join(t *testing.T, url, nickname string) (*websocket.Conn, frame) {
	t.Helper()

	conn := dial(t, url, nil)
	sendJSON(t, conn, map[string]any{"type": protocol.TypeJoin, "nickname": nickname})
	notice := readFrame(t, conn)
	require.Equal(t, protocol.TypeJoin, notice.Type)
	require.Equal(t, nickname, notice.Nickname)
	return conn, notice
}

// joinAll joins nicknames in order and drains the JOIN notices each earlier
// roommate receives, so every connection starts with an empty queue.
func joinAll(t *testing.T, url string, nicknames ...string) ([]*websocket.Conn, []frame) {
	t.Helper()

	conns := make([]*websocket.Conn, 0, len(nicknames))
	notices := make([]frame, 0, len(nicknames))
	for _, nickname := range nicknames {
		conn, notice := join(t, url, nickname)
		for i, prev := range notices {
			if prev.Room == notice.Room {
				got := readFrame(t, conns[i])
				require.Equal(t, protocol.TypeJoin, got.Type)
				require.Equal(t, nickname, got.Nickname)
			}
		}
		conns = append(conns, conn)
		notices = append(notices, notice)
	}
	return conns, notices
}

func getStats(t *testing.T, baseURL string) protocol.Stats {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/stats")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var stats protocol.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	return stats
}

func eventuallyStats(t *testing.T, baseURL string, want protocol.Stats) {
	t.Helper()

	client := &http.Client{Timeout: time.Second}
	require.Eventually(t, func() bool {
		resp, err := client.Get(baseURL + "/stats")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()

		var stats protocol.Stats
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			return false
		}
		return stats == want
	}, readTimeout, 10*time.Millisecond)
}
