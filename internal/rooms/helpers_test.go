package rooms

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/roomrelay/internal/ids"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []string
	closed bool
}

func (s *recordingSink) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("sink closed")
	}
	s.frames = append(s.frames, string(payload))
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Frames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.frames...)
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func newTestParticipant(id ids.ID, nickname string) (*Participant, *recordingSink) {
	sink := &recordingSink{}
	return NewParticipant(id, nickname, "", sink), sink
}

// textNotice renders "<tag> <nickname> <room count>/<capacity>".
func textNotice(tag string) Notice {
	return func(room Snapshot, p *Participant) []byte {
		return []byte(fmt.Sprintf("%s %s %d/%d", tag, p.Nickname, room.Count, room.Capacity))
	}
}
