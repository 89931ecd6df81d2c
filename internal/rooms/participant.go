// Package rooms holds the participant and room entities and the directory
// that matches participants into bounded rooms.
package rooms

import (
	"sync/atomic"

	"github.com/Tyrowin/roomrelay/internal/ids"
)

// ParticipantState is the lifecycle position of a participant.
type ParticipantState int32

const (
	Unjoined ParticipantState = iota
	Joined
	Gone
)

func (s ParticipantState) String() string {
	switch s {
	case Unjoined:
		return "UNJOINED"
	case Joined:
		return "JOINED"
	case Gone:
		return "GONE"
	default:
		return "UNKNOWN"
	}
}

// Participant is one connected endpoint. It refers to its room by id only;
// the directory is the single owner of room objects.
type Participant struct {
	ID         ids.ID
	Nickname   string
	Credential string
	Sink       Sink

	room  atomic.Uint32
	state atomic.Int32
}

// NewParticipant creates an unjoined participant.
func NewParticipant(id ids.ID, nickname, credential string, sink Sink) *Participant {
	return &Participant{
		ID:         id,
		Nickname:   nickname,
		Credential: credential,
		Sink:       sink,
	}
}

// RoomID returns the room handle, zero when the participant is not in a room.
func (p *Participant) RoomID() ids.ID {
	return ids.ID(p.room.Load())
}

func (p *Participant) State() ParticipantState {
	return ParticipantState(p.state.Load())
}

// setRoom is only called by the directory while it holds its lock.
func (p *Participant) setRoom(id ids.ID) {
	p.room.Store(uint32(id))
	if id != 0 {
		p.state.CompareAndSwap(int32(Unjoined), int32(Joined))
		return
	}
	p.state.Store(int32(Gone))
}

// MarkGone moves the participant to its terminal state. It reports false
// when the participant was already gone.
func (p *Participant) MarkGone() bool {
	return ParticipantState(p.state.Swap(int32(Gone))) != Gone
}
