package rooms

import (
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/Tyrowin/roomrelay/internal/ids"
)

// State is a room's matching state. The numeric values are part of the
// wire format.
type State int

const (
	Closed State = 0
	Open   State = 1
)

func (s State) String() string {
	if s == Open {
		return "OPEN"
	}
	return "CLOSED"
}

// DefaultCapacity is the member limit of rooms created without an explicit
// capacity.
const DefaultCapacity = 5

// Snapshot is a consistent read-only view of a room.
type Snapshot struct {
	ID       ids.ID
	Count    int
	Capacity int
	State    State
	Members  []ids.ID
}

// Notice builds the payload announcing p's arrival or departure, given the
// room as it is after the change.
type Notice func(room Snapshot, p *Participant) []byte

// Room is a bounded set of participants sharing fan-out. A Room has no lock
// of its own: every call happens under the owning Directory's lock.
type Room struct {
	ID       ids.ID
	Capacity int

	state   State
	members []*Participant
	log     *slog.Logger
}

func NewRoom(id ids.ID, capacity int, log *slog.Logger) *Room {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = slog.Default()
	}
	return &Room{
		ID:       id,
		Capacity: capacity,
		state:    Open,
		log:      log.With("room", id),
	}
}

// AddMember appends p. Capacity is checked by the caller, not here.
func (r *Room) AddMember(p *Participant) {
	r.members = append(r.members, p)
}

// RemoveMember drops p and announces the departure to the members that
// remain. It returns the remaining count and the recipients whose sink
// failed.
func (r *Room) RemoveMember(p *Participant, announce Notice) (int, []*Participant) {
	if !lo.Contains(r.members, p) {
		return len(r.members), nil
	}
	r.members = lo.Without(r.members, p)

	var failed []*Participant
	if announce != nil && len(r.members) > 0 {
		failed = r.Broadcast(announce(r.Snapshot(), p), 0)
	}
	return len(r.members), failed
}

// Broadcast writes payload to every member except exclude (zero excludes
// nobody). A failing recipient never prevents delivery to the others; the
// failed ones are returned.
func (r *Room) Broadcast(payload []byte, exclude ids.ID) []*Participant {
	var failed []*Participant
	for _, member := range r.members {
		if exclude != 0 && member.ID == exclude {
			continue
		}
		if err := r.deliver(member, payload); err != nil {
			r.log.Debug("Delivery failed", "participant", member.ID, "error", err)
			failed = append(failed, member)
		}
	}
	return failed
}

func (r *Room) deliver(member *Participant, payload []byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("sink panic: %v", rec)
		}
	}()
	if member.Sink == nil {
		return fmt.Errorf("participant %d has no sink", member.ID)
	}
	return member.Sink.Send(payload)
}

func (r *Room) Len() int { return len(r.members) }

func (r *Room) State() State { return r.state }

// acceptsMembers is the first-fit predicate.
func (r *Room) acceptsMembers() bool {
	return r.state == Open && len(r.members) < r.Capacity
}

func (r *Room) Snapshot() Snapshot {
	return Snapshot{
		ID:       r.ID,
		Count:    len(r.members),
		Capacity: r.Capacity,
		State:    r.state,
		Members:  lo.Map(r.members, func(p *Participant, _ int) ids.ID { return p.ID }),
	}
}
