package rooms

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/Tyrowin/roomrelay/internal/ids"
)

// Directory is the set of live rooms. Every membership change and every
// room broadcast runs under its lock, so no two mutations of a room ever
// interleave.
type Directory struct {
	mu       sync.Mutex
	log      *slog.Logger
	rooms    map[ids.ID]*Room
	order    []ids.ID
	roomIDs  *ids.Allocator
	capacity int
	strict   bool
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithCapacity sets the capacity given to newly created rooms.
func WithCapacity(capacity int) DirectoryOption {
	return func(d *Directory) {
		if capacity > 0 {
			d.capacity = capacity
		}
	}
}

// WithAllocator supplies the room id space.
func WithAllocator(a *ids.Allocator) DirectoryOption {
	return func(d *Directory) {
		if a != nil {
			d.roomIDs = a
		}
	}
}

// WithStrict makes capacity violations panic instead of being logged.
func WithStrict(strict bool) DirectoryOption {
	return func(d *Directory) {
		d.strict = strict
	}
}

func NewDirectory(log *slog.Logger, opts ...DirectoryOption) *Directory {
	if log == nil {
		log = slog.Default()
	}
	d := &Directory{
		log:      log,
		rooms:    make(map[ids.ID]*Room),
		roomIDs:  ids.NewAllocator(),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Assign places p in the first open room with a free slot, scanning rooms
// in creation order, or in a new room when none qualifies. The announce
// payload goes to every member of the destination room, p included.
func (d *Directory) Assign(p *Participant, announce Notice) (Snapshot, []*Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.RoomID() != 0 {
		return Snapshot{}, nil, fmt.Errorf("%w: participant %d in room %d", ErrAlreadyAssigned, p.ID, p.RoomID())
	}

	room, found := lo.Find(d.ordered(), func(r *Room) bool { return r.acceptsMembers() })
	if !found {
		id, err := d.roomIDs.Allocate()
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("%w: %w", ErrRoomIDs, err)
		}
		room = NewRoom(id, d.capacity, d.log)
		d.rooms[id] = room
		d.order = append(d.order, id)
		d.log.Debug("Room created", "room", id, "capacity", room.Capacity)
	}

	room.AddMember(p)
	p.setRoom(room.ID)
	d.checkCapacity(room)

	snapshot := room.Snapshot()
	var failed []*Participant
	if announce != nil {
		failed = room.Broadcast(announce(snapshot, p), 0)
	}
	return snapshot, failed, nil
}

// Release removes p from its room, announcing the departure to the members
// left behind. A room that becomes empty is dropped and its id freed before
// the lock is released. The boolean reports whether the room was destroyed.
func (d *Directory) Release(p *Participant, announce Notice) (Snapshot, bool, []*Participant) {
	d.mu.Lock()
	defer d.mu.Unlock()

	roomID := p.RoomID()
	room, ok := d.rooms[roomID]
	if !ok {
		p.setRoom(0)
		return Snapshot{}, false, nil
	}

	p.setRoom(0)
	remaining, failed := room.RemoveMember(p, announce)
	snapshot := room.Snapshot()
	if remaining > 0 {
		return snapshot, false, failed
	}

	delete(d.rooms, roomID)
	d.order = lo.Without(d.order, roomID)
	if !d.roomIDs.Free(roomID) {
		d.log.Warn("Room id was not issued", "room", roomID)
	}
	d.log.Debug("Room destroyed", "room", roomID)
	return snapshot, true, failed
}

// Broadcast sends payload to the members of a room, skipping exclude.
func (d *Directory) Broadcast(roomID ids.ID, payload []byte, exclude ids.ID) ([]*Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRoom, roomID)
	}
	return room.Broadcast(payload, exclude), nil
}

// Close takes a room out of first-fit matching. Its members stay.
func (d *Directory) Close(roomID ids.ID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownRoom, roomID)
	}
	room.state = Closed
	return nil
}

func (d *Directory) Room(roomID ids.ID) (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	return room.Snapshot(), true
}

// Snapshots lists the rooms in matching order.
func (d *Directory) Snapshots() []Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return lo.Map(d.ordered(), func(r *Room, _ int) Snapshot { return r.Snapshot() })
}

func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.rooms)
}

func (d *Directory) ordered() []*Room {
	return lo.Map(d.order, func(id ids.ID, _ int) *Room { return d.rooms[id] })
}

func (d *Directory) checkCapacity(room *Room) {
	if room.Len() <= room.Capacity {
		return
	}
	err := fmt.Errorf("%w: room %d holds %d of %d", ErrCapacityExceeded, room.ID, room.Len(), room.Capacity)
	if d.strict {
		panic(err)
	}
	d.log.Error("Room invariant violated", "room", room.ID, "error", err)
}
