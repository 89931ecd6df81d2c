package protocol

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tyrowin/roomrelay/internal/ids"
	"github.com/Tyrowin/roomrelay/internal/rooms"
)

// Conn is the transport's view of one connection as the handler sees it.
type Conn interface {
	rooms.Sink
	ID() string
	// Credential is whatever the handshake carried. It is opaque here.
	Credential() string
}

// Stats is a point-in-time count of live participants and rooms.
type Stats struct {
	Participants int `json:"participants"`
	Rooms        int `json:"rooms"`
}

// Handler turns inbound frames and connection lifecycle events into
// directory mutations and outbound notices.
type Handler struct {
	log            *slog.Logger
	dir            *rooms.Directory
	table          *Table
	participantIDs *ids.Allocator
}

// Option configures a Handler.
type Option func(*Handler)

// WithParticipantIDs supplies the participant id space.
func WithParticipantIDs(a *ids.Allocator) Option {
	return func(h *Handler) {
		if a != nil {
			h.participantIDs = a
		}
	}
}

func NewHandler(log *slog.Logger, dir *rooms.Directory, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		log:            log,
		dir:            dir,
		table:          NewTable(),
		participantIDs: ids.NewAllocator(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnConnect records a new connection. The participant only exists once the
// connection sends JOIN.
func (h *Handler) OnConnect(conn Conn) {
	h.log.Debug("Connection opened", "conn", conn.ID())
}

// OnMessage handles one inbound frame. Failures stay with the originating
// connection.
func (h *Handler) OnMessage(conn Conn, data []byte) {
	err := h.Handle(conn, data)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownParticipant), errors.Is(err, rooms.ErrUnknownRoom):
		h.log.Debug("Ignoring frame", "conn", conn.ID(), "error", err)
	default:
		h.log.Warn("Frame rejected", "conn", conn.ID(), "error", err)
	}
}

// Handle decodes and applies one frame and reports what went wrong, if
// anything. Malformed frames and rejected JOINs get an ERROR reply.
func (h *Handler) Handle(conn Conn, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		h.reply(conn, NewErrorNotice(CodeBadRequest, err))
		return err
	}

	switch m := msg.(type) {
	case Join:
		return h.join(conn, m)
	case Chat:
		return h.chat(conn, m)
	default:
		// Departures are detected from the transport, not from LEAVE frames.
		return nil
	}
}

// OnDisconnect tears down the connection's participant. Repeated or
// concurrent calls for the same connection are no-ops after the first.
func (h *Handler) OnDisconnect(conn Conn) {
	p, ok := h.table.Remove(conn.ID())
	if !ok {
		h.log.Debug("Connection closed before joining", "conn", conn.ID())
		return
	}

	if !h.participantIDs.Free(p.ID) {
		h.log.Warn("Participant id was not issued", "participant", p.ID)
	}
	room, destroyed, failed := h.dir.Release(p, h.leaveNotice)
	h.log.Info("Participant left",
		"conn", conn.ID(),
		"participant", p.ID,
		"room", room.ID,
		"roomCount", room.Count,
		"roomDestroyed", destroyed,
	)
	h.evict(failed)
}

// Stats counts live participants and rooms.
func (h *Handler) Stats() Stats {
	return Stats{
		Participants: h.table.Len(),
		Rooms:        h.dir.Len(),
	}
}

func (h *Handler) join(conn Conn, m Join) error {
	if _, joined := h.table.Lookup(conn.ID()); joined {
		h.reply(conn, NewErrorNotice(CodeAlreadyJoined, ErrAlreadyJoined))
		return ErrAlreadyJoined
	}

	id, err := h.participantIDs.Allocate()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrJoinFailed, err)
		h.reply(conn, NewErrorNotice(CodeJoinFailed, err))
		return err
	}

	p := rooms.NewParticipant(id, m.Nickname, conn.Credential(), conn)
	if !h.table.Add(conn.ID(), p) {
		h.participantIDs.Free(id)
		h.reply(conn, NewErrorNotice(CodeAlreadyJoined, ErrAlreadyJoined))
		return ErrAlreadyJoined
	}

	room, failed, err := h.dir.Assign(p, h.joinNotice)
	if err != nil {
		h.table.Remove(conn.ID())
		h.participantIDs.Free(id)
		err = fmt.Errorf("%w: %w", ErrJoinFailed, err)
		h.reply(conn, NewErrorNotice(CodeJoinFailed, err))
		return err
	}

	h.log.Info("Participant joined",
		"conn", conn.ID(),
		"participant", p.ID,
		"room", room.ID,
		"roomCount", room.Count,
		"roomMax", room.Capacity,
	)
	h.evict(failed)
	return nil
}

func (h *Handler) chat(conn Conn, m Chat) error {
	sender, ok := h.table.Lookup(conn.ID())
	if !ok {
		return fmt.Errorf("%w: chat from connection %s", ErrUnknownParticipant, conn.ID())
	}

	payload, err := Encode(ChatNotice{
		Type:    TypeChat,
		From:    sender.Nickname,
		Message: m.Message,
		Users:   h.table.Len(),
	})
	if err != nil {
		return err
	}

	failed, err := h.dir.Broadcast(sender.RoomID(), payload, sender.ID)
	if err != nil {
		return err
	}
	h.evict(failed)
	return nil
}

func (h *Handler) joinNotice(room rooms.Snapshot, p *rooms.Participant) []byte {
	return h.roomNotice(TypeJoin, room, p)
}

func (h *Handler) leaveNotice(room rooms.Snapshot, p *rooms.Participant) []byte {
	return h.roomNotice(TypeLeave, room, p)
}

func (h *Handler) roomNotice(t Type, room rooms.Snapshot, p *rooms.Participant) []byte {
	payload, err := Encode(NewRoomNotice(t, room, p.Nickname, h.table.Len()))
	if err != nil {
		h.log.Error("Encoding room notice", "type", t, "room", room.ID, "error", err)
		return nil
	}
	return payload
}

// evict closes the sinks that failed a delivery. The transport then reports
// their disconnect, which runs the normal teardown.
func (h *Handler) evict(failed []*rooms.Participant) {
	for _, p := range failed {
		h.log.Warn("Evicting participant after failed delivery", "participant", p.ID)
		if err := p.Sink.Close(); err != nil {
			h.log.Debug("Closing failed sink", "participant", p.ID, "error", err)
		}
	}
}

func (h *Handler) reply(conn Conn, notice ErrorNotice) {
	payload, err := Encode(notice)
	if err != nil {
		h.log.Error("Encoding error notice", "conn", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(payload); err != nil {
		h.log.Debug("Error notice not delivered", "conn", conn.ID(), "error", err)
	}
}
