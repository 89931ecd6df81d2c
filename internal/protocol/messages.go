// Package protocol decodes the chat wire envelope into typed messages and
// drives the room directory from them.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Tyrowin/roomrelay/internal/ids"
	"github.com/Tyrowin/roomrelay/internal/rooms"
)

// Type tags every frame. The values are fixed by the wire format.
type Type int

const (
	TypeJoin  Type = 0
	TypeLeave Type = 1
	TypeChat  Type = 2
	TypeError Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeJoin:
		return "JOIN"
	case TypeLeave:
		return "LEAVE"
	case TypeChat:
		return "CHAT"
	case TypeError:
		return "ERROR"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

var (
	ErrDecode             = errors.New("malformed frame")
	ErrAlreadyJoined      = errors.New("connection already joined")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrJoinFailed         = errors.New("join failed")
)

// Error codes carried by ERROR frames.
const (
	CodeBadRequest    = "bad_request"
	CodeAlreadyJoined = "already_joined"
	CodeJoinFailed    = "join_failed"
)

// Inbound is one of Join, Leave or Chat.
type Inbound interface {
	Kind() Type
}

type Join struct {
	Nickname string
}

type Leave struct{}

type Chat struct {
	Message string
}

func (Join) Kind() Type  { return TypeJoin }
func (Leave) Kind() Type { return TypeLeave }
func (Chat) Kind() Type  { return TypeChat }

// envelope is the raw inbound shape. Clients may send extra fields; the
// original UI sends a "message" along with its JOIN.
type envelope struct {
	Type     *Type  `json:"type" validate:"required,oneof=0 1 2"`
	Nickname string `json:"nickname"`
	Message  string `json:"message"`
}

var validate = validator.New()

// Decode parses one frame. Every failure wraps ErrDecode.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	switch *env.Type {
	case TypeJoin:
		return Join{Nickname: env.Nickname}, nil
	case TypeLeave:
		return Leave{}, nil
	default:
		return Chat{Message: env.Message}, nil
	}
}

// RoomNotice announces a JOIN or a LEAVE to a room.
type RoomNotice struct {
	Type      Type        `json:"type"`
	Room      ids.ID      `json:"room"`
	RoomCount int         `json:"roomCount"`
	RoomMax   int         `json:"roomMax"`
	RoomState rooms.State `json:"roomState"`
	Nickname  string      `json:"nickname"`
	Users     int         `json:"users"`
}

func NewRoomNotice(t Type, room rooms.Snapshot, nickname string, users int) RoomNotice {
	return RoomNotice{
		Type:      t,
		Room:      room.ID,
		RoomCount: room.Count,
		RoomMax:   room.Capacity,
		RoomState: room.State,
		Nickname:  nickname,
		Users:     users,
	}
}

// ChatNotice relays a chat line to the sender's room mates.
type ChatNotice struct {
	Type    Type   `json:"type"`
	From    string `json:"from"`
	Message string `json:"message"`
	Users   int    `json:"users"`
}

// ErrorNotice is only ever sent to the connection that caused it.
type ErrorNotice struct {
	Type    Type   `json:"type"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func NewErrorNotice(code string, err error) ErrorNotice {
	return ErrorNotice{Type: TypeError, Code: code, Message: err.Error()}
}

// Encode renders an outbound notice.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
