package rooms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Tyrowin/roomrelay/internal/ids"
	"github.com/Tyrowin/roomrelay/internal/mocks"
)

func TestRoom_Broadcast_ExcludesSender(t *testing.T) {
	req := require.New(t)
	room := NewRoom(1, 5, testLogger())
	a, sinkA := newTestParticipant(10, "a")
	b, sinkB := newTestParticipant(11, "b")
	c, sinkC := newTestParticipant(12, "c")
	room.AddMember(a)
	room.AddMember(b)
	room.AddMember(c)

	// When b broadcasts
	failed := room.Broadcast([]byte("hello"), b.ID)

	// Then a and c receive it, b does not
	req.Empty(failed)
	req.Equal([]string{"hello"}, sinkA.Frames())
	req.Empty(sinkB.Frames())
	req.Equal([]string{"hello"}, sinkC.Frames())
}

func TestRoom_Broadcast_IsolatesFailingRecipient(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	room := NewRoom(1, 5, testLogger())
	broken := mocks.NewMockSink(ctrl)
	panicking := mocks.NewMockSink(ctrl)
	first, sinkFirst := newTestParticipant(1, "first")
	last, sinkLast := newTestParticipant(4, "last")
	room.AddMember(first)
	room.AddMember(NewParticipant(2, "broken", "", broken))
	room.AddMember(NewParticipant(3, "panicking", "", panicking))
	room.AddMember(last)

	// Given one sink errors and one panics
	broken.EXPECT().Send([]byte("payload")).Return(errors.New("buffer full")).Times(1)
	panicking.EXPECT().Send(gomock.Any()).Do(func([]byte) { panic("closed channel") }).Times(1)

	// When the room broadcasts
	failed := room.Broadcast([]byte("payload"), 0)

	// Then both failures are reported and the healthy members still receive
	req.Len(failed, 2)
	req.Equal(ids.ID(2), failed[0].ID)
	req.Equal(ids.ID(3), failed[1].ID)
	req.Equal([]string{"payload"}, sinkFirst.Frames())
	req.Equal([]string{"payload"}, sinkLast.Frames())
}

func TestRoom_RemoveMember_AnnouncesToRemainingOnly(t *testing.T) {
	req := require.New(t)
	room := NewRoom(1, 5, testLogger())
	a, sinkA := newTestParticipant(10, "a")
	b, sinkB := newTestParticipant(11, "b")
	room.AddMember(a)
	room.AddMember(b)

	remaining, failed := room.RemoveMember(b, textNotice("leave"))

	req.Equal(1, remaining)
	req.Empty(failed)
	req.Equal([]string{"leave b 1/5"}, sinkA.Frames())
	req.Empty(sinkB.Frames())
	req.Equal([]ids.ID{10}, room.Snapshot().Members)
}

func TestRoom_RemoveMember_UnknownParticipantIsNoop(t *testing.T) {
	req := require.New(t)
	room := NewRoom(1, 5, testLogger())
	a, sinkA := newTestParticipant(10, "a")
	stranger, _ := newTestParticipant(99, "stranger")
	room.AddMember(a)

	remaining, failed := room.RemoveMember(stranger, textNotice("leave"))

	req.Equal(1, remaining)
	req.Empty(failed)
	req.Empty(sinkA.Frames())
}

func TestRoom_AddMember_DoesNotEnforceCapacity(t *testing.T) {
	req := require.New(t)
	room := NewRoom(1, 1, testLogger())
	a, _ := newTestParticipant(1, "a")
	b, _ := newTestParticipant(2, "b")

	room.AddMember(a)
	req.False(room.acceptsMembers())
	room.AddMember(b)

	req.Equal(2, room.Len())
}

func TestNewRoom_DefaultsCapacityAndState(t *testing.T) {
	req := require.New(t)
	room := NewRoom(7, 0, nil)

	req.Equal(DefaultCapacity, room.Capacity)
	req.Equal(Open, room.State())
	req.True(room.acceptsMembers())
}
