package rooms

import "errors"

var (
	// ErrCapacityExceeded reports a room observed with more members than its
	// capacity. It always means the directory assigned past a full room.
	ErrCapacityExceeded = errors.New("room capacity exceeded")
	ErrUnknownRoom      = errors.New("unknown room")
	ErrAlreadyAssigned  = errors.New("participant already assigned to a room")
	ErrRoomIDs          = errors.New("room id allocation failed")
)
