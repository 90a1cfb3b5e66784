package domain

import "errors"

// Error taxonomy reported back to the originating session as a directed
// error message. None of these terminate the connection except ErrRateLimited,
// which is enforced before a session exists.
var (
	ErrDuplicateName   = errors.New("room name already exists")
	ErrNotFound        = errors.New("room not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrRoomFull        = errors.New("room is full (max 4 participants)")
	ErrForbidden       = errors.New("only room creator can delete the room")
	ErrNameEmpty       = errors.New("room name is required")
	ErrNameTooLong     = errors.New("room name too long (max 50 characters)")
	ErrRateLimited     = errors.New("rate limited")
)
