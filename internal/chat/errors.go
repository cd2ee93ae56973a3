package chat

import "errors"

var (
	ErrSurfaceNotFound  = errors.New("chat surface not found")
	ErrNotAMember       = errors.New("not a member of this lounge")
	ErrNotAParticipant  = errors.New("not a participant of this match")
	ErrEmptyMessage     = errors.New("message needs text or an image")
	ErrInvalidRecipient = errors.New("recipient is not the other match participant")
	ErrUnknownSurface   = errors.New("unknown surface kind")
	ErrInvalidParent    = errors.New("invalid lounge parent")
	ErrInvalidMatch     = errors.New("invalid match")
)
