package repositories

import "errors"

var (
	ErrLoungeNotFound  = errors.New("lounge not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrSelfMatch       = errors.New("cannot match a user with themselves")
)
