package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the parent of every validation error; callers map it
// to a 4xx response.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidParticipants = fmt.Errorf("%w: a chat needs at least two distinct participants", ErrInvalidArgument)
	ErrEmptyMessage        = fmt.Errorf("%w: message needs text or media", ErrInvalidArgument)
	ErrMissingChatID       = fmt.Errorf("%w: chat id is required", ErrInvalidArgument)
	ErrMissingSender       = fmt.Errorf("%w: sender is required", ErrInvalidArgument)
	ErrMalformedID         = fmt.Errorf("%w: malformed id", ErrInvalidArgument)
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("user is not a participant of this chat")
)
