package chat

import "errors"

var (
	// ErrEmptyMessage: the message is empty after trimming.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrMalformedRequest: the request body could not be decoded.
	ErrMalformedRequest = errors.New("chat: malformed request")
	// ErrInternal hides storage and matching faults from callers; the
	// cause is logged where it is produced.
	ErrInternal = errors.New("chat: internal error")
	// ErrInvalidRule: an admin edit would produce an unusable rule.
	ErrInvalidRule = errors.New("chat: invalid rule")
)
