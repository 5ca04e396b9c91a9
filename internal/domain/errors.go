package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNotMember          = errors.New("caller is not a member of the chat")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrNotFound           = errors.New("not found")
	ErrNotAuthor          = errors.New("caller is not the author of the message")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
)

// Уточнённые ошибки; errors.Is срабатывает и на базовую.
var (
	ErrChannelWriteDenied = fmt.Errorf("%w: only owner and admins can post to a channel", ErrInsufficientRole)

	ErrChatNotFound    = fmt.Errorf("chat %w", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)
	ErrMemberNotFound  = fmt.Errorf("member %w", ErrNotFound)
)
