package identity

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// HeaderResolver для dev-режима. Bearer обязателен, но не проверяется,
// пользователь берётся из X-User-ID.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(_ context.Context, cred Credentials) (*domain.Caller, error) {
	if _, err := bearer(cred.Authorization); err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(cred.UserID)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing X-User-ID", domain.ErrNotAuthenticated)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid X-User-ID (must be positive int64)", domain.ErrNotAuthenticated)
	}
	return &domain.Caller{UserID: domain.UserID(id), Bot: domain.BotID(strings.TrimSpace(cred.BotID))}, nil
}
