// Package identity превращает учётные данные запроса в domain.Caller.
// Токены выпускает внешний auth-service, здесь только проверка.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Credentials: то, что транспорт достал из заголовков или gRPC metadata.
type Credentials struct {
	Authorization string // "Bearer <token>"
	UserID        string // X-User-ID, только для header-режима
	BotID         string // X-Bot-ID, только для header-режима
}

type Resolver interface {
	Resolve(ctx context.Context, cred Credentials) (*domain.Caller, error)
}

func bearer(auth string) (string, error) {
	auth = strings.TrimSpace(auth)
	if len(auth) <= 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return "", fmt.Errorf("%w: missing bearer token", domain.ErrNotAuthenticated)
	}
	return strings.TrimSpace(auth[7:]), nil
}

type ctxKey struct{}

func WithCaller(ctx context.Context, c *domain.Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// CallerFrom возвращает nil, если запрос не аутентифицирован.
func CallerFrom(ctx context.Context) *domain.Caller {
	c, _ := ctx.Value(ctxKey{}).(*domain.Caller)
	return c
}
