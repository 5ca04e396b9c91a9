package httpmw

import (
	"encoding/json"
	"net/http"

	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

// Auth резолвит вызывающего из Authorization (+ X-User-ID в header-режиме)
// и кладёт его в контекст. Без вызывающего запрос дальше не идёт.
func Auth(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := resolver.Resolve(r.Context(), identity.Credentials{
				Authorization: r.Header.Get("Authorization"),
				UserID:        r.Header.Get("X-User-ID"),
				BotID:         r.Header.Get("X-Bot-ID"),
			})
			if err != nil {
				logger.FromContext(r.Context()).Debug("auth rejected", "err", err)
				writeError(w, http.StatusUnauthorized, err.Error(), "unauthenticated")
				return
			}
			ctx := identity.WithCaller(r.Context(), caller)
			l := logger.FromContext(ctx).With(logger.UserID(int64(caller.UserID)))
			next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, l)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(chatapi.ErrorResponse{Error: msg, Code: code})
}
