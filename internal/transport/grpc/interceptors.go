package grpcx

import (
	"context"
	"log/slog"
	"path"
	"runtime/debug"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/identity"
	"github.com/cwrk-planet/chat-service/internal/metrics"
	"github.com/cwrk-planet/chat-service/pkg/chatapi"
	"github.com/cwrk-planet/chat-service/pkg/logger"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Options: цепочка перехватчиков сервера.
type Options struct {
	Resolver identity.Resolver
	Limiter  Limiter       // nil: без ограничения
	Timeout  time.Duration // guard для вызовов без deadline
}

func ServerOptions(o Options) []grpc.ServerOption {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			UnaryServerInterceptor(o.Timeout),
			AuthInterceptor(o.Resolver),
			RateLimitInterceptor(o.Limiter),
		),
	}
}

// UnaryServerInterceptor: логирование, метрики, recovery и timeout guard
// (если у вызова нет deadline).
func UnaryServerInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		l := logger.FromContext(ctx).With(slog.String("method", info.FullMethod))
		ctx = logger.WithContext(ctx, l)

		defer func() {
			if r := recover(); r != nil {
				l.Error("grpc unary panic",
					"panic", r,
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}
			code := status.Code(err)
			metrics.ObserveCode("grpc", path.Base(info.FullMethod), grpcCode(code), start)

			level := slog.LevelInfo
			switch code {
			case codes.OK:
			case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
				level = slog.LevelError
			default:
				level = slog.LevelWarn
			}
			l.Log(ctx, level, "grpc unary",
				"code", code.String(),
				"dur_ms", time.Since(start).Milliseconds(),
				"err", errString(err))
		}()

		return handler(ctx, req)
	}
}

// AuthInterceptor резолвит вызывающего из metadata (authorization, x-user-id).
func AuthInterceptor(resolver identity.Resolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		c, err := resolver.Resolve(ctx, identity.Credentials{
			Authorization: first(md.Get(chatapi.MDAuthorization)),
			UserID:        first(md.Get(chatapi.MDUserID)),
			BotID:         first(md.Get(chatapi.MDBotID)),
		})
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		ctx = identity.WithCaller(ctx, c)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(logger.UserID(int64(c.UserID))))
		return handler(ctx, req)
	}
}

// RateLimitInterceptor ограничивает мутации; чтения и сбой лимитера не блокируют.
func RateLimitInterceptor(l Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		c := identity.CallerFrom(ctx)
		if l == nil || c == nil || readOnly[path.Base(info.FullMethod)] {
			return handler(ctx, req)
		}
		ok, err := l.Allow(ctx, "user:"+strconv.FormatInt(int64(c.UserID), 10))
		if err != nil {
			logger.FromContext(ctx).Warn("rate limiter unavailable", "err", err)
			return handler(ctx, req)
		}
		if !ok {
			metrics.RateLimited.Inc()
			return nil, mapErr(domain.ErrRateLimited)
		}
		return handler(ctx, req)
	}
}

var readOnly = map[string]bool{
	chatapi.MethodFetchMessages: true,
	chatapi.MethodGetChat:       true,
	chatapi.MethodListChats:     true,
	chatapi.MethodListMembers:   true,
}

func grpcCode(c codes.Code) string {
	switch c {
	case codes.OK:
		return "ok"
	case codes.Unauthenticated:
		return "unauthenticated"
	case codes.PermissionDenied:
		return "forbidden"
	case codes.NotFound:
		return "not_found"
	case codes.FailedPrecondition:
		return "conflict"
	case codes.InvalidArgument:
		return "invalid"
	case codes.ResourceExhausted:
		return "rate_limited"
	}
	return "internal"
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
