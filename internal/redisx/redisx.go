package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Limiter считает мутации на ключ в окне, INCR + EXPIRE в одной транзакции.
type Limiter struct {
	r      *redis.Client
	limit  int64
	window time.Duration
}

func NewLimiter(r *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{r: r, limit: int64(limit), window: window}
}

// Allow возвращает false, когда лимит на ключ исчерпан.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := Key(key)
	pipe := l.r.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= l.limit, nil
}

func Key(key string) string { return "chat:rl:" + key }
