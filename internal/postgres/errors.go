package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// querier: общее у *pgxpool.Pool и pgx.Tx, чтобы один код работал в транзакции и без.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02" // кривой uuid от клиента
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound: нет строки или id не является uuid.
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidText {
		return sentinel
	}
	return err
}

func mapPgError(err error, missing error) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return fmt.Errorf("%w: %v", domain.ErrInvariantViolation, err)
	case codeForeignKeyViolation, codeInvalidText:
		return missing
	}
	return err
}
