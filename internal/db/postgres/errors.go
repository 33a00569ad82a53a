package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
)

// Коды PostgreSQL, после которых операцию можно повторить.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
)

// IsConflict сообщает, что ошибка: конфликт блокировок или сериализации.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// IsUniqueViolation сообщает о нарушении уникального индекса.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// IsCheckViolation сообщает о нарушении CHECK (например, баланс < 0).
func IsCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeCheckViolation
}

// ClassifyError превращает конфликт блокировок в common.ErrConcurrencyConflict,
// остальные ошибки возвращает как есть.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, common.ErrConcurrencyConflict) {
		return err
	}
	if IsConflict(err) {
		return fmt.Errorf("%w: %v", common.ErrConcurrencyConflict, err)
	}
	return err
}

// SafeRollback откатывает транзакцию и логирует всё, кроме ErrTxClosed.
func SafeRollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.WithError(err).Error("Ошибка отката транзакции")
	}
}

// SetLockTimeout ограничивает ожидание чужих блокировок в рамках транзакции.
func SetLockTimeout(ctx context.Context, tx pgx.Tx, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", d.Milliseconds()))
	return err
}
