package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// RetryingStore повторяет единицу работы целиком, если она упала на конфликте блокировок.
// Любая другая ошибка возвращается сразу. fn должна быть безопасна для повтора:
// всё, что она прочитала, перечитывается в новой транзакции.
type RetryingStore struct {
	Store
	maxRetries uint64
	initial    time.Duration
}

// NewRetryingStore оборачивает store. maxRetries=0: без повторов.
func NewRetryingStore(store Store, maxRetries int) *RetryingStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryingStore{Store: store, maxRetries: uint64(maxRetries), initial: 50 * time.Millisecond}
}

// WithinTx выполняет fn, повторяя при common.ErrConcurrencyConflict с экспоненциальной паузой.
func (r *RetryingStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxInterval = time.Second

	attempt := 0
	op := func() error {
		attempt++
		err := r.Store.WithinTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrConcurrencyConflict) {
			return backoff.Permanent(err)
		}
		if uint64(attempt) <= r.maxRetries {
			metrics.TxConflictRetries.Inc()
			log.WithError(err).WithField("attempt", attempt).Debug("Конфликт блокировок, повторяем")
		}
		return err
	}

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx))
}
