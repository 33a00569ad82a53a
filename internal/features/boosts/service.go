// Package boosts: чтение активных бустеров и уборка истёкших.
// Продление бустеров делает эффект TimedBoost (internal/features/effects).
package boosts

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// ActiveMultiplier возвращает множитель действующего бустера или 1.
// Вызывается внутри чужой единицы работы.
func ActiveMultiplier(ctx context.Context, tx ledger.Boosts, accountID int64, boostType string, now time.Time) (float64, error) {
	b, err := tx.GetBoost(ctx, accountID, boostType)
	if err != nil {
		return 0, err
	}
	if b == nil || !b.Active(now) || b.Multiplier <= 0 {
		return 1, nil
	}
	return b.Multiplier, nil
}

// Service отдаёт бустеры аккаунта и чистит истёкшие.
type Service struct {
	store ledger.Store
	now   func() time.Time
}

// NewService создаёт сервис бустеров.
func NewService(store ledger.Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// Multiplier: множитель бустера boostType на текущий момент.
func (s *Service) Multiplier(ctx context.Context, accountID int64, boostType string) (float64, error) {
	var mult float64
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		mult, err = ActiveMultiplier(ctx, tx, accountID, boostType, s.now())
		return err
	})
	return mult, err
}

// Active возвращает действующие бустеры аккаунта. Истёкшие, но ещё не убранные, не показываем.
func (s *Service) Active(ctx context.Context, accountID int64) ([]*ledger.Boost, error) {
	now := s.now()
	var out []*ledger.Boost
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		all, err := tx.ListBoosts(ctx, accountID)
		if err != nil {
			return err
		}
		for _, b := range all {
			if b.Active(now) {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

// Sweep физически удаляет истёкшие бустеры. Запускается кроном.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	var n int64
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		n, err = tx.DeleteExpiredBoosts(ctx, s.now())
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.BoostsExpired.Add(float64(n))
		log.WithField("removed", n).Info("Истёкшие бустеры удалены")
	}
	return n, nil
}
