package effects

import (
	"context"
	"fmt"
	"time"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/ledger"
)

// Result описывает, что изменилось после применения эффекта.
type Result struct {
	Kind       Kind
	ItemID     string        // PermanentUnlock
	Boost      *ledger.Boost // TimedBoost: бустер после продления
	Extended   bool          // TimedBoost: продлён существующий
	SkipsAdded int           // SkipCredit
	Title      string        // TitleOverwrite
}

// Apply применяет эффект к аккаунту внутри единицы работы.
// Ошибка означает, что вызывающий обязан откатить всю единицу.
func Apply(ctx context.Context, tx ledger.Tx, accountID int64, e Effect, now time.Time) (*Result, error) {
	switch eff := e.(type) {
	case PermanentUnlock:
		if err := tx.AddOwnedPermanent(ctx, accountID, eff.ItemID); err != nil {
			return nil, err
		}
		return &Result{Kind: KindPermanentUnlock, ItemID: eff.ItemID}, nil

	case TimedBoost:
		return applyBoost(ctx, tx, accountID, eff, now)

	case SkipCredit:
		// Пропуски можно купить до первого чек-ина
		if err := tx.CreateStreak(ctx, accountID); err != nil {
			return nil, err
		}
		if err := tx.AddFreeSkips(ctx, accountID, eff.Count); err != nil {
			return nil, err
		}
		return &Result{Kind: KindSkipCredit, SkipsAdded: eff.Count}, nil

	case TitleOverwrite:
		if err := tx.SetTitle(ctx, accountID, eff.Title); err != nil {
			return nil, err
		}
		return &Result{Kind: KindTitleOverwrite, Title: eff.Title}, nil
	}
	return nil, fmt.Errorf("%w: %T", common.ErrInvalidEffect, e)
}

// applyBoost продлевает действующий бустер на Duration или создаёт новый с now+Duration.
// Срок никогда не сокращается, множитель остаётся большим из двух.
func applyBoost(ctx context.Context, tx ledger.Tx, accountID int64, eff TimedBoost, now time.Time) (*Result, error) {
	if eff.Duration <= 0 || eff.Multiplier <= 0 {
		return nil, fmt.Errorf("%w: бустер %s без срока или множителя", common.ErrInvalidEffect, eff.BoostType)
	}

	existing, err := tx.GetBoost(ctx, accountID, eff.BoostType)
	if err != nil {
		return nil, err
	}

	boost := &ledger.Boost{
		AccountID:  accountID,
		BoostType:  eff.BoostType,
		Multiplier: eff.Multiplier,
		ExpiresAt:  now.Add(eff.Duration),
	}
	extended := existing != nil && existing.Active(now)
	if extended {
		boost.ExpiresAt = existing.ExpiresAt.Add(eff.Duration)
		boost.Multiplier = max(existing.Multiplier, eff.Multiplier)
	}

	if err := tx.UpsertBoost(ctx, boost); err != nil {
		return nil, err
	}
	return &Result{Kind: KindTimedBoost, Boost: boost, Extended: extended}, nil
}
