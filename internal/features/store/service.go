package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/effects"
	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// Service проводит покупки.
type Service struct {
	store   ledger.Store
	catalog *catalog.Catalog
	prices  *pricing.Engine
	now     func() time.Time
}

// NewService создаёт сервис магазина. now: источник времени, nil = time.Now.
func NewService(store ledger.Store, cat *catalog.Catalog, prices *pricing.Engine, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, catalog: cat, prices: prices, now: now}
}

// Purchase покупает предмет.
//
// Всё внутри одной единицы работы: блокировка аккаунта, проверка владения,
// расчёт цены, списание, запись покупки, эффект. Любая ошибка откатывает всё.
func (s *Service) Purchase(ctx context.Context, accountID int64, itemID string) (*Receipt, error) {
	item, err := s.catalog.Item(itemID)
	if err != nil {
		metrics.PurchaseFailures.WithLabelValues(reasonOf(err)).Inc()
		return nil, err
	}

	now := s.now()
	var receipt *Receipt

	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		acc, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if item.Permanent() {
			owned, err := tx.IsOwned(ctx, accountID, item.ID)
			if err != nil {
				return err
			}
			if owned {
				return fmt.Errorf("%s: %w", item.ID, common.ErrAlreadyOwned)
			}
		}

		snap, err := snapshot(ctx, tx, acc)
		if err != nil {
			return err
		}
		quote := s.prices.Price(item, snap, now)

		if err := Debit(ctx, tx, acc, quote.XP, quote.Rep); err != nil {
			return err
		}

		rec, res, err := Fulfil(ctx, tx, accountID, item, quote.XP, quote.Rep, ledger.SourceStore, now)
		if err != nil {
			return err
		}

		after, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		receipt = &Receipt{
			PurchaseID:   rec.ID,
			Item:         item,
			Quote:        quote,
			ChargedXP:    rec.ChargedXP,
			ChargedRep:   rec.ChargedRep,
			Source:       rec.Source,
			Effect:       res,
			RemainingXP:  after.SpendableXP,
			RemainingRep: after.Reputation,
		}
		return nil
	})
	if err != nil {
		metrics.PurchaseFailures.WithLabelValues(reasonOf(err)).Inc()
		log.WithError(err).WithFields(log.Fields{
			"account_id": accountID,
			"item_id":    itemID,
		}).Debug("Покупка отклонена")
		return nil, err
	}

	RecordPurchase(receipt)
	log.WithFields(log.Fields{
		"account_id":  accountID,
		"item_id":     item.ID,
		"charged_xp":  receipt.ChargedXP,
		"charged_rep": receipt.ChargedRep,
		"flash_sale":  receipt.Quote.FlashSale,
	}).Info("Покупка проведена")

	return receipt, nil
}

// Quote показывает цену предмета для аккаунта без списания.
func (s *Service) Quote(ctx context.Context, accountID int64, itemID string) (pricing.Quote, error) {
	item, err := s.catalog.Item(itemID)
	if err != nil {
		return pricing.Quote{}, err
	}

	var quote pricing.Quote
	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		acc, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		snap, err := snapshot(ctx, tx, acc)
		if err != nil {
			return err
		}
		quote = s.prices.Price(item, snap, s.now())
		return nil
	})
	return quote, err
}

// Shop возвращает витрину: все предметы с ценой для аккаунта и отметкой владения.
func (s *Service) Shop(ctx context.Context, accountID int64) ([]ShopEntry, error) {
	now := s.now()
	var entries []ShopEntry

	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		acc, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		snap, err := snapshot(ctx, tx, acc)
		if err != nil {
			return err
		}

		items := s.catalog.Items()
		entries = make([]ShopEntry, 0, len(items))
		for _, it := range items {
			entries = append(entries, ShopEntry{
				Item:  it,
				Quote: s.prices.Price(it, snap, now),
				Owned: it.Permanent() && acc.Owns(it.ID),
			})
		}
		return nil
	})
	return entries, err
}

// FlashSale возвращает предмет распродажи текущего часа.
func (s *Service) FlashSale() (catalog.Item, bool) {
	return s.prices.FlashSaleItem(s.now())
}

// History возвращает последние покупки аккаунта, новые первыми.
func (s *Service) History(ctx context.Context, accountID int64, limit int) ([]*ledger.PurchaseRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []*ledger.PurchaseRecord
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListPurchases(ctx, accountID, limit)
		return err
	})
	return out, err
}

// Debit списывает XP и репутацию условным списанием.
// Нулевая цена по валюте не трогает её. Нехватка: *common.InsufficientFundsError.
func Debit(ctx context.Context, tx ledger.Tx, acc *ledger.Account, xp, rep int64) error {
	for _, d := range []struct {
		field  ledger.Field
		amount int64
	}{
		{ledger.FieldSpendableXP, xp},
		{ledger.FieldReputation, rep},
	} {
		if d.amount <= 0 {
			continue
		}
		ok, err := tx.ConditionalDebit(ctx, acc.ID, d.field, d.amount)
		if err != nil {
			return err
		}
		if !ok {
			return &common.InsufficientFundsError{
				Field:     string(d.field),
				Required:  d.amount,
				Available: acc.Balance(d.field),
			}
		}
	}
	return nil
}

// Fulfil записывает покупку, отмечает постоянный предмет и применяет эффект.
// Деньги к этому моменту уже списаны вызывающим.
func Fulfil(ctx context.Context, tx ledger.Tx, accountID int64, item catalog.Item, chargedXP, chargedRep int64, source ledger.Source, now time.Time) (*ledger.PurchaseRecord, *effects.Result, error) {
	rec := &ledger.PurchaseRecord{
		ID:         uuid.New(),
		AccountID:  accountID,
		ItemID:     item.ID,
		ChargedXP:  chargedXP,
		ChargedRep: chargedRep,
		Source:     source,
		CreatedAt:  now,
	}
	if err := tx.AppendPurchase(ctx, rec); err != nil {
		return nil, nil, err
	}

	if item.Permanent() {
		if err := tx.AddOwnedPermanent(ctx, accountID, item.ID); err != nil {
			return nil, nil, err
		}
	}

	res, err := effects.Apply(ctx, tx, accountID, item.Effect, now)
	if err != nil {
		return nil, nil, fmt.Errorf("эффект %s: %w", item.ID, err)
	}
	return rec, res, nil
}

// RecordPurchase обновляет метрики после коммита.
func RecordPurchase(r *Receipt) {
	metrics.PurchasesTotal.WithLabelValues(r.Item.ID, string(r.Source)).Inc()
	metrics.RecordSpend(r.ChargedXP, r.ChargedRep)
	if r.Effect != nil {
		metrics.EffectsApplied.WithLabelValues(string(r.Effect.Kind)).Inc()
	}
}

func snapshot(ctx context.Context, tx ledger.Tx, acc *ledger.Account) (pricing.Snapshot, error) {
	n, err := tx.CountPurchases(ctx, acc.ID)
	if err != nil {
		return pricing.Snapshot{}, err
	}
	return pricing.Snapshot{PurchaseCount: n, AchievementCount: acc.AchievementCount}, nil
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, common.ErrAlreadyOwned):
		return "already_owned"
	case errors.Is(err, common.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, common.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, common.ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, common.ErrInvalidEffect):
		return "invalid_effect"
	}
	return "internal"
}
