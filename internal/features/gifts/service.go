// Package gifts: подарки между участниками.
//
// Отправка и получение: две отдельные единицы работы. При отправке
// репутация отправителя списывается сразу, подарок становится самостоятельным
// объектом. Получение применяет эффект ровно один раз.
package gifts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/effects"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// ClaimResult: что получил получатель.
type ClaimResult struct {
	Gift      *ledger.Gift
	Effect    *effects.Result
	RewardRep int64 // Бонус репутации за получение
}

// Service управляет подарками.
type Service struct {
	store         ledger.Store
	catalog       *catalog.Catalog
	rewardPercent int64
	now           func() time.Time
}

// NewService создаёт сервис подарков. rewardPercent: доля стоимости, которую получатель
// получает репутацией (10 = 10%).
func NewService(store ledger.Store, cat *catalog.Catalog, rewardPercent int64, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, catalog: cat, rewardPercent: rewardPercent, now: now}
}

// Send отправляет подарок. Стоимость списывается с репутации отправителя в той же единице,
// в которой создаётся подарок.
func (s *Service) Send(ctx context.Context, senderID, recipientID int64, giftType string) (*ledger.Gift, error) {
	if senderID == recipientID {
		return nil, common.ErrSelfGift
	}
	gt, err := s.catalog.Gift(giftType)
	if err != nil {
		return nil, err
	}
	payload, err := effects.EncodeJSON(gt.Effect)
	if err != nil {
		return nil, err
	}

	gift := &ledger.Gift{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: recipientID,
		GiftType:    gt.Type,
		Effect:      payload,
		Cost:        gt.Cost,
		CreatedAt:   s.now(),
	}

	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetAccount(ctx, recipientID); err != nil {
			return err
		}
		sender, err := tx.LockAccount(ctx, senderID)
		if err != nil {
			return err
		}
		if gt.Cost > 0 {
			ok, err := tx.ConditionalDebit(ctx, senderID, ledger.FieldReputation, gt.Cost)
			if err != nil {
				return err
			}
			if !ok {
				return &common.InsufficientFundsError{
					Field:     string(ledger.FieldReputation),
					Required:  gt.Cost,
					Available: sender.Reputation,
				}
			}
		}
		return tx.CreateGift(ctx, gift)
	})
	if err != nil {
		return nil, err
	}

	metrics.GiftsSent.WithLabelValues(gt.Type).Inc()
	metrics.RecordSpend(0, gt.Cost)
	log.WithFields(log.Fields{
		"gift_id":   gift.ID,
		"sender":    senderID,
		"recipient": recipientID,
		"type":      gt.Type,
		"cost":      gt.Cost,
	}).Info("Подарок отправлен")

	return gift, nil
}

// Claim получает подарок. Из параллельных попыток успешна ровно одна.
func (s *Service) Claim(ctx context.Context, giftID uuid.UUID, recipientID int64) (*ClaimResult, error) {
	now := s.now()
	var result *ClaimResult

	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		gift, err := tx.LockGift(ctx, giftID)
		if err != nil {
			return err
		}
		if gift.RecipientID != recipientID {
			return common.ErrForbidden
		}
		if gift.IsClaimed {
			return common.ErrAlreadyClaimed
		}
		if _, err := tx.LockAccount(ctx, recipientID); err != nil {
			return err
		}

		eff, err := effects.DecodeJSON(gift.Effect)
		if err != nil {
			return fmt.Errorf("подарок %s: %w", gift.ID, err)
		}
		res, err := effects.Apply(ctx, tx, recipientID, eff, now)
		if err != nil {
			return fmt.Errorf("подарок %s: %w", gift.ID, err)
		}

		reward := RewardFor(gift.Cost, s.rewardPercent)
		if reward > 0 {
			if err := tx.Credit(ctx, recipientID, ledger.FieldReputation, reward); err != nil {
				return err
			}
		}

		ok, err := tx.MarkGiftClaimed(ctx, gift.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrAlreadyClaimed
		}

		gift.IsClaimed = true
		gift.ClaimedAt = &now
		result = &ClaimResult{Gift: gift, Effect: res, RewardRep: reward}
		return nil
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"gift_id":   giftID,
			"recipient": recipientID,
		}).Debug("Подарок не получен")
		return nil, err
	}

	metrics.GiftsClaimed.WithLabelValues(result.Gift.GiftType).Inc()
	metrics.EffectsApplied.WithLabelValues(string(result.Effect.Kind)).Inc()
	metrics.RecordEarn(0, result.RewardRep)
	log.WithFields(log.Fields{
		"gift_id":    giftID,
		"recipient":  recipientID,
		"reward_rep": result.RewardRep,
	}).Info("Подарок получен")

	return result, nil
}

// Pending возвращает неполученные подарки, старые первыми.
func (s *Service) Pending(ctx context.Context, recipientID int64) ([]*ledger.Gift, error) {
	var out []*ledger.Gift
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListPendingGifts(ctx, recipientID)
		return err
	})
	return out, err
}

// Types возвращает настроенные типы подарков.
func (s *Service) Types() []catalog.GiftType {
	return s.catalog.Gifts()
}

// RewardFor считает бонус получателю: floor(cost * percent / 100).
func RewardFor(cost, percent int64) int64 {
	if cost <= 0 || percent <= 0 {
		return 0
	}
	return cost * percent / 100
}

// Type возвращает тип подарка из каталога.
func (s *Service) Type(giftType string) (catalog.GiftType, error) {
	return s.catalog.Gift(giftType)
}
