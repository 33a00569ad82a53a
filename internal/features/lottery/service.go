package lottery

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/features/store"
	"github.com/taslogit/pressfbot/internal/ledger"
)

// Service разыгрывает мистери-бокс.
type Service struct {
	store   ledger.Store
	catalog *catalog.Catalog
	cost    int64
	rand    Rand
	now     func() time.Time
}

// NewService создаёт сервис. При r=nil берётся общий генератор, при now=nil берётся time.Now.
func NewService(st ledger.Store, cat *catalog.Catalog, cost int64, r Rand, now func() time.Time) *Service {
	if r == nil {
		r = globalRand{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, catalog: cat, cost: cost, rand: r, now: now}
}

// Cost: цена бокса в XP.
func (s *Service) Cost() int64 { return s.cost }

// Open открывает бокс. Скидки не действуют, списывается ровно Cost.
// Если выигрывать нечего: ErrNothingToWin без списания.
func (s *Service) Open(ctx context.Context, accountID int64) (*store.Receipt, error) {
	now := s.now()
	var receipt *store.Receipt

	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		acc, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		var ownedErr error
		pool := Eligible(s.catalog.Items(), func(id string) bool {
			owned, err := tx.IsOwned(ctx, accountID, id)
			if err != nil && ownedErr == nil {
				ownedErr = err
			}
			return owned
		})
		if ownedErr != nil {
			return ownedErr
		}
		if len(pool) == 0 {
			return common.ErrNothingToWin
		}

		if err := store.Debit(ctx, tx, acc, s.cost, 0); err != nil {
			return err
		}

		item, err := Pick(pool, s.rand)
		if err != nil {
			return err
		}

		rec, res, err := store.Fulfil(ctx, tx, accountID, item, s.cost, 0, ledger.SourceMysteryBox, now)
		if err != nil {
			return err
		}

		after, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		receipt = &store.Receipt{
			PurchaseID:   rec.ID,
			Item:         item,
			Quote:        pricing.Quote{ItemID: item.ID, BaseXP: s.cost, XP: s.cost},
			ChargedXP:    s.cost,
			Source:       ledger.SourceMysteryBox,
			Effect:       res,
			RemainingXP:  after.SpendableXP,
			RemainingRep: after.Reputation,
		}
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("account_id", accountID).Debug("Мистери-бокс не открыт")
		return nil, err
	}

	store.RecordPurchase(receipt)
	log.WithFields(log.Fields{
		"account_id": accountID,
		"item_id":    receipt.Item.ID,
		"cost":       s.cost,
	}).Info("Мистери-бокс открыт")

	return receipt, nil
}
