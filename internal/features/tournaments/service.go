// Package tournaments: платная регистрация на турниры.
// Сетка и проведение турниров здесь не живут, только взнос и запись участника.
package tournaments

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// Service регистрирует участников.
type Service struct {
	store   ledger.Store
	catalog *catalog.Catalog
	now     func() time.Time
}

// NewService создаёт сервис турниров.
func NewService(store ledger.Store, cat *catalog.Catalog, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, catalog: cat, now: now}
}

// List возвращает турниры из каталога.
func (s *Service) List() []catalog.Tournament {
	return s.catalog.Tournaments()
}

// Register списывает взнос репутацией и записывает участника. Повторно: ErrAlreadyRegistered.
func (s *Service) Register(ctx context.Context, accountID int64, tournamentID string) (*ledger.Registration, error) {
	tour, err := s.catalog.Tournament(tournamentID)
	if err != nil {
		return nil, err
	}

	reg := &ledger.Registration{
		TournamentID: tour.ID,
		AccountID:    accountID,
		FeePaid:      tour.EntryFeeRep,
		CreatedAt:    s.now(),
	}

	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		acc, err := tx.LockAccount(ctx, accountID)
		if err != nil {
			return err
		}
		already, err := tx.IsRegistered(ctx, tour.ID, accountID)
		if err != nil {
			return err
		}
		if already {
			return common.ErrAlreadyRegistered
		}
		if tour.EntryFeeRep > 0 {
			ok, err := tx.ConditionalDebit(ctx, accountID, ledger.FieldReputation, tour.EntryFeeRep)
			if err != nil {
				return err
			}
			if !ok {
				return &common.InsufficientFundsError{
					Field:     string(ledger.FieldReputation),
					Required:  tour.EntryFeeRep,
					Available: acc.Reputation,
				}
			}
		}
		return tx.CreateRegistration(ctx, reg)
	})
	if err != nil {
		return nil, err
	}

	metrics.TournamentRegistrations.WithLabelValues(tour.ID).Inc()
	metrics.RecordSpend(0, tour.EntryFeeRep)
	log.WithFields(log.Fields{
		"account_id":    accountID,
		"tournament_id": tour.ID,
		"fee":           tour.EntryFeeRep,
	}).Info("Регистрация на турнир")

	return reg, nil
}
