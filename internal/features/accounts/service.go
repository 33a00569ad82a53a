// Package accounts: service.go заводит счета и отдаёт профиль.
package accounts

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/ledger"
)

// Service управляет счетами участников.
type Service struct {
	store       ledger.Store
	startingRep int64 // Репутация нового счёта
	startingXP  int64 // Опыт нового счёта (и всего, и тратимого)
	now         func() time.Time
}

// NewService создаёт сервис счетов.
func NewService(store ledger.Store, startingRep, startingXP int64, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, startingRep: startingRep, startingXP: startingXP, now: now}
}

// Ensure гарантирует, что у пользователя есть счёт и стрик.
// Новый счёт получает стартовые балансы. Если счёт уже есть: обновляем
// username и имя, если они поменялись. created=true: счёт заведён сейчас.
func (s *Service) Ensure(ctx context.Context, id Identity) (acc *ledger.Account, created bool, err error) {
	now := s.now()
	err = s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		created, err = tx.CreateAccount(ctx, &ledger.Account{
			ID:          id.UserID,
			Username:    id.Username,
			DisplayName: id.DisplayName(),
			Reputation:  s.startingRep,
			Experience:  s.startingXP,
			SpendableXP: s.startingXP,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := tx.CreateStreak(ctx, id.UserID); err != nil {
			return err
		}

		acc, err = tx.GetAccount(ctx, id.UserID)
		if err != nil {
			return err
		}
		if !created && (acc.Username != id.Username || acc.DisplayName != id.DisplayName()) {
			if err := tx.UpdateProfile(ctx, id.UserID, id.Username, id.DisplayName()); err != nil {
				return err
			}
			acc.Username, acc.DisplayName = id.Username, id.DisplayName()
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		log.WithFields(log.Fields{
			"account_id": id.UserID,
			"username":   id.Username,
		}).Info("Новый счёт заведён")
	}
	return acc, created, nil
}

// Profile возвращает счёт с балансами, титулом и купленными предметами.
func (s *Service) Profile(ctx context.Context, accountID int64) (*ledger.Account, error) {
	var acc *ledger.Account
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		acc, err = tx.GetAccount(ctx, accountID)
		return err
	})
	return acc, err
}

// FindByUsername ищет счёт по @username (без учёта регистра, @ можно не писать).
func (s *Service) FindByUsername(ctx context.Context, username string) (*ledger.Account, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	var acc *ledger.Account
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		var err error
		acc, err = tx.FindAccountByUsername(ctx, username)
		return err
	})
	return acc, err
}
