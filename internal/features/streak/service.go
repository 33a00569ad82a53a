// Package streak: service.go проводит чек-ин одной единицей работы.
package streak

import (
	"context"
	"errors"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/boosts"
	"github.com/taslogit/pressfbot/internal/ledger"
	"github.com/taslogit/pressfbot/internal/metrics"
)

// BoostXP: тип бустера, который умножает ежедневный опыт.
const BoostXP = "xp"

// Service управляет стриками.
type Service struct {
	store   ledger.Store
	dailyXP int64          // Опыт за каждый новый день
	loc     *time.Location // Пояс календарного дня
	now     func() time.Time
}

// NewService создаёт сервис стриков.
func NewService(store ledger.Store, dailyXP int64, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, dailyXP: dailyXP, loc: loc, now: now}
}

// CheckIn отмечает участника сегодня.
//
// Повторный чек-ин в тот же день ничего не меняет и не начисляет.
// Иначе: сохраняем новый стрик, списываем пропуск если нужен,
// начисляем репутацию за рубеж и опыт за день (умноженный на бустер "xp").
func (s *Service) CheckIn(ctx context.Context, accountID int64) (*CheckInResult, error) {
	now := s.now()
	today := common.CivilDate(now, s.loc)
	var result *CheckInResult

	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.LockAccount(ctx, accountID); err != nil {
			return err
		}
		if err := tx.CreateStreak(ctx, accountID); err != nil {
			return err
		}
		state, err := tx.LockStreak(ctx, accountID)
		if err != nil {
			return err
		}

		out := Transition(today, *state)
		result = &CheckInResult{Outcome: out, XPMultiplier: 1, FreeSkipCount: state.FreeSkipCount}
		if !out.Changed() {
			return nil
		}

		date := out.Date
		state.CurrentStreak = out.NewStreak
		state.LongestStreak = out.LongestStreak
		state.LastStreakDate = &date
		state.FreeSkipCount -= out.SkipsUsed
		state.UpdatedAt = now
		if err := tx.SaveStreak(ctx, state); err != nil {
			return err
		}
		result.FreeSkipCount = state.FreeSkipCount

		if out.MilestoneRep > 0 {
			if err := tx.Credit(ctx, accountID, ledger.FieldReputation, out.MilestoneRep); err != nil {
				return err
			}
		}
		if out.Achievement {
			if err := tx.AddAchievements(ctx, accountID, 1); err != nil {
				return err
			}
		}

		if out.AwardXP && s.dailyXP > 0 {
			mult, err := boosts.ActiveMultiplier(ctx, tx, accountID, BoostXP, now)
			if err != nil {
				return err
			}
			xp := int64(math.Floor(float64(s.dailyXP) * mult))
			if err := tx.Credit(ctx, accountID, ledger.FieldExperience, xp); err != nil {
				return err
			}
			if err := tx.Credit(ctx, accountID, ledger.FieldSpendableXP, xp); err != nil {
				return err
			}
			result.XPAwarded = xp
			result.XPMultiplier = mult
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StreakCheckins.WithLabelValues(string(result.Kind)).Inc()
	metrics.RecordEarn(result.XPAwarded, result.MilestoneRep)
	if result.Changed() {
		log.WithFields(log.Fields{
			"account_id":  accountID,
			"kind":        result.Kind,
			"streak":      result.NewStreak,
			"xp":          result.XPAwarded,
			"milestone":   result.MilestoneRep,
			"achievement": result.Achievement,
		}).Info("Чек-ин")
	}
	return result, nil
}

// Status только читает стрик. Строку не создаёт: без чек-инов возвращается пустой стрик.
func (s *Service) Status(ctx context.Context, accountID int64) (*ledger.StreakState, error) {
	var state *ledger.StreakState
	err := s.store.WithinTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		state, err = tx.GetStreak(ctx, accountID)
		if errors.Is(err, common.ErrAccountNotFound) {
			state, err = &ledger.StreakState{AccountID: accountID}, nil
		}
		return err
	})
	return state, err
}

// Today возвращает текущий календарный день в поясе сервиса.
func (s *Service) Today() time.Time {
	return common.CivilDate(s.now(), s.loc)
}
