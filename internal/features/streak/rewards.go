// Package streak: rewards.go содержит таблицу рубежей и сам переход состояния.
package streak

import (
	"time"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/ledger"
)

// Milestones: репутация за рубежи серии.
// Награда только при точном совпадении: серия 8 после 7 ничего не даёт.
var Milestones = map[int]int64{
	3:   5,
	7:   15,
	14:  30,
	30:  100,
	100: 500,
}

// MilestoneReward возвращает награду за серию streak или 0.
func MilestoneReward(streak int) int64 {
	return Milestones[streak]
}

// NextMilestone возвращает ближайший рубеж выше streak и награду за него.
// ok=false: рубежей больше нет.
func NextMilestone(streak int) (day int, reward int64, ok bool) {
	for d, r := range Milestones {
		if d > streak && (!ok || d < day) {
			day, reward, ok = d, r, true
		}
	}
	return day, reward, ok
}

// Transition считает переход стрика для календарного дня today.
// today и state.LastStreakDate: результаты common.CivilDate.
//
//	нет даты              → 1
//	разница 0 (или < 0)   → без изменений, опыта нет
//	разница 1             → +1
//	разница 2 и есть скип → +1, списываем один пропуск
//	иначе                 → 1
func Transition(today time.Time, state ledger.StreakState) Outcome {
	if state.LastStreakDate == nil {
		return finish(Outcome{Kind: KindFirst, NewStreak: 1, AwardXP: true, Date: today}, state)
	}

	last := *state.LastStreakDate
	diff := common.DaysBetween(last, today)
	switch {
	case diff <= 0:
		// Сдвиг часов назад тоже считаем повтором: дата не уходит в прошлое
		return Outcome{
			Kind:          KindSameDay,
			NewStreak:     state.CurrentStreak,
			LongestStreak: state.LongestStreak,
			Date:          last,
		}
	case diff == 1:
		return finish(Outcome{Kind: KindContinued, NewStreak: state.CurrentStreak + 1, AwardXP: true, Date: today}, state)
	case diff == 2 && state.FreeSkipCount > 0:
		return finish(Outcome{Kind: KindSkipUsed, NewStreak: state.CurrentStreak + 1, SkipsUsed: 1, AwardXP: true, Date: today}, state)
	}
	return finish(Outcome{Kind: KindReset, NewStreak: 1, AwardXP: true, Date: today}, state)
}

func finish(o Outcome, state ledger.StreakState) Outcome {
	o.LongestStreak = max(state.LongestStreak, o.NewStreak)
	o.MilestoneRep = MilestoneReward(o.NewStreak)
	o.Achievement = o.MilestoneRep > 0 && o.NewStreak > state.LongestStreak
	return o
}
