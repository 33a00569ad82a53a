// Package streak управляет ежедневными чек-инами (огоньками).
// models.go описывает исход одного чек-ина.
package streak

import "time"

// Kind: какой переход сделал чек-ин.
type Kind string

const (
	KindFirst     Kind = "first"     // Первый чек-ин в жизни
	KindSameDay   Kind = "same_day"  // Уже отмечался сегодня, ничего не меняется
	KindContinued Kind = "continued" // Вчера отмечался, серия +1
	KindSkipUsed  Kind = "skip_used" // Пропустил один день, списали пропуск
	KindReset     Kind = "reset"     // Разрыв, серия сначала
)

// Outcome: результат чистого перехода. Ничего не пишет в хранилище.
type Outcome struct {
	Kind          Kind
	NewStreak     int
	LongestStreak int
	SkipsUsed     int       // 0 или 1
	MilestoneRep  int64     // Репутация за рубеж, 0 если рубежа нет
	Achievement   bool      // Рубеж взят впервые: серия побила прежний рекорд
	AwardXP       bool      // Календарный день сменился
	Date          time.Time // Новая дата последнего чек-ина
}

// Changed сообщает, что состояние нужно сохранить.
func (o Outcome) Changed() bool { return o.Kind != KindSameDay }

// CheckInResult: то, что видит пользователь после чек-ина.
type CheckInResult struct {
	Outcome
	XPAwarded     int64   // Начислено опыта (с учётом бустера)
	XPMultiplier  float64 // Множитель бустера "xp", 1 если нет
	FreeSkipCount int     // Пропусков осталось
}
