// Package ledger: единственный владелец денежных полей аккаунта.
// models.go описывает записи, которые живут в хранилище леджера.
package ledger

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Field: денежное поле аккаунта. Только эти колонки можно дебетовать и кредитовать.
type Field string

const (
	FieldReputation  Field = "reputation"   // Репутация: подарки, турниры
	FieldExperience  Field = "experience"   // Опыт за всё время (уровень)
	FieldSpendableXP Field = "spendable_xp" // Опыт, который можно тратить в магазине
)

// Valid сообщает, что поле входит в белый список колонок.
func (f Field) Valid() bool {
	switch f {
	case FieldReputation, FieldExperience, FieldSpendableXP:
		return true
	}
	return false
}

// Account: баланс и профиль одного аккаунта.
type Account struct {
	ID               int64     `db:"account_id"`
	Username         string    `db:"username"`          // @username без @, может быть пустым
	DisplayName      string    `db:"display_name"`      // Имя для ответов бота
	Reputation       int64     `db:"reputation"`        // >= 0
	Experience       int64     `db:"experience"`        // >= 0
	SpendableXP      int64     `db:"spendable_xp"`      // >= 0
	Title            string    `db:"title"`             // Отображаемый титул
	AchievementCount int       `db:"achievement_count"` // Сколько ачивок открыто
	OwnedPermanents  []string  `db:"-"`                 // Купленные постоянные предметы
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Name возвращает отображаемое имя: @username, иначе имя, иначе ID.
func (a *Account) Name() string {
	if a.Username != "" {
		return "@" + a.Username
	}
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return fmt.Sprintf("id%d", a.ID)
}

// Balance возвращает значение денежного поля.
func (a *Account) Balance(f Field) int64 {
	switch f {
	case FieldReputation:
		return a.Reputation
	case FieldExperience:
		return a.Experience
	case FieldSpendableXP:
		return a.SpendableXP
	}
	return 0
}

// Owns проверяет, куплен ли постоянный предмет.
func (a *Account) Owns(itemID string) bool {
	return slices.Contains(a.OwnedPermanents, itemID)
}

// Source: откуда пришла покупка.
type Source string

const (
	SourceStore      Source = "store"
	SourceMysteryBox Source = "mystery_box"
)

// PurchaseRecord: запись о завершённой покупке. Только добавляется.
// ChargedXP/ChargedRep: то, что реально списано (после скидок).
type PurchaseRecord struct {
	ID         uuid.UUID `db:"id"`
	AccountID  int64     `db:"account_id"`
	ItemID     string    `db:"item_id"`
	ChargedXP  int64     `db:"charged_xp"`
	ChargedRep int64     `db:"charged_rep"`
	Source     Source    `db:"source"`
	CreatedAt  time.Time `db:"created_at"`
}

// Boost: активный бустер. Не больше одной записи на (аккаунт, тип).
type Boost struct {
	AccountID  int64     `db:"account_id"`
	BoostType  string    `db:"boost_type"`
	Multiplier float64   `db:"multiplier"`
	ExpiresAt  time.Time `db:"expires_at"`
}

// Active сообщает, что бустер ещё действует в момент now.
func (b *Boost) Active(now time.Time) bool {
	return !b.ExpiresAt.Before(now)
}

// Gift: подарок. IsClaimed переходит false→true ровно один раз.
// Effect: сериализованный дескриптор эффекта на момент отправки.
type Gift struct {
	ID          uuid.UUID       `db:"id"`
	SenderID    int64           `db:"sender_id"`
	RecipientID int64           `db:"recipient_id"`
	GiftType    string          `db:"gift_type"`
	Effect      json.RawMessage `db:"effect"`
	Cost        int64           `db:"cost"`
	IsClaimed   bool            `db:"is_claimed"`
	ClaimedAt   *time.Time      `db:"claimed_at"`
	CreatedAt   time.Time       `db:"created_at"`
}

// StreakState хранит состояние стрика. LastStreakDate это календарная дата (полночь UTC), nil до первого чек-ина.
type StreakState struct {
	AccountID      int64      `db:"account_id"`
	CurrentStreak  int        `db:"current_streak"`
	LongestStreak  int        `db:"longest_streak"`
	LastStreakDate *time.Time `db:"last_streak_date"`
	FreeSkipCount  int        `db:"free_skip_count"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Registration: оплаченная регистрация на турнир.
type Registration struct {
	TournamentID string    `db:"tournament_id"`
	AccountID    int64     `db:"account_id"`
	FeePaid      int64     `db:"fee_paid"`
	CreatedAt    time.Time `db:"created_at"`
}
