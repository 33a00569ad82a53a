// Package ledger: store.go описывает единицу работы над леджером.
//
// Все операции, меняющие балансы, выполняются внутри Store.WithinTx:
// замыкание получает Tx, и либо всё, что оно сделало, фиксируется,
// либо (при любой ошибке) всё откатывается и блокировки отпускаются.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store открывает единицы работы над леджером.
type Store interface {
	// WithinTx выполняет fn в одной короткой транзакции.
	// Ошибка fn откатывает транзакцию и возвращается как есть.
	// Конфликт блокировок возвращается как common.ErrConcurrencyConflict.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	// Ping проверяет, что хранилище доступно.
	Ping(ctx context.Context) error
}

// Tx: операции, доступные внутри единицы работы.
type Tx interface {
	Accounts
	Purchases
	Boosts
	Gifts
	Streaks
	Tournaments
}

// Accounts: денежные поля аккаунта.
type Accounts interface {
	// CreateAccount заводит аккаунт, если его ещё нет. true: если создан сейчас.
	CreateAccount(ctx context.Context, acc *Account) (bool, error)
	// LockAccount берёт эксклюзивную блокировку строки и читает её.
	LockAccount(ctx context.Context, accountID int64) (*Account, error)
	// GetAccount читает аккаунт без блокировки.
	GetAccount(ctx context.Context, accountID int64) (*Account, error)
	// ConditionalDebit уменьшает поле на amount, только если хватает средств.
	// Проверка и списание идут одной неделимой операцией. false значит, что средств не хватило.
	ConditionalDebit(ctx context.Context, accountID int64, field Field, amount int64) (bool, error)
	// Credit увеличивает поле на amount.
	Credit(ctx context.Context, accountID int64, field Field, amount int64) error
	// AddOwnedPermanent идемпотентно добавляет предмет в набор купленных.
	AddOwnedPermanent(ctx context.Context, accountID int64, itemID string) error
	// FindAccountByUsername ищет аккаунт по @username без учёта регистра.
	FindAccountByUsername(ctx context.Context, username string) (*Account, error)
	// UpdateProfile обновляет username и отображаемое имя.
	UpdateProfile(ctx context.Context, accountID int64, username, displayName string) error
	// SetTitle меняет отображаемый титул.
	SetTitle(ctx context.Context, accountID int64, title string) error
	// AddAchievements увеличивает счётчик ачивок, от которого зависит скидка в магазине.
	AddAchievements(ctx context.Context, accountID int64, n int) error
}

// Purchases: история покупок и набор купленных постоянных предметов.
type Purchases interface {
	AppendPurchase(ctx context.Context, rec *PurchaseRecord) error
	CountPurchases(ctx context.Context, accountID int64) (int, error)
	IsOwned(ctx context.Context, accountID int64, itemID string) (bool, error)
	ListPurchases(ctx context.Context, accountID int64, limit int) ([]*PurchaseRecord, error)
}

// Boosts: активные бустеры.
type Boosts interface {
	// GetBoost возвращает бустер (в том числе истёкший) или nil, если его нет.
	GetBoost(ctx context.Context, accountID int64, boostType string) (*Boost, error)
	// UpsertBoost создаёт или перезаписывает бустер (аккаунт, тип).
	UpsertBoost(ctx context.Context, b *Boost) error
	ListBoosts(ctx context.Context, accountID int64) ([]*Boost, error)
	// DeleteExpiredBoosts физически удаляет бустеры с expires_at < now.
	DeleteExpiredBoosts(ctx context.Context, now time.Time) (int64, error)
}

// Gifts: подарки.
type Gifts interface {
	CreateGift(ctx context.Context, g *Gift) error
	// LockGift берёт эксклюзивную блокировку строки подарка.
	LockGift(ctx context.Context, giftID uuid.UUID) (*Gift, error)
	// MarkGiftClaimed ставит is_claimed, только если он ещё false. false: уже получен.
	MarkGiftClaimed(ctx context.Context, giftID uuid.UUID, at time.Time) (bool, error)
	ListPendingGifts(ctx context.Context, recipientID int64) ([]*Gift, error)
}

// Streaks: состояние стриков.
type Streaks interface {
	// CreateStreak заводит пустой стрик, если его нет.
	CreateStreak(ctx context.Context, accountID int64) error
	LockStreak(ctx context.Context, accountID int64) (*StreakState, error)
	GetStreak(ctx context.Context, accountID int64) (*StreakState, error)
	SaveStreak(ctx context.Context, s *StreakState) error
	AddFreeSkips(ctx context.Context, accountID int64, n int) error
}

// Tournaments: регистрации на турниры.
type Tournaments interface {
	IsRegistered(ctx context.Context, tournamentID string, accountID int64) (bool, error)
	CreateRegistration(ctx context.Context, r *Registration) error
}
