// Package store реализует магазин: покупка предмета одной единицей работы.
// models.go описывает квитанцию и витрину.
package store

import (
	"github.com/google/uuid"

	"github.com/taslogit/pressfbot/internal/features/catalog"
	"github.com/taslogit/pressfbot/internal/features/effects"
	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/ledger"
)

// Receipt: результат успешной покупки.
type Receipt struct {
	PurchaseID   uuid.UUID
	Item         catalog.Item
	Quote        pricing.Quote   // Как считалась цена
	ChargedXP    int64           // Реально списано XP
	ChargedRep   int64           // Реально списано репутации
	Source       ledger.Source
	Effect       *effects.Result // Что изменилось
	RemainingXP  int64           // spendable_xp после покупки
	RemainingRep int64
}

// ShopEntry: строка витрины для конкретного аккаунта.
type ShopEntry struct {
	Item  catalog.Item
	Quote pricing.Quote
	Owned bool // Постоянный предмет уже куплен
}
