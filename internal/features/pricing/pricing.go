// Package pricing считает итоговую цену предмета.
//
// Все множители хранятся в базисных пунктах (10000 = ×1.0), поэтому
// результат целочисленный и не зависит от округления float.
//
// Правила:
//   - флеш-распродажа: один предмет в час по UTC, ×0.5;
//   - первая покупка (у аккаунта нет покупок): ×0.8, только если предмет не на распродаже;
//   - скидка за ачивки: 1% за каждую, не больше 10%, умножается на выбранный множитель;
//   - результат округляется вниз.
package pricing

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/taslogit/pressfbot/internal/features/catalog"
)

// Множители в базисных пунктах.
const (
	FullBP            int64 = 10000
	FlashSaleBP       int64 = 5000
	FirstPurchaseBP   int64 = 8000
	AchievementStepBP int64 = 100
	AchievementCapBP  int64 = 1000
)

// Snapshot: то, что нужно знать об аккаунте для расчёта цены.
type Snapshot struct {
	PurchaseCount    int
	AchievementCount int
}

// Quote: итоговая цена предмета.
type Quote struct {
	ItemID                string
	BaseXP                int64
	BaseRep               int64
	XP                    int64
	Rep                   int64
	FlashSale             bool
	FirstPurchase         bool
	AchievementDiscountBP int64
}

// Discounted сообщает, что применилась хоть одна скидка.
func (q Quote) Discounted() bool {
	return q.FlashSale || q.FirstPurchase || q.AchievementDiscountBP > 0
}

// HourKey: строка часа по UTC, от которой считается хеш распродажи.
func HourKey(now time.Time) string {
	u := now.UTC()
	return fmt.Sprintf("%04d-%02d-%02dT%02d", u.Year(), int(u.Month()), u.Day(), u.Hour())
}

// FlashSaleIndex выбирает позицию предмета распродажи для часа now.
// Чистая функция от часа UTC и размера каталога; -1 для пустого каталога.
func FlashSaleIndex(now time.Time, size int) int {
	if size <= 0 {
		return -1
	}
	sum := blake2b.Sum256([]byte(HourKey(now)))
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(size))
}

// AchievementDiscountBP: скидка за ачивки в базисных пунктах.
func AchievementDiscountBP(achievements int) int64 {
	if achievements <= 0 {
		return 0
	}
	return min(int64(achievements)*AchievementStepBP, AchievementCapBP)
}

// Compute считает цену предмета. onFlashSale: предмет выбран распродажей этого часа.
func Compute(item catalog.Item, onFlashSale bool, snap Snapshot) Quote {
	q := Quote{
		ItemID:                item.ID,
		BaseXP:                item.CostXP,
		BaseRep:               item.CostRep,
		AchievementDiscountBP: AchievementDiscountBP(snap.AchievementCount),
	}

	base := FullBP
	switch {
	case onFlashSale:
		base = FlashSaleBP
		q.FlashSale = true
	case snap.PurchaseCount == 0:
		base = FirstPurchaseBP
		q.FirstPurchase = true
	}

	q.XP = apply(item.CostXP, base, q.AchievementDiscountBP)
	q.Rep = apply(item.CostRep, base, q.AchievementDiscountBP)
	return q
}

func apply(cost, baseBP, discountBP int64) int64 {
	if cost <= 0 {
		return 0
	}
	// Произведение считаем в 128 битах: цена × 10^8 не влезает в int64 уже при цене ~10^11
	hi, lo := bits.Mul64(uint64(cost), uint64(baseBP*(FullBP-discountBP)))
	q, _ := bits.Div64(hi, lo, uint64(FullBP*FullBP))
	return int64(q)
}
