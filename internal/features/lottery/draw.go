// Package lottery реализует мистери-бокс: платим фиксированную цену, получаем случайный предмет.
package lottery

import (
	"math/rand/v2"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/catalog"
)

// Веса розыгрыша.
const (
	WeightConsumable int64 = 2
	WeightPermanent  int64 = 1
)

// Rand: источник случайности. *rand.Rand из math/rand/v2 подходит.
type Rand interface {
	Int64N(n int64) int64
}

// globalRand использует общий генератор math/rand/v2, он безопасен для горутин.
type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// Weight: вес предмета в розыгрыше.
func Weight(it catalog.Item) int64 {
	if it.Permanent() {
		return WeightPermanent
	}
	return WeightConsumable
}

// Eligible отбирает предметы, которые можно выиграть:
// не только-за-репутацию и не уже купленные постоянные.
func Eligible(items []catalog.Item, owned func(itemID string) bool) []catalog.Item {
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		if it.ReputationOnly() {
			continue
		}
		if it.Permanent() && owned(it.ID) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Pick выбирает предмет по накопленному весу.
func Pick(pool []catalog.Item, r Rand) (catalog.Item, error) {
	var total int64
	for _, it := range pool {
		total += Weight(it)
	}
	if total == 0 {
		return catalog.Item{}, common.ErrNothingToWin
	}

	roll := r.Int64N(total)
	for _, it := range pool {
		roll -= Weight(it)
		if roll < 0 {
			return it, nil
		}
	}
	// недостижимо при корректном Rand
	return pool[len(pool)-1], nil
}
