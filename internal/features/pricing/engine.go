package pricing

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/taslogit/pressfbot/internal/features/catalog"
)

// hourCacheSize: сколько последних часов помним. Больше пары часов не нужно.
const hourCacheSize = 48

// Engine связывает каталог с расчётом цены и кеширует выбор распродажи по часам.
// Кеш не влияет на результат: FlashSaleIndex чистая.
type Engine struct {
	catalog *catalog.Catalog
	hours   *lru.Cache[int64, int]
}

// NewEngine создаёт движок цен для каталога.
func NewEngine(cat *catalog.Catalog) *Engine {
	// lru.New падает только на неположительном размере
	cache, _ := lru.New[int64, int](hourCacheSize)
	return &Engine{catalog: cat, hours: cache}
}

// FlashSaleItem возвращает предмет распродажи текущего часа.
func (e *Engine) FlashSaleItem(now time.Time) (catalog.Item, bool) {
	idx := e.flashIndex(now)
	if idx < 0 {
		return catalog.Item{}, false
	}
	return e.catalog.At(idx), true
}

func (e *Engine) flashIndex(now time.Time) int {
	hour := now.UTC().Truncate(time.Hour).Unix()
	if idx, ok := e.hours.Get(hour); ok {
		return idx
	}
	idx := FlashSaleIndex(now, e.catalog.Len())
	e.hours.Add(hour, idx)
	return idx
}

// Price считает цену предмета для аккаунта в момент now.
func (e *Engine) Price(item catalog.Item, snap Snapshot, now time.Time) Quote {
	flash, ok := e.FlashSaleItem(now)
	return Compute(item, ok && flash.ID == item.ID, snap)
}
