package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/testutil"
)

func TestHandlers_ShopBuyHistory(t *testing.T) {
	f := newFixture(t, func(e *pricing.Engine) time.Time { return hourWithout(t, e, "frame", "boost") })
	f.seed(t, 1, 300, 0, true)
	f.seed(t, 2, 10, 0, false)
	sender := &testutil.Sender{}
	h := NewHandler(f.service, sender, 10, time.UTC)
	ctx := context.Background()

	h.HandleShop(ctx, 100, 1)
	assert.Contains(t, sender.Last(), "🛒 Магазин")
	assert.Contains(t, sender.Last(), "• frame — Рамка: 200 XP\n")
	assert.Contains(t, sender.Last(), "Распродажа часа")

	h.HandleBuy(ctx, 100, 1, nil)
	assert.Contains(t, sender.Last(), "Формат: /buy")

	h.HandleBuy(ctx, 100, 1, []string{"FRAME"})
	assert.Contains(t, sender.Last(), "✅ Куплено: Рамка за 200 XP")
	assert.Contains(t, sender.Last(), "Остаток: 100 XP, 0 очков репутации")

	h.HandleShop(ctx, 100, 1)
	assert.Contains(t, sender.Last(), "✅ frame — Рамка")

	h.HandleBuy(ctx, 100, 1, []string{"frame"})
	assert.Equal(t, "❌ Этот предмет у вас уже есть", sender.Last())

	h.HandleBuy(ctx, 100, 1, []string{"nope"})
	assert.Contains(t, sender.Last(), "Такого предмета нет")

	h.HandleBuy(ctx, 100, 1, []string{"boost"})
	assert.Contains(t, sender.Last(), "Бустер xp ×2 включён до")

	h.HandleBuy(ctx, 100, 2, []string{"frame"})
	assert.Equal(t, "❌ Недостаточно средств: нужно 160 XP, есть 10 XP", sender.Last())

	h.HandleHistory(ctx, 100, 1, nil)
	assert.Contains(t, sender.Last(), "Последние покупки (3)")
	assert.Contains(t, sender.Last(), "| boost | 100 XP")

	h.HandleHistory(ctx, 100, 1, []string{"1"})
	assert.Contains(t, sender.Last(), "Последние покупки (1)")

	h.HandleHistory(ctx, 100, 2, nil)
	assert.Equal(t, "📋 У вас пока нет покупок", sender.Last())

	h.HandleHistory(ctx, 100, 99, nil)
	assert.Contains(t, sender.Last(), "/join")

	for _, m := range sender.Messages() {
		assert.Equal(t, int64(100), m.ChatID)
	}
}

func TestFormatAmounts(t *testing.T) {
	assert.Equal(t, "100 XP + 10 очков репутации", formatAmounts(100, 10))
	assert.Equal(t, "1 очко репутации", formatAmounts(0, 1))
	assert.Equal(t, "0 XP", formatAmounts(0, 0))
	assert.Equal(t, "бесплатно", formatPrice(pricing.Quote{}))
}
