// Package store: handlers.go обрабатывает команды /shop, /buy, /history.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/effects"
	"github.com/taslogit/pressfbot/internal/features/pricing"
	"github.com/taslogit/pressfbot/internal/ledger"
)

// Handler обрабатывает команды магазина.
type Handler struct {
	service      *Service
	sender       common.Sender
	historyLimit int
	loc          *time.Location
}

// NewHandler создаёт обработчик магазина.
func NewHandler(service *Service, sender common.Sender, historyLimit int, loc *time.Location) *Handler {
	return &Handler{service: service, sender: sender, historyLimit: historyLimit, loc: loc}
}

// HandleShop обрабатывает /shop: витрина с ценами для пользователя.
//
// Формат строки:
//
//	⚡ frame_gold — Золотая рамка: 100 XP (было 200)
func (h *Handler) HandleShop(ctx context.Context, chatID, accountID int64) {
	entries, err := h.service.Shop(ctx, accountID)
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка загрузки магазина")
		return
	}

	var sb strings.Builder
	sb.WriteString("🛒 Магазин\n")
	if flash, ok := h.service.FlashSale(); ok {
		fmt.Fprintf(&sb, "⚡ Распродажа часа: %s (−50%%)\n", flash.Title)
	}
	sb.WriteString("\n")
	for _, e := range entries {
		mark := "•"
		switch {
		case e.Owned:
			mark = "✅"
		case e.Quote.FlashSale:
			mark = "⚡"
		}
		fmt.Fprintf(&sb, "%s %s — %s: %s", mark, e.Item.ID, e.Item.Title, formatPrice(e.Quote))
		if e.Quote.Discounted() && !e.Owned {
			fmt.Fprintf(&sb, " (было %s)", formatAmounts(e.Quote.BaseXP, e.Quote.BaseRep))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nКупить: /buy <id>")
	h.send(ctx, chatID, sb.String())
}

// HandleBuy обрабатывает /buy <id>.
func (h *Handler) HandleBuy(ctx context.Context, chatID, accountID int64, args []string) {
	if len(args) < 1 {
		h.send(ctx, chatID, "❌ Формат: /buy <id предмета>")
		return
	}

	r, err := h.service.Purchase(ctx, accountID, strings.ToLower(args[0]))
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка покупки")
		return
	}

	text := fmt.Sprintf("✅ Куплено: %s за %s\n%s\nОстаток: %s, %s",
		r.Item.Title, formatAmounts(r.ChargedXP, r.ChargedRep), effects.Describe(r.Effect, h.loc),
		common.FormatXP(r.RemainingXP), common.FormatRep(r.RemainingRep))
	h.send(ctx, chatID, text)
}

// HandleHistory обрабатывает /history [N].
func (h *Handler) HandleHistory(ctx context.Context, chatID, accountID int64, args []string) {
	limit := h.historyLimit
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	recs, err := h.service.History(ctx, accountID, limit)
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка получения истории")
		return
	}
	if len(recs) == 0 {
		h.send(ctx, chatID, "📋 У вас пока нет покупок")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Последние покупки (%d):\n\n", len(recs))
	for i, rec := range recs {
		source := ""
		if rec.Source == ledger.SourceMysteryBox {
			source = " 📦"
		}
		fmt.Fprintf(&sb, "%d. %s | %s | %s%s\n", i+1,
			common.FormatDateTime(rec.CreatedAt, h.loc), rec.ItemID,
			formatAmounts(rec.ChargedXP, rec.ChargedRep), source)
	}
	h.send(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
}

func formatPrice(q pricing.Quote) string {
	if q.XP == 0 && q.Rep == 0 {
		return "бесплатно"
	}
	return formatAmounts(q.XP, q.Rep)
}

func formatAmounts(xp, rep int64) string {
	switch {
	case xp > 0 && rep > 0:
		return common.FormatXP(xp) + " + " + common.FormatRep(rep)
	case rep > 0:
		return common.FormatRep(rep)
	}
	return common.FormatXP(xp)
}

func (h *Handler) fail(ctx context.Context, chatID int64, err error, fallback string) {
	common.ReplyError(ctx, h.sender, chatID, err, fallback)
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	common.Reply(ctx, h.sender, chatID, text)
}
