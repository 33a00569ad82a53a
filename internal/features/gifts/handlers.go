// Package gifts: handlers.go обрабатывает /gift, /gifts, /claim.
package gifts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/effects"
	"github.com/taslogit/pressfbot/internal/ledger"
)

// Directory находит получателя по @username.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (*ledger.Account, error)
}

// Handler обрабатывает команды подарков.
type Handler struct {
	service   *Service
	directory Directory
	sender    common.Sender
	loc       *time.Location
}

// NewHandler создаёт обработчик подарков.
func NewHandler(service *Service, directory Directory, sender common.Sender, loc *time.Location) *Handler {
	return &Handler{service: service, directory: directory, sender: sender, loc: loc}
}

// HandleGift обрабатывает /gift @username <тип>.
func (h *Handler) HandleGift(ctx context.Context, chatID, senderID int64, args []string) {
	if len(args) < 2 {
		h.send(ctx, chatID, "❌ Формат: /gift @username <тип>\nТипы подарков: /gifts")
		return
	}

	recipient, err := h.directory.FindByUsername(ctx, args[0])
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка поиска получателя")
		return
	}

	gift, err := h.service.Send(ctx, senderID, recipient.ID, strings.ToLower(args[1]))
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка отправки подарка")
		return
	}

	title := gift.GiftType
	if gt, err := h.service.Type(gift.GiftType); err == nil {
		title = gt.Title
	}
	h.send(ctx, chatID, fmt.Sprintf("🎁 %s, вам подарок: %s (−%s у отправителя)\nЗабрать: /claim %s",
		recipient.Name(), title, common.FormatRep(gift.Cost), gift.ID))
}

// HandleGifts обрабатывает /gifts: ожидающие подарки и список типов.
func (h *Handler) HandleGifts(ctx context.Context, chatID, accountID int64) {
	pending, err := h.service.Pending(ctx, accountID)
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка получения подарков")
		return
	}

	var sb strings.Builder
	if len(pending) == 0 {
		sb.WriteString("🎁 Ожидающих подарков нет\n")
	} else {
		fmt.Fprintf(&sb, "🎁 Ждут получения (%d):\n", len(pending))
		for _, g := range pending {
			fmt.Fprintf(&sb, "• %s от %s — /claim %s\n", g.GiftType, common.FormatDateTime(g.CreatedAt, h.loc), g.ID)
		}
	}

	sb.WriteString("\nЧто можно подарить:\n")
	for _, gt := range h.service.Types() {
		fmt.Fprintf(&sb, "• %s — %s: %s\n", gt.Type, gt.Title, common.FormatRep(gt.Cost))
	}
	sb.WriteString("\nПодарить: /gift @username <тип>")
	h.send(ctx, chatID, sb.String())
}

// HandleClaim обрабатывает /claim [id]. Без id забирается самый старый подарок.
func (h *Handler) HandleClaim(ctx context.Context, chatID, accountID int64, args []string) {
	var giftID uuid.UUID
	if len(args) > 0 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			h.send(ctx, chatID, "❌ Формат: /claim <id подарка>")
			return
		}
		giftID = id
	} else {
		pending, err := h.service.Pending(ctx, accountID)
		if err != nil {
			h.fail(ctx, chatID, err, "Ошибка получения подарков")
			return
		}
		if len(pending) == 0 {
			h.send(ctx, chatID, "🎁 Ожидающих подарков нет")
			return
		}
		giftID = pending[0].ID
	}

	res, err := h.service.Claim(ctx, giftID, accountID)
	if err != nil {
		h.fail(ctx, chatID, err, "Ошибка получения подарка")
		return
	}

	text := fmt.Sprintf("🎉 Подарок получен: %s\n%s", res.Gift.GiftType, effects.Describe(res.Effect, h.loc))
	if res.RewardRep > 0 {
		text += fmt.Sprintf("\nБонус: %s", common.FormatRep(res.RewardRep))
	}
	h.send(ctx, chatID, text)
}

func (h *Handler) fail(ctx context.Context, chatID int64, err error, fallback string) {
	common.ReplyError(ctx, h.sender, chatID, err, fallback)
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	common.Reply(ctx, h.sender, chatID, text)
}
