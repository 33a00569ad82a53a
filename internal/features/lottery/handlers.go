package lottery

import (
	"context"
	"fmt"
	"time"

	"github.com/taslogit/pressfbot/internal/common"
	"github.com/taslogit/pressfbot/internal/features/effects"
)

// Handler обрабатывает /box.
type Handler struct {
	service *Service
	sender  common.Sender
	loc     *time.Location
}

// NewHandler создаёт обработчик мистери-бокса.
func NewHandler(service *Service, sender common.Sender, loc *time.Location) *Handler {
	return &Handler{service: service, sender: sender, loc: loc}
}

// HandleBox открывает мистери-бокс.
//
// Формат ответа:
//
//	📦 Мистери-бокс (−150 XP)
//	Выпало: Золотая рамка
//	🔓 Предмет открыт навсегда
//	Остаток: 350 XP
func (h *Handler) HandleBox(ctx context.Context, chatID, accountID int64) {
	r, err := h.service.Open(ctx, accountID)
	if err != nil {
		common.ReplyError(ctx, h.sender, chatID, err, "Ошибка открытия мистери-бокса")
		return
	}

	text := fmt.Sprintf("📦 Мистери-бокс (−%s)\nВыпало: %s\n%s\nОстаток: %s",
		common.FormatXP(r.ChargedXP), r.Item.Title, effects.Describe(r.Effect, h.loc), common.FormatXP(r.RemainingXP))
	common.Reply(ctx, h.sender, chatID, text)
}
