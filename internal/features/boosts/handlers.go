package boosts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taslogit/pressfbot/internal/common"
)

// Handler обрабатывает /boosts.
type Handler struct {
	service *Service
	sender  common.Sender
	loc     *time.Location
}

// NewHandler создаёт обработчик бустеров.
func NewHandler(service *Service, sender common.Sender, loc *time.Location) *Handler {
	return &Handler{service: service, sender: sender, loc: loc}
}

// HandleBoosts показывает действующие бустеры.
func (h *Handler) HandleBoosts(ctx context.Context, chatID, accountID int64) {
	active, err := h.service.Active(ctx, accountID)
	if err != nil {
		common.ReplyError(ctx, h.sender, chatID, err, "Ошибка получения бустеров")
		return
	}
	if len(active) == 0 {
		common.Reply(ctx, h.sender, chatID, "🚀 Активных бустеров нет. Купить: /shop")
		return
	}

	var sb strings.Builder
	sb.WriteString("🚀 Активные бустеры:\n")
	for _, b := range active {
		fmt.Fprintf(&sb, "• %s ×%.2g до %s\n", b.BoostType, b.Multiplier, common.FormatDateTime(b.ExpiresAt, h.loc))
	}
	common.Reply(ctx, h.sender, chatID, strings.TrimRight(sb.String(), "\n"))
}
