package tournaments

import (
	"context"
	"fmt"
	"strings"

	"github.com/taslogit/pressfbot/internal/common"
)

// Handler обрабатывает /tournaments и /register.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик турниров.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleList показывает турниры и взносы.
func (h *Handler) HandleList(ctx context.Context, chatID int64) {
	list := h.service.List()
	if len(list) == 0 {
		common.Reply(ctx, h.sender, chatID, "🏆 Турниров пока нет")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Турниры:\n")
	for _, t := range list {
		fee := "бесплатно"
		if t.EntryFeeRep > 0 {
			fee = common.FormatRep(t.EntryFeeRep)
		}
		fmt.Fprintf(&sb, "• %s — %s: %s\n", t.ID, t.Title, fee)
	}
	sb.WriteString("\nЗаписаться: /register <id>")
	common.Reply(ctx, h.sender, chatID, sb.String())
}

// HandleRegister обрабатывает /register <id>.
func (h *Handler) HandleRegister(ctx context.Context, chatID, accountID int64, args []string) {
	if len(args) < 1 {
		common.Reply(ctx, h.sender, chatID, "❌ Формат: /register <id турнира>")
		return
	}

	reg, err := h.service.Register(ctx, accountID, strings.ToLower(args[0]))
	if err != nil {
		common.ReplyError(ctx, h.sender, chatID, err, "Ошибка регистрации на турнир")
		return
	}

	text := fmt.Sprintf("✅ Вы записаны на турнир %s", reg.TournamentID)
	if reg.FeePaid > 0 {
		text += fmt.Sprintf(" (взнос %s)", common.FormatRep(reg.FeePaid))
	}
	common.Reply(ctx, h.sender, chatID, text)
}
