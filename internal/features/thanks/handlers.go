package thanks

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
)

// Handler отвечает на «спасибо» в ответе на сообщение.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик благодарностей.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleThankYou засчитывает благодарность от fromID автору toID.
// Спасибо самому себе и незарегистрированному участнику молча игнорируются.
func (h *Handler) HandleThankYou(ctx context.Context, chatID, fromID, toID int64) {
	acc, err := h.service.Thank(ctx, fromID, toID)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrThanksSelf), errors.Is(err, common.ErrAccountNotFound):
		log.WithError(err).Debug("Благодарность не засчитана")
		return
	default:
		common.ReplyError(ctx, h.sender, chatID, err, "Ошибка начисления репутации")
		return
	}

	common.Reply(ctx, h.sender, chatID, fmt.Sprintf("🙏 %s: +%s, теперь %s",
		acc.Name(), common.FormatRep(h.service.reward), common.FormatRep(acc.Reputation)))
}
