// Package accounts: handlers.go обрабатывает /join, /balance и вступление в чат.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
)

// Handler обрабатывает команды счетов.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleNewMembers заводит счета всем, кто вступил в чат. Ответа в чат нет.
func (h *Handler) HandleNewMembers(ctx context.Context, users []Identity) {
	for _, u := range users {
		if _, _, err := h.service.Ensure(ctx, u); err != nil {
			log.WithError(err).WithField("user_id", u.UserID).Error("Ошибка регистрации нового участника")
		}
	}
}

// HandleJoin обрабатывает /join.
func (h *Handler) HandleJoin(ctx context.Context, chatID int64, id Identity) {
	acc, created, err := h.service.Ensure(ctx, id)
	if err != nil {
		log.WithError(err).WithField("user_id", id.UserID).Error("Ошибка регистрации")
		h.send(ctx, chatID, "❌ Не удалось завести счёт")
		return
	}
	if !created {
		h.send(ctx, chatID, fmt.Sprintf("👋 %s, вы уже с нами. Баланс: /balance", acc.Name()))
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("🎉 Добро пожаловать, %s!\nСтартовый баланс: %s, %s\nМагазин: /shop",
		acc.Name(), common.FormatRep(acc.Reputation), common.FormatXP(acc.SpendableXP)))
}

// HandleBalance обрабатывает /balance.
//
// Формат ответа:
//
//	💰 @nick
//	Репутация: 120 очков репутации
//	Опыт: 1 500 XP (можно потратить 300 XP)
//	Титул: Легенда
//	Предметы: frame_gold, badge_veteran
func (h *Handler) HandleBalance(ctx context.Context, chatID, accountID int64) {
	acc, err := h.service.Profile(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			h.send(ctx, chatID, "❌ Сначала зарегистрируйтесь: /join")
			return
		}
		log.WithError(err).Error("Ошибка получения баланса")
		h.send(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 %s\n", acc.Name())
	fmt.Fprintf(&sb, "Репутация: %s\n", common.FormatRep(acc.Reputation))
	fmt.Fprintf(&sb, "Опыт: %s (можно потратить %s)", common.FormatXP(acc.Experience), common.FormatXP(acc.SpendableXP))
	if acc.Title != "" {
		fmt.Fprintf(&sb, "\nТитул: %s", acc.Title)
	}
	if len(acc.OwnedPermanents) > 0 {
		fmt.Fprintf(&sb, "\nПредметы: %s", strings.Join(acc.OwnedPermanents, ", "))
	}
	h.send(ctx, chatID, sb.String())
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	common.Reply(ctx, h.sender, chatID, text)
}
