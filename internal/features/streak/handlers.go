// Package streak: handlers.go обрабатывает команды /checkin и /streak.
package streak

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/taslogit/pressfbot/internal/common"
)

// Handler обрабатывает команды стриков.
type Handler struct {
	service *Service
	sender  common.Sender
}

// NewHandler создаёт обработчик стрик-команд.
func NewHandler(service *Service, sender common.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// HandleCheckIn обрабатывает /checkin.
//
// Формат ответа:
//
//	🔥 Огонек: 7 дней (рекорд 7)
//	+10 XP
//	🏅 Рубеж 7 дней: +15 очков репутации
func (h *Handler) HandleCheckIn(ctx context.Context, chatID, accountID int64) {
	res, err := h.service.CheckIn(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			h.send(ctx, chatID, "❌ Сначала зарегистрируйтесь: /join")
			return
		}
		log.WithError(err).WithField("account_id", accountID).Error("Ошибка чек-ина")
		h.send(ctx, chatID, "❌ Не удалось отметиться, попробуйте позже")
		return
	}

	var sb strings.Builder
	switch res.Kind {
	case KindSameDay:
		fmt.Fprintf(&sb, "✅ Сегодня вы уже отмечались. Огонек: %d %s", res.NewStreak, common.PluralizeDays(res.NewStreak))
		h.send(ctx, chatID, sb.String())
		return
	case KindReset:
		sb.WriteString("💨 Огонек погас, начинаем заново.\n")
	case KindSkipUsed:
		fmt.Fprintf(&sb, "🛡 Пропуск спас огонек! Осталось %d %s.\n", res.FreeSkipCount, common.PluralizeSkips(res.FreeSkipCount))
	}

	fmt.Fprintf(&sb, "🔥 Огонек: %d %s (рекорд %d)",
		res.NewStreak, common.PluralizeDays(res.NewStreak), res.LongestStreak)
	if res.XPAwarded > 0 {
		fmt.Fprintf(&sb, "\n%s XP", common.FormatSigned(res.XPAwarded))
		if res.XPMultiplier > 1 {
			fmt.Fprintf(&sb, " (бустер ×%.2g)", res.XPMultiplier)
		}
	}
	if res.MilestoneRep > 0 {
		fmt.Fprintf(&sb, "\n🏅 Рубеж %d %s: +%s", res.NewStreak, common.PluralizeDays(res.NewStreak), common.FormatRep(res.MilestoneRep))
	}
	h.send(ctx, chatID, sb.String())
}

// HandleStatus обрабатывает /streak: показывает прогресс без чек-ина.
func (h *Handler) HandleStatus(ctx context.Context, chatID, accountID int64) {
	st, err := h.service.Status(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			h.send(ctx, chatID, "❌ Сначала зарегистрируйтесь: /join")
			return
		}
		log.WithError(err).WithField("account_id", accountID).Error("Ошибка получения стрика")
		h.send(ctx, chatID, "❌ Ошибка получения данных стрика")
		return
	}

	text := fmt.Sprintf("🔥 Твой огонек\n\nТекущая серия: %d %s\nЛучшая серия: %d %s\nПропусков: %d",
		st.CurrentStreak, common.PluralizeDays(st.CurrentStreak),
		st.LongestStreak, common.PluralizeDays(st.LongestStreak),
		st.FreeSkipCount)

	if st.LastStreakDate != nil && st.LastStreakDate.Equal(h.service.Today()) {
		text += "\n\n✅ Сегодня уже отмечались"
	} else {
		text += "\n\nОтметиться: /checkin"
	}
	if day, reward, ok := NextMilestone(st.CurrentStreak); ok {
		text += fmt.Sprintf("\nСледующий рубеж: %d %s (+%s)", day, common.PluralizeDays(day), common.FormatRep(reward))
	}
	h.send(ctx, chatID, text)
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	common.Reply(ctx, h.sender, chatID, text)
}
