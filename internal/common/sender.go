package common

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Sender отправляет текстовый ответ в чат. Реализуется транспортом бота,
// в тестах подменяется фейком.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Reply отправляет ответ. Ошибку отправки только логируем: пользователю её уже не показать.
func Reply(ctx context.Context, s Sender, chatID int64, text string) {
	if err := s.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// ReplyError отвечает текстом доменной ошибки. Неожиданные ошибки логируются,
// пользователь видит fallback.
func ReplyError(ctx context.Context, s Sender, chatID int64, err error, fallback string) {
	if msg, ok := UserMessage(err); ok {
		Reply(ctx, s, chatID, msg)
		return
	}
	log.WithError(err).WithField("chat_id", chatID).Error(fallback)
	Reply(ctx, s, chatID, "❌ "+fallback)
}
