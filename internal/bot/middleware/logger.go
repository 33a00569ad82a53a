// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"unicode/utf8"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// maxLoggedText: сколько символов текста попадает в лог.
const maxLoggedText = 50

// LogMessage логирует входящее сообщение.
// Записывает: request_id, user_id, chat_id, username, текст (первые 50 символов).
func LogMessage(requestID string, message *telego.Message) {
	if message == nil {
		return
	}

	fields := log.Fields{
		"request_id": requestID,
		"chat_id":    message.Chat.ID,
		"text":       Truncate(message.Text, maxLoggedText),
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.Username
	}
	log.WithFields(fields).Debug("Входящее сообщение")
}

// Truncate обрезает строку до n символов (не байтов) и добавляет "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
