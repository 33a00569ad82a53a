// Package filters решает, в каких чатах бот отвечает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает личку и разрешённые группы.
// Пустой список групп: бот работает в любой группе.
type ChatFilter struct {
	allowed map[int64]struct{}
}

// NewChatFilter создаёт фильтр по списку разрешённых групп.
func NewChatFilter(allowedChatIDs []int64) *ChatFilter {
	f := &ChatFilter{allowed: make(map[int64]struct{}, len(allowedChatIDs))}
	for _, id := range allowedChatIDs {
		f.allowed[id] = struct{}{}
	}
	return f
}

// CheckAccess сообщает, нужно ли обрабатывать сообщение.
func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
	})

	// служебные сообщения и посты каналов без автора
	if message.From == nil {
		logger.Debug("deny: no sender")
		return false
	}
	if message.From.IsBot {
		logger.Debug("deny: bot sender")
		return false
	}

	if message.Chat.Type == telego.ChatTypePrivate {
		return true
	}
	if len(f.allowed) == 0 {
		return true
	}
	if _, ok := f.allowed[message.Chat.ID]; ok {
		return true
	}

	logger.Debug("deny: chat not allowed")
	return false
}
