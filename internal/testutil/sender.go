// Package testutil: общие фейки для тестов обработчиков.
package testutil

import (
	"context"
	"strings"
	"sync"
)

// Message: отправленное сообщение.
type Message struct {
	ChatID int64
	Text   string
}

// Sender запоминает всё, что обработчики отправили.
type Sender struct {
	mu       sync.Mutex
	messages []Message
	Err      error // Если задано, SendText возвращает эту ошибку
}

// SendText реализует common.Sender.
func (s *Sender) SendText(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{ChatID: chatID, Text: text})
	return s.Err
}

// Messages возвращает копию отправленных сообщений.
func (s *Sender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Last возвращает текст последнего сообщения или "".
func (s *Sender) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1].Text
}

// Contains сообщает, что хоть одно сообщение содержит substr.
func (s *Sender) Contains(substr string) bool {
	for _, m := range s.Messages() {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}
