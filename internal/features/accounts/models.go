// Package accounts заводит счета участников и показывает профиль.
// models.go описывает данные пользователя Telegram, из которых заводится счёт.
package accounts

import "strings"

// Identity: кто пишет боту. Берётся из апдейта Telegram.
type Identity struct {
	UserID    int64  // Telegram user ID, он же ID счёта
	Username  string // @username без @ (может быть пустым)
	FirstName string
	LastName  string
}

// DisplayName возвращает имя + фамилию, либо @username, если имени нет.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" && i.Username != "" {
		return "@" + i.Username
	}
	return name
}
