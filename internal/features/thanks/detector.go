// Package thanks засчитывает благодарности в чате: ответ «спасибо» на сообщение
// начисляет автору сообщения репутацию.
package thanks

import "strings"

var thankWords = map[string]struct{}{
	"спасибо":   {},
	"спс":       {},
	"благодарю": {},
	"thanks":    {},
	"thx":       {},
}

// IsThankYou проверяет, является ли текст благодарностью.
// Регистр не важен, пунктуация и смайлы в конце допускаются.
// «Спасибо большое» считается, «спасибо, но нет» не считается.
func IsThankYou(text string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = strings.TrimRight(cleaned, "!.,;:)🙏❤️ ")
	cleaned = strings.TrimSuffix(cleaned, " большое")
	_, ok := thankWords[cleaned]
	return ok
}
