// Package common: pluralize.go форматирует суммы для ответов бота.
package common

import "fmt"

// FormatRep создаёт строку вида "15 очков репутации".
func FormatRep(amount int64) string {
	return fmt.Sprintf("%s %s репутации", FormatNumber(amount), PluralizeRep(amount))
}

// FormatXP создаёт строку вида "1 200 XP".
func FormatXP(amount int64) string {
	return FormatNumber(amount) + " XP"
}

// FormatSigned добавляет знак «+» к неотрицательной сумме.
//
//	FormatSigned(100) → "+100"
//	FormatSigned(-50) → "-50"
func FormatSigned(amount int64) string {
	if amount >= 0 {
		return "+" + FormatNumber(amount)
	}
	return FormatNumber(amount)
}

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}
