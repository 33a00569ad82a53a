package common

import (
	"errors"
	"fmt"
)

// UserMessage переводит доменную ошибку в ответ пользователю.
// ok=false: ошибка неожиданная, её нужно залогировать и ответить общим текстом.
func UserMessage(err error) (msg string, ok bool) {
	var funds *InsufficientFundsError
	if errors.As(err, &funds) {
		return fmt.Sprintf("❌ Недостаточно средств: нужно %s, есть %s",
			formatField(funds.Field, funds.Required), formatField(funds.Field, funds.Available)), true
	}

	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return "❌ Недостаточно средств", true
	case errors.Is(err, ErrAlreadyOwned):
		return "❌ Этот предмет у вас уже есть", true
	case errors.Is(err, ErrItemNotFound):
		return "❌ Такого предмета нет. Список: /shop", true
	case errors.Is(err, ErrAccountNotFound):
		return "❌ Пользователь не найден. Зарегистрироваться: /join", true
	case errors.Is(err, ErrSelfGift):
		return "❌ Нельзя дарить подарок самому себе", true
	case errors.Is(err, ErrInvalidGiftType):
		return "❌ Нет такого подарка. Список: /gifts", true
	case errors.Is(err, ErrGiftNotFound):
		return "❌ Подарок не найден", true
	case errors.Is(err, ErrForbidden):
		return "❌ Этот подарок не для вас", true
	case errors.Is(err, ErrAlreadyClaimed):
		return "❌ Подарок уже получен", true
	case errors.Is(err, ErrThanksSelf):
		return "🙃 Себя благодарить не получится", true
	case errors.Is(err, ErrThanksDailyLimit):
		return "⏳ На сегодня благодарности закончились", true
	case errors.Is(err, ErrThanksAlreadyGiven):
		return "⏳ Сегодня вы уже благодарили этого участника", true
	case errors.Is(err, ErrNothingToWin):
		return "📦 В мистери-боксе для вас ничего не осталось", true
	case errors.Is(err, ErrTournamentNotFound):
		return "❌ Такого турнира нет. Список: /tournaments", true
	case errors.Is(err, ErrAlreadyRegistered):
		return "❌ Вы уже зарегистрированы на этот турнир", true
	case errors.Is(err, ErrFeatureDisabled):
		return "⏸ Функция временно отключена", true
	case errors.Is(err, ErrConcurrencyConflict):
		return "⏳ Слишком много операций одновременно, попробуйте ещё раз", true
	}
	return "", false
}

func formatField(field string, amount int64) string {
	if field == "reputation" {
		return FormatRep(amount)
	}
	return FormatXP(amount)
}
