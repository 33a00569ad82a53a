// Package common: errors.go определяет ошибки экономики,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import (
	"errors"
	"fmt"
)

// Ошибки леджера и магазина
var (
	// ErrInsufficientFunds: на счёте не хватает XP или репутации
	ErrInsufficientFunds = errors.New("недостаточно средств")
	// ErrAlreadyOwned: повторная покупка постоянного предмета
	ErrAlreadyOwned = errors.New("предмет уже куплен")
	// ErrItemNotFound: предмета нет в каталоге
	ErrItemNotFound = errors.New("предмет не найден")
	// ErrAccountNotFound: счёт не заведён
	ErrAccountNotFound = errors.New("аккаунт не найден")
	// ErrInvalidEffect: неизвестный или битый дескриптор эффекта
	ErrInvalidEffect = errors.New("некорректный эффект")
	// ErrConcurrencyConflict: блокировка или сериализация не удалась, можно повторить
	ErrConcurrencyConflict = errors.New("конфликт параллельных операций, попробуйте ещё раз")
	// ErrInvalidAmount: отрицательная сумма в дебете/кредите
	ErrInvalidAmount = errors.New("сумма должна быть неотрицательной")
)

// Ошибки подарков
var (
	// ErrSelfGift: попытка подарить самому себе
	ErrSelfGift = errors.New("нельзя дарить подарок самому себе")
	// ErrInvalidGiftType: такого типа подарка нет
	ErrInvalidGiftType = errors.New("неизвестный тип подарка")
	// ErrGiftNotFound: подарок не найден
	ErrGiftNotFound = errors.New("подарок не найден")
	// ErrForbidden: подарок адресован другому
	ErrForbidden = errors.New("этот подарок не для вас")
	// ErrAlreadyClaimed: подарок уже получен
	ErrAlreadyClaimed = errors.New("подарок уже получен")
)

// Ошибки благодарностей
var (
	// ErrThanksSelf: спасибо самому себе
	ErrThanksSelf = errors.New("нельзя благодарить самого себя")
	// ErrThanksDailyLimit: дневной лимит благодарностей исчерпан
	ErrThanksDailyLimit = errors.New("дневной лимит благодарностей исчерпан")
	// ErrThanksAlreadyGiven: этого участника сегодня уже благодарили
	ErrThanksAlreadyGiven = errors.New("сегодня вы уже благодарили этого участника")
)

// Ошибки мистери-бокса и турниров
var (
	// ErrNothingToWin: в боксе не осталось доступных предметов
	ErrNothingToWin = errors.New("в мистери-боксе нечего выиграть")
	// ErrTournamentNotFound: турнира нет в каталоге
	ErrTournamentNotFound = errors.New("турнир не найден")
	// ErrAlreadyRegistered: повторная регистрация на турнир
	ErrAlreadyRegistered = errors.New("вы уже зарегистрированы на турнир")
	// ErrFeatureDisabled: функция выключена в настройках
	ErrFeatureDisabled = errors.New("функция временно отключена")
)

// InsufficientFundsError несёт сколько требовалось и сколько было.
// errors.Is(err, ErrInsufficientFunds) для неё истинно.
type InsufficientFundsError struct {
	Field     string
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("недостаточно средств (%s): нужно %d, есть %d", e.Field, e.Required, e.Available)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
