// Package common — errors.go определяет ошибки, которые используются во всех модулях.
// Все ошибки экономики — это нарушения предусловий, а не сбои:
// операция отклоняется целиком, состояние не меняется.
// Обработчики различают их через errors.Is и отвечают пользователю понятным текстом.
package common

import (
	"errors"
	"fmt"
)

// Ошибки экономики (монеты, XP)
var (
	// ErrInsufficientFunds — не хватает монет на спин или покупку
	ErrInsufficientFunds = errors.New("недостаточно монет")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrEngineClosed — сессия уже закрыта
	ErrEngineClosed = errors.New("сессия завершена")
)

// Ошибки участников
var (
	// ErrMemberNotFound — у пользователя нет открытой сессии
	ErrMemberNotFound = errors.New("участник не найден")
)

// Ошибки стрика
var (
	// ErrAlreadyClaimedOrNotCurrent — день уже забран или это не текущий день
	ErrAlreadyClaimedOrNotCurrent = errors.New("подарок этого дня уже получен или день ещё не наступил")
	// ErrStreakComplete — неделя закончилась, дальше двигать день некуда
	ErrStreakComplete = errors.New("7-дневный стрик уже пройден")
)

// Ошибки миссий
var (
	// ErrMissionNotFound — миссии с таким id нет в каталоге
	ErrMissionNotFound = errors.New("миссия не найдена")
	// ErrMissionNotEligible — миссия не выполнена или награда уже получена
	ErrMissionNotEligible = errors.New("миссия не выполнена или награда уже получена")
	// ErrWeeklyBonusNotEligible — мало выполненных миссий или бонус уже забран
	ErrWeeklyBonusNotEligible = errors.New("недельный бонус недоступен")
	// ErrThanksSelf — нельзя благодарить самого себя
	ErrThanksSelf = errors.New("нельзя благодарить самого себя")
	// ErrThanksAlreadyGiven — этого участника уже благодарили сегодня
	ErrThanksAlreadyGiven = errors.New("уже благодарил этого участника сегодня")
)

// Ошибки колеса и магазина
var (
	// ErrSpinInProgress — колесо ещё крутится
	ErrSpinInProgress = errors.New("колесо уже крутится")
	// ErrRewardNotFound — в магазине нет такого приза
	ErrRewardNotFound = errors.New("приз не найден")
)

// InsufficientFundsError — подробности нехватки монет.
// Нужна, чтобы показать пользователю, сколько не хватает.
type InsufficientFundsError struct {
	Need int64
	Have int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("недостаточно монет: нужно %d, есть %d", e.Need, e.Have)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// Shortfall возвращает, сколько монет не хватает.
func (e *InsufficientFundsError) Shortfall() int64 {
	if e.Need <= e.Have {
		return 0
	}
	return e.Need - e.Have
}

// IsRejection возвращает true, если ошибка — штатный отказ операции
// (нарушено предусловие), а не внутренний сбой.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrAlreadyClaimedOrNotCurrent) ||
		errors.Is(err, ErrStreakComplete) ||
		errors.Is(err, ErrMissionNotFound) ||
		errors.Is(err, ErrMissionNotEligible) ||
		errors.Is(err, ErrWeeklyBonusNotEligible) ||
		errors.Is(err, ErrThanksSelf) ||
		errors.Is(err, ErrThanksAlreadyGiven) ||
		errors.Is(err, ErrSpinInProgress) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrInvalidAmount)
}
