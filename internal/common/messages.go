// Package common — messages.go переводит ошибки операций в ответы пользователю.
package common

import (
	"errors"
	"fmt"
)

// UserMessage возвращает понятный пользователю текст для ошибки операции.
// Для нехватки монет показывает, сколько не хватает.
func UserMessage(err error) string {
	var ife *InsufficientFundsError
	switch {
	case errors.As(err, &ife):
		return fmt.Sprintf("💸 Не хватает %s (нужно %s, у тебя %s)",
			FormatCoins(ife.Shortfall()), FormatNumber(ife.Need), FormatNumber(ife.Have))
	case errors.Is(err, ErrInsufficientFunds):
		return "💸 Недостаточно монет"
	case errors.Is(err, ErrAlreadyClaimedOrNotCurrent):
		return "📅 Этот подарок уже получен или его день ещё не наступил"
	case errors.Is(err, ErrStreakComplete):
		return "🏁 Неделя стрика уже пройдена"
	case errors.Is(err, ErrMissionNotFound):
		return "❓ Такой миссии нет"
	case errors.Is(err, ErrMissionNotEligible):
		return "⏳ Миссия ещё не выполнена или награда уже получена"
	case errors.Is(err, ErrWeeklyBonusNotEligible):
		return "🔒 Недельный бонус пока недоступен"
	case errors.Is(err, ErrThanksSelf):
		return "🙃 Себя благодарить нельзя"
	case errors.Is(err, ErrThanksAlreadyGiven):
		return "🤝 Ты уже благодарил этого участника сегодня"
	case errors.Is(err, ErrSpinInProgress):
		return "🎡 Колесо уже крутится, подожди"
	case errors.Is(err, ErrRewardNotFound):
		return "❓ Такого приза нет в магазине"
	case errors.Is(err, ErrInvalidAmount):
		return "❌ Некорректное значение"
	case errors.Is(err, ErrEngineClosed):
		return "⌛ Сессия завершена, напиши /start"
	case errors.Is(err, ErrMemberNotFound):
		return "❓ Участник не найден"
	default:
		return "❌ Что-то пошло не так, попробуй позже"
	}
}
