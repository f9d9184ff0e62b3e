// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"fmt"
	"time"
)

// pluralize выбирает форму слова по правилам русского языка.
//
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
func pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeCoins возвращает правильную форму слова «монета» для числа n.
//
// Примеры:
//
//	PluralizeCoins(1)  → "монета"
//	PluralizeCoins(3)  → "монеты"
//	PluralizeCoins(5)  → "монет"
//	PluralizeCoins(11) → "монет"
func PluralizeCoins(n int64) string {
	return pluralize(n, "монета", "монеты", "монет")
}

// PluralizeDays возвращает правильную форму слова «день» для числа n.
func PluralizeDays(n int) string {
	return pluralize(int64(n), "день", "дня", "дней")
}

// PluralizeMissions возвращает правильную форму слова «миссия».
func PluralizeMissions(n int) string {
	return pluralize(int64(n), "миссия", "миссии", "миссий")
}

// FormatCoins форматирует количество монет в читабельную строку.
// Пример: FormatCoins(2450) → "2 450 монет"
func FormatCoins(coins int64) string {
	return fmt.Sprintf("%s %s", FormatNumber(coins), PluralizeCoins(coins))
}

// FormatXP форматирует опыт. Пример: FormatXP(1490) → "1 490 XP"
func FormatXP(xp int64) string {
	return FormatNumber(xp) + " XP"
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в заданной зоне.
// Используется для отображения дат в истории.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// StartOfDay возвращает полночь дня t в зоне loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek возвращает полночь первого дня недели, в которую попадает t.
// first — день начала недели (например, time.Saturday).
func StartOfWeek(t time.Time, loc *time.Location, first time.Weekday) time.Time {
	day := StartOfDay(t, loc)
	offset := (int(day.Weekday()) - int(first) + 7) % 7
	return day.AddDate(0, 0, -offset)
}
