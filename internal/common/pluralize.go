// Package common — pluralize.go содержит форматирование знаковых сумм и чисел.
// Основная логика плюрализации реализована в helpers.go.
package common

import "fmt"

// FormatSignedCoins создаёт строку вида "+150 монет" или "-500 монет".
//
// Примеры:
//
//	FormatSignedCoins(150)  → "+150 монет"
//	FormatSignedCoins(-500) → "-500 монет"
//	FormatSignedCoins(1)    → "+1 монета"
func FormatSignedCoins(amount int64) string {
	return signed(amount) + " " + PluralizeCoins(amount)
}

// FormatSignedXP создаёт строку вида "+40 XP".
func FormatSignedXP(amount int64) string {
	return signed(amount) + " XP"
}

func signed(amount int64) string {
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

	// Рекурсивно добавляем разделители
	rest := n / 1000
	last := n % 1000
	return fmt.Sprintf("%s %03d", FormatNumber(rest), last)
}
