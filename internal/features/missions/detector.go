// Package missions — detector.go определяет, содержит ли сообщение благодарность.
package missions

import "strings"

// thankWords — варианты благодарности.
var thankWords = map[string]bool{
	"спасибо":    true,
	"спс":        true,
	"благодарю":  true,
	"мерси":      true,
	"спасибочки": true,
}

// IsThankYou проверяет, является ли текст благодарностью.
// Регистр не важен. Пунктуация в конце допускается.
func IsThankYou(text string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = strings.TrimRight(cleaned, "!.,;:)")
	return thankWords[cleaned]
}
