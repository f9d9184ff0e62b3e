// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// maxLoggedRunes — сколько символов текста попадает в лог.
const maxLoggedRunes = 50

// LogMessage логирует входящее сообщение.
// Записывает: user_id, chat_id, username, текст (первые 50 символов).
func LogMessage(userID, chatID int64, username, text string) {
	log.WithFields(log.Fields{
		"user_id":  userID,
		"chat_id":  chatID,
		"username": username,
		"text":     Truncate(text, maxLoggedRunes),
		"time":     time.Now().Format("15:04:05"),
	}).Debug("Входящее сообщение")
}

// Truncate обрезает текст до n символов (не байтов) и добавляет "...".
func Truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
