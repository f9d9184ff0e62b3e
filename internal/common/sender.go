// Package common — sender.go описывает отправку ответов пользователю.
package common

// Sender отправляет текстовое сообщение в чат.
// Реализуется ботом Telegram и консольным плейграундом.
type Sender interface {
	Send(chatID int64, text string)
}

// SenderFunc позволяет использовать функцию как Sender.
type SenderFunc func(chatID int64, text string)

// Send вызывает f(chatID, text).
func (f SenderFunc) Send(chatID int64, text string) {
	f(chatID, text)
}

// KeyboardSender — Sender, умеющий показывать клавиатуру с кнопками.
// rows — строки кнопок; nil убирает клавиатуру.
type KeyboardSender interface {
	Sender
	SendKeyboard(chatID int64, text string, rows [][]string)
}
