// Package bot — sender.go отправляет ответы через Telegram API.
package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Telegram — отправщик сообщений через Bot API.
// Реализует common.KeyboardSender.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram создаёт отправщик.
func NewTelegram(api *tgbotapi.BotAPI) *Telegram {
	return &Telegram{api: api}
}

// Send отправляет текст в чат.
func (t *Telegram) Send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendKeyboard отправляет текст с reply-клавиатурой. rows == nil убирает клавиатуру.
func (t *Telegram) SendKeyboard(chatID int64, text string, rows [][]string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = Keyboard(rows)
	if _, err := t.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки клавиатуры")
	}
}

// Keyboard собирает разметку клавиатуры из строк кнопок.
func Keyboard(rows [][]string) any {
	if len(rows) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	kbRows := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		kbRows = append(kbRows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(kbRows...)
	kb.ResizeKeyboard = true
	return kb
}
