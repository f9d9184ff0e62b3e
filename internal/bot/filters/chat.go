// Package filters — chat.go решает, в каких чатах бот отвечает.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
)

// MemberChecker проверяет членство пользователя в чате через Telegram API.
// Реализуется *tgbotapi.BotAPI.
type MemberChecker interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// SessionChecker сообщает, есть ли у пользователя открытая сессия.
type SessionChecker interface {
	HasSession(userID int64) bool
}

// ChatFilter пропускает личку и основной чат.
// Если основной чат задан, в личке отвечаем только его участникам.
type ChatFilter struct {
	allowedChatID int64
	sessions      SessionChecker
	checker       MemberChecker
	sender        common.Sender
}

// NewChatFilter создаёт фильтр. allowedChatID == 0 — только личные сообщения, без проверки членства.
func NewChatFilter(allowedChatID int64, sessions SessionChecker, checker MemberChecker, sender common.Sender) *ChatFilter {
	return &ChatFilter{
		allowedChatID: allowedChatID,
		sessions:      sessions,
		checker:       checker,
		sender:        sender,
	}
}

// CheckAccess возвращает true, если сообщение нужно обработать.
func (f *ChatFilter) CheckAccess(_ context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":       "ChatFilter",
		"chat_id":         chatID,
		"chat_type":       message.Chat.Type,
		"user_id":         userID,
		"allowed_chat_id": f.allowedChatID,
	})

	// 1) Основной чат
	if f.allowedChatID != 0 && chatID == f.allowedChatID {
		logger.Debug("allow: main chat")
		return true
	}

	if !message.Chat.IsPrivate() {
		// 3) Остальные чаты игнорируем
		logger.Debug("deny: not main chat and not private")
		return false
	}

	// 2) Личка: без основного чата пускаем всех
	if f.allowedChatID == 0 {
		return true
	}
	if f.sessions != nil && f.sessions.HasSession(userID) {
		logger.Debug("allow: private (open session)")
		return true
	}
	if f.checker == nil {
		logger.Error("member checker is nil")
		return false
	}

	// 2.1) Сессии нет: проверяем членство через Telegram API
	cm, err := f.checker.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: f.allowedChatID,
			UserID: userID,
		},
	})
	if err != nil {
		logger.WithError(err).Error("member check failed (telegram GetChatMember)")
		return false
	}

	switch cm.Status {
	case "creator", "administrator", "member", "restricted":
		logger.WithField("tg_status", cm.Status).Info("allow: private (telegram member)")
		return true
	default:
		logger.WithField("tg_status", cm.Status).Info("deny: private (not a chat member)")
		if f.sender != nil {
			f.sender.Send(chatID, "❌ Бот работает только для участников основного чата")
		}
		return false
	}
}
