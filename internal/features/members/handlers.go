// Package members — handlers.go обрабатывает Telegram-события, связанные с участниками.
// Основное событие: новый пользователь вступил в чат.
package members

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Handler обрабатывает события участников.
type Handler struct {
	service *Service // Сервис участников для бизнес-логики
}

// NewHandler создаёт новый обработчик событий участников.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleNewChatMembers открывает сессии для вступивших пользователей.
// Боты пропускаются.
func (h *Handler) HandleNewChatMembers(ctx context.Context, chatID int64, newMembers []tgbotapi.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		_, err := h.service.EnsureMember(ctx, user.ID, UpdateInfo{
			ChatID:    chatID,
			Username:  user.UserName,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка открытия сессии нового участника")
		}
	}
}

// HandleLeftChatMember закрывает сессию ушедшего пользователя.
func (h *Handler) HandleLeftChatMember(user *tgbotapi.User) {
	if user == nil || user.IsBot {
		return
	}
	h.service.End(user.ID)
}
