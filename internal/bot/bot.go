// Package bot содержит главный модуль бота — long polling и разбор апдейтов Telegram.
// bot.go превращает апдейты в Incoming и передаёт их роутеру.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/bot/filters"
	"serotonyl.ru/rewards-bot/internal/bot/middleware"
	"serotonyl.ru/rewards-bot/internal/config"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// Bot — Telegram-транспорт: получает апдейты и отдаёт их роутеру.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	router        *Router
	chatFilter    *filters.ChatFilter
	memberHandler *members.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота.
func New(api *tgbotapi.BotAPI, cfg *config.Config, router *Router, chatFilter *filters.ChatFilter, memberHandler *members.Handler) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:           api,
		cfg:           cfg,
		router:        router,
		chatFilter:    chatFilter,
		memberHandler: memberHandler,
		inflight:      make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Возвращается после отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.drain()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.drain()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// drain ждёт завершения обработки уже принятых апдейтов.
func (b *Bot) drain() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	// События основного чата: вступление и выход участников
	if b.cfg.AllowedChatID != 0 && message.Chat.ID == b.cfg.AllowedChatID {
		if len(message.NewChatMembers) > 0 {
			b.memberHandler.HandleNewChatMembers(ctx, message.Chat.ID, message.NewChatMembers)
			return
		}
		if message.LeftChatMember != nil {
			b.memberHandler.HandleLeftChatMember(message.LeftChatMember)
			return
		}
	}

	if message.Text == "" {
		return
	}

	// Проверяем доступ (основной чат или личка)
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	b.router.Dispatch(ctx, ToIncoming(message))
}

// ToIncoming переводит сообщение Telegram во внутренний формат.
func ToIncoming(message *tgbotapi.Message) Incoming {
	in := Incoming{
		ChatID:  message.Chat.ID,
		Private: message.Chat.IsPrivate(),
		Text:    message.Text,
	}
	if message.From != nil {
		in.From = userOf(message.From)
	}
	if reply := message.ReplyToMessage; reply != nil && reply.From != nil {
		u := userOf(reply.From)
		in.ReplyTo = &u
	}
	return in
}

func userOf(u *tgbotapi.User) User {
	return User{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
	}
}
