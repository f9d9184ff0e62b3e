package filters

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/rewards-bot/internal/common"
)

const mainChat = -100500

type fakeSessions map[int64]bool

func (f fakeSessions) HasSession(userID int64) bool { return f[userID] }

type fakeChecker struct {
	status string
	err    error
	calls  int
}

func (f *fakeChecker) GetChatMember(tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.calls++
	return tgbotapi.ChatMember{Status: f.status}, f.err
}

func message(chatID int64, chatType string, userID int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID, Type: chatType},
		From: &tgbotapi.User{ID: userID},
	}
}

func TestCheckAccess_NoMainChat(t *testing.T) {
	f := NewChatFilter(0, nil, nil, nil)
	ctx := context.Background()

	assert.True(t, f.CheckAccess(ctx, message(1, "private", 1)))
	assert.False(t, f.CheckAccess(ctx, message(-1, "group", 1)))
	assert.False(t, f.CheckAccess(ctx, &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1, Type: "private"}}))
	assert.False(t, f.CheckAccess(ctx, nil))
}

func TestCheckAccess_MainChat(t *testing.T) {
	checker := &fakeChecker{status: "left"}
	var denied []string
	sender := common.SenderFunc(func(_ int64, text string) { denied = append(denied, text) })
	f := NewChatFilter(mainChat, fakeSessions{1: true}, checker, sender)
	ctx := context.Background()

	assert.True(t, f.CheckAccess(ctx, message(mainChat, "supergroup", 5)))
	assert.False(t, f.CheckAccess(ctx, message(-7, "group", 5)))

	// Сессия уже есть — Telegram не спрашиваем
	assert.True(t, f.CheckAccess(ctx, message(1, "private", 1)))
	assert.Equal(t, 0, checker.calls)

	// Не участник основного чата
	assert.False(t, f.CheckAccess(ctx, message(2, "private", 2)))
	assert.Equal(t, 1, checker.calls)
	assert.Len(t, denied, 1)

	checker.status = "member"
	assert.True(t, f.CheckAccess(ctx, message(2, "private", 2)))

	checker.err = errors.New("telegram down")
	assert.False(t, f.CheckAccess(ctx, message(3, "private", 3)))
}
