package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeCoins(t *testing.T) {
	cases := map[int64]string{
		0:   "монет",
		1:   "монета",
		2:   "монеты",
		4:   "монеты",
		5:   "монет",
		11:  "монет",
		12:  "монет",
		21:  "монета",
		22:  "монеты",
		111: "монет",
		-1:  "монета",
		-22: "монеты",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeCoins(n), "n=%d", n)
	}
}

func TestPluralizeDaysAndMissions(t *testing.T) {
	assert.Equal(t, "день", PluralizeDays(1))
	assert.Equal(t, "дня", PluralizeDays(3))
	assert.Equal(t, "дней", PluralizeDays(7))
	assert.Equal(t, "миссия", PluralizeMissions(1))
	assert.Equal(t, "миссии", PluralizeMissions(2))
	assert.Equal(t, "миссий", PluralizeMissions(0))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1 000", FormatNumber(1000))
	assert.Equal(t, "2 450", FormatNumber(2450))
	assert.Equal(t, "1 000 050", FormatNumber(1000050))
	assert.Equal(t, "-2 350", FormatNumber(-2350))
}

func TestFormatSigned(t *testing.T) {
	assert.Equal(t, "+150 монет", FormatSignedCoins(150))
	assert.Equal(t, "-500 монет", FormatSignedCoins(-500))
	assert.Equal(t, "+1 монета", FormatSignedCoins(1))
	assert.Equal(t, "+40 XP", FormatSignedXP(40))
	assert.Equal(t, "2 450 монет", FormatCoins(2450))
	assert.Equal(t, "1 490 XP", FormatXP(1490))
}

func TestInsufficientFundsError(t *testing.T) {
	var err error = &InsufficientFundsError{Need: 500, Have: 300}

	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.True(t, IsRejection(err))

	var ife *InsufficientFundsError
	assert.True(t, errors.As(fmt.Errorf("redeem: %w", err), &ife))
	assert.Equal(t, int64(200), ife.Shortfall())
	assert.Equal(t, int64(0), (&InsufficientFundsError{Need: 10, Have: 20}).Shortfall())
}

func TestIsRejection_InternalError(t *testing.T) {
	assert.False(t, IsRejection(errors.New("boom")))
	assert.False(t, IsRejection(ErrEngineClosed))
	assert.True(t, IsRejection(fmt.Errorf("wrap: %w", ErrSpinInProgress)))
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("IRST", 3*60*60+30*60)
	ts := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC) // 01:30 следующего дня по IRST
	got := StartOfDay(ts, loc)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), got)
}

func TestStartOfWeek(t *testing.T) {
	loc := time.FixedZone("IRST", 3*60*60+30*60)
	wed := time.Date(2026, 3, 11, 15, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, loc), StartOfWeek(wed, loc, time.Saturday))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, loc), StartOfWeek(wed, loc, time.Monday))

	sat := time.Date(2026, 3, 7, 0, 10, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, loc), StartOfWeek(sat, loc, time.Saturday))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "💸 Не хватает 200 монет (нужно 500, у тебя 300)",
		UserMessage(fmt.Errorf("redeem: %w", &InsufficientFundsError{Need: 500, Have: 300})))
	assert.Equal(t, "🎡 Колесо уже крутится, подожди", UserMessage(ErrSpinInProgress))
	assert.Equal(t, "❌ Что-то пошло не так, попробуй позже", UserMessage(errors.New("db down")))
}

func TestSenderFunc(t *testing.T) {
	var got string
	var s Sender = SenderFunc(func(chatID int64, text string) { got = fmt.Sprintf("%d:%s", chatID, text) })
	s.Send(7, "привет")
	assert.Equal(t, "7:привет", got)
}
