// Package wheel — handlers.go обрабатывает команды !колесо и !статколесо.
package wheel

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
)

// Handler обрабатывает команды колеса удачи.
type Handler struct {
	sender   common.Sender
	segments []Segment

	mu        sync.Mutex
	rng       *rand.Rand
	rotations map[string]Rotation // profile ID → положение колеса

	pending sync.WaitGroup // Ожидающие уведомления о выигрыше
}

// NewHandler создаёт обработчик колеса.
func NewHandler(sender common.Sender) *Handler {
	seed := uint64(time.Now().UnixNano())
	return &Handler{
		sender:    sender,
		segments:  DefaultSegments,
		rng:       rand.New(rand.NewPCG(seed, seed>>1)),
		rotations: make(map[string]Rotation),
	}
}

// HandleSpin обрабатывает команду !колесо.
// Стоимость списывается сразу; о выигрыше приходит отдельное сообщение,
// когда колесо остановится.
//
// Формат ответа:
//
//	🎡 Колесо крутится...
//	Списано: 100 монет
//	💰 Осталось: 2 350 монет
//
// Через 4 секунды:
//
//	🎉 Ура! 🟢 Ты выиграл 250 монет!
//	💰 Баланс: 2 500 монет
func (h *Handler) HandleSpin(_ context.Context, chatID int64, eng *economy.Engine) {
	spin, err := eng.SpinWheel()
	if err != nil {
		if !common.IsRejection(err) {
			log.WithError(err).Error("Ошибка запуска колеса")
		}
		h.sendMessage(chatID, common.UserMessage(err))
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎡 Колесо крутится...\nСписано: %s\n💰 Осталось: %s",
		common.FormatCoins(spin.Cost), common.FormatCoins(eng.Balance().Coins),
	))

	segment := h.land(eng.Snapshot().Profile.ID)

	// Уведомление о выигрыше; Close сессии тоже завершает вращение
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		<-spin.Done()

		if _, ok := spin.Result(); !ok {
			return
		}
		// Показываем обещанный выигрыш, в журнале — фактически начисленный
		h.sendMessage(chatID, fmt.Sprintf(
			"🎉 Ура! %s Ты выиграл %s!\n💰 Баланс: %s",
			segment.Emoji, common.FormatCoins(spin.Advertised), common.FormatCoins(eng.Balance().Coins),
		))
	}()
}

// land поворачивает колесо пользователя и возвращает сектор под стрелкой.
func (h *Handler) land(profileID string) Segment {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := h.rotations[profileID].Spin(h.rng)
	h.rotations[profileID] = r
	return r.Segment(h.segments)
}

// HandleStats обрабатывает команду !статколесо — статистика вращений за сессию.
//
// Формат ответа:
//
//	📊 Колесо удачи
//	Вращений: 3
//	Потрачено: 300 монет
//	Выиграно: 450 монет
//	Итог: +150 монет
//	📈 Возврат: 150.00%
func (h *Handler) HandleStats(_ context.Context, chatID int64, eng *economy.Engine) {
	stats := CollectStats(eng.History(0), eng.Rules().SpinCost)
	if stats.Spins == 0 {
		h.sendMessage(chatID, "📊 Ты ещё не крутил колесо. Напиши !колесо")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"📊 Колесо удачи\n\n"+
			"Вращений: %d\n"+
			"Потрачено: %s\n"+
			"Выиграно: %s\n"+
			"Итог: %s\n\n"+
			"💎 Лучший выигрыш: %s\n"+
			"📈 Возврат: %.2f%%",
		stats.Spins,
		common.FormatCoins(stats.Wagered),
		common.FormatCoins(stats.Won),
		common.FormatSignedCoins(stats.Net()),
		common.FormatCoins(stats.BiggestWin),
		stats.ReturnRatio(),
	))
}

// Wait ждёт отправки всех уведомлений о выигрыше.
// Вызывается при остановке после закрытия сессий.
func (h *Handler) Wait() {
	h.pending.Wait()
}

func (h *Handler) sendMessage(chatID int64, text string) {
	h.sender.Send(chatID, text)
}
