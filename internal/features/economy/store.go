// Package economy — store.go содержит покупку призов за монеты.
package economy

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
)

// RedeemReward покупает приз item. Покупки не ограничены, пока хватает монет.
// При нехватке возвращает *InsufficientFundsError (errors.Is ErrInsufficientFunds).
func (e *Engine) RedeemReward(item catalog.RewardItem) (Redemption, error) {
	e.mu.Lock()
	r, err := e.redeemLocked(item)
	e.mu.Unlock()
	e.flush()
	return r, err
}

// RedeemRewardByID покупает приз из каталога по id.
func (e *Engine) RedeemRewardByID(id string) (Redemption, error) {
	item, ok := e.cat.Reward(id)
	if !ok {
		e.mu.Lock()
		err := common.ErrEngineClosed
		if !e.closed {
			err = e.reject(OpRedeem, common.ErrRewardNotFound)
		}
		e.mu.Unlock()
		e.flush()
		return Redemption{}, err
	}
	return e.RedeemReward(item)
}

func (e *Engine) redeemLocked(item catalog.RewardItem) (Redemption, error) {
	if e.closed {
		return Redemption{}, common.ErrEngineClosed
	}
	if item.Cost <= 0 {
		return Redemption{}, e.reject(OpRedeem, common.ErrInvalidAmount)
	}
	if e.profile.Coins < item.Cost {
		return Redemption{}, e.reject(OpRedeem, &common.InsufficientFundsError{
			Need: item.Cost,
			Have: e.profile.Coins,
		})
	}

	delta := e.applyDelta(0, -item.Cost)
	ev := e.appendHistory(HistoryEvent{
		Kind:     KindSpend,
		Title:    "Получен приз: " + item.Title,
		Subtitle: item.Description,
		Amount:   -item.Cost,
		Unit:     UnitCoins,
		Delta:    delta,
		Source:   OpRedeem,
	})
	e.record(OpRedeem, nil, &ev)

	log.WithFields(log.Fields{
		"profile": e.profile.ID,
		"reward":  item.ID,
		"cost":    item.Cost,
	}).Debug("Приз куплен")

	return Redemption{Item: item, Event: ev, Balance: e.balance()}, nil
}
