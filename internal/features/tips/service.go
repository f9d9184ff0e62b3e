// Package tips — service.go выдаёт совет с таймаутом, запасным текстом и кэшем по дням.
package tips

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"serotonyl.ru/rewards-bot/internal/metrics"
)

// Service — совет на день стрика.
// Генератор вызывается не чаще одного раза на день: ответ (или запасной текст) кэшируется.
type Service struct {
	provider      Provider
	fallback      string // генератор недоступен
	emptyFallback string // генератор ответил пустым текстом
	timeout       time.Duration

	group singleflight.Group
	mu    sync.RWMutex
	cache map[int]string
}

// NewService создаёт сервис советов.
// Пустой emptyFallback — для пустого ответа используется fallback.
func NewService(provider Provider, fallback, emptyFallback string, timeout time.Duration) *Service {
	if emptyFallback == "" {
		emptyFallback = fallback
	}
	return &Service{
		provider:      provider,
		fallback:      fallback,
		emptyFallback: emptyFallback,
		timeout:       timeout,
		cache:         make(map[int]string),
	}
}

// Tip возвращает совет на день day. Никогда не возвращает ошибку:
// при сбое генератора отдаётся запасной текст.
// Отмена ctx прерывает только ожидание этого вызывающего: общий запрос
// к генератору доживает до своего таймаута и попадает в кэш.
func (s *Service) Tip(ctx context.Context, day int) string {
	s.mu.RLock()
	tip, ok := s.cache[day]
	s.mu.RUnlock()
	if ok {
		metrics.TipRequests.WithLabelValues("cache").Inc()
		return tip
	}

	ch := s.group.DoChan(strconv.Itoa(day), func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), day), nil
	})
	select {
	case res := <-ch:
		return res.Val.(string)
	case <-ctx.Done():
		log.WithField("day", day).Debug("Ожидание совета отменено")
		return s.fallback
	}
}

func (s *Service) fetch(ctx context.Context, day int) string {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tip, err := s.provider.Tip(fetchCtx, day)
	tip = strings.TrimSpace(tip)
	if err == nil && tip == "" {
		err = ErrEmptyTip
	}

	source := "provider"
	switch {
	case errors.Is(err, ErrEmptyTip):
		log.WithField("day", day).Warn("Генератор вернул пустой совет")
		tip = s.emptyFallback
		source = "fallback"
	case err != nil:
		log.WithError(err).WithField("day", day).Warn("Совет недоступен, используем запасной")
		tip = s.fallback
		source = "fallback"
	}
	metrics.TipRequests.WithLabelValues(source).Inc()

	s.mu.Lock()
	s.cache[day] = tip
	s.mu.Unlock()
	return tip
}

// FetchAsync запрашивает совет в фоне и передаёт его в fn.
// Вызывающий не ждёт генератор.
func (s *Service) FetchAsync(day int, fn func(tip string)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Паника при доставке совета")
			}
		}()
		fn(s.Tip(context.Background(), day))
	}()
}

// Prefetch прогревает кэш на день day (например, после смены суток).
func (s *Service) Prefetch(day int) {
	s.FetchAsync(day, func(string) {})
}

// Forget сбрасывает кэш. Вызывается при смене суток.
func (s *Service) Forget() {
	s.mu.Lock()
	s.cache = make(map[int]string)
	s.mu.Unlock()
}
