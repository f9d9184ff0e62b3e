// Package members — service.go открывает и закрывает сессии участников.
// Сессия создаётся при первом обращении пользователя и живёт до остановки бота
// или явного завершения.
package members

import (
	"context"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/features/economy"
)

// Service управляет сессиями участников.
type Service struct {
	repo       *Repository
	cat        *catalog.Catalog
	rules      economy.Rules
	profile    economy.Profile // Шаблон стартового профиля
	engineOpts []economy.Option
	now        func() time.Time

	onStart []func(*Member)
	onEnd   []func(*Member)
}

// NewService создаёт сервис участников.
// profile — шаблон стартового профиля: ID и Name подставляются для каждого участника.
func NewService(repo *Repository, cat *catalog.Catalog, rules economy.Rules, profile economy.Profile, opts ...economy.Option) *Service {
	return &Service{
		repo:       repo,
		cat:        cat,
		rules:      rules,
		profile:    profile,
		engineOpts: opts,
		now:        time.Now,
	}
}

// OnSessionStart регистрирует хук, вызываемый для каждой новой сессии.
// Регистрировать хуки нужно до первого обращения пользователей.
func (s *Service) OnSessionStart(fn func(*Member)) {
	s.onStart = append(s.onStart, fn)
}

// OnSessionEnd регистрирует хук, вызываемый после закрытия сессии.
func (s *Service) OnSessionEnd(fn func(*Member)) {
	s.onEnd = append(s.onEnd, fn)
}

// EnsureMember возвращает сессию пользователя, создавая её при первом обращении.
// Если пользователь сменил имя или username — данные обновляются.
func (s *Service) EnsureMember(ctx context.Context, userID int64, info UpdateInfo) (*Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByUserID(userID); err == nil {
		if existing.Username == info.Username && existing.FirstName == info.FirstName &&
			existing.LastName == info.LastName && (info.ChatID == 0 || existing.ChatID == info.ChatID) {
			return existing, nil
		}
		return s.repo.UpdateInfo(userID, info)
	}

	member := &Member{
		UserID:    userID,
		ChatID:    info.ChatID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
		JoinedAt:  s.now(),
	}

	profile := s.profile
	profile.ID = strconv.FormatInt(userID, 10)
	profile.Name = member.DisplayName()

	engine, err := economy.NewEngine(s.cat, profile, s.rules, s.engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии %d: %w", userID, err)
	}
	member.Engine = engine

	stored, created := s.repo.Create(member)
	if !created {
		// Параллельное первое обращение: сессию уже открыли
		engine.Close()
		return stored, nil
	}

	for _, fn := range s.onStart {
		fn(member)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": info.Username,
	}).Info("Открыта новая сессия")

	return member, nil
}

// Get возвращает участника по Telegram user ID.
func (s *Service) Get(userID int64) (*Member, error) {
	return s.repo.GetByUserID(userID)
}

// GetByUsername возвращает участника по @username.
func (s *Service) GetByUsername(username string) (*Member, error) {
	return s.repo.GetByUsername(username)
}

// ForEach вызывает fn для каждой открытой сессии в порядке открытия.
func (s *Service) ForEach(fn func(*Member)) {
	for _, m := range s.repo.All() {
		fn(m)
	}
}

// Count — количество открытых сессий.
func (s *Service) Count() int {
	return s.repo.Count()
}

// End закрывает сессию пользователя. Незавершённое вращение колеса засчитывается.
func (s *Service) End(userID int64) bool {
	m, ok := s.repo.Delete(userID)
	if !ok {
		return false
	}
	m.Engine.Close()
	for _, fn := range s.onEnd {
		fn(m)
	}

	log.WithField("user_id", userID).Info("Сессия закрыта")
	return true
}

// CloseAll закрывает все сессии. Вызывается при остановке приложения.
func (s *Service) CloseAll() {
	members := s.repo.All()
	for _, m := range members {
		s.End(m.UserID)
	}
	log.WithField("count", len(members)).Info("Все сессии закрыты")
}

// HasSession — есть ли у пользователя открытая сессия.
func (s *Service) HasSession(userID int64) bool {
	return s.repo.Exists(userID)
}
