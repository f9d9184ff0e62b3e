// Package members — repository.go хранит участников в памяти.
// Сессии живут только пока работает процесс.
package members

import (
	"sort"
	"strings"
	"sync"

	"serotonyl.ru/rewards-bot/internal/common"
)

// Repository — потокобезопасное хранилище участников.
type Repository struct {
	mu     sync.RWMutex
	byUser map[int64]*Member
}

// NewRepository создаёт пустое хранилище.
func NewRepository() *Repository {
	return &Repository{byUser: make(map[int64]*Member)}
}

// Create сохраняет участника. Если он уже есть — возвращает существующего.
func (r *Repository) Create(m *Member) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[m.UserID]; ok {
		return existing, false
	}
	r.byUser[m.UserID] = m
	return m, true
}

// GetByUserID возвращает участника по Telegram user ID.
func (r *Repository) GetByUserID(userID int64) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byUser[userID]
	if !ok {
		return nil, common.ErrMemberNotFound
	}
	return m, nil
}

// GetByUsername возвращает участника по @username (без @, без учёта регистра).
func (r *Repository) GetByUsername(username string) (*Member, error) {
	username = strings.TrimPrefix(username, "@")
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.byUser {
		if strings.EqualFold(m.Username, username) {
			return m, nil
		}
	}
	return nil, common.ErrMemberNotFound
}

// Exists проверяет, есть ли сессия у пользователя.
func (r *Repository) Exists(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// UpdateInfo обновляет данные Telegram участника.
// Запись заменяется копией: ранее выданные *Member не меняются.
func (r *Repository) UpdateInfo(userID int64, info UpdateInfo) (*Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byUser[userID]
	if !ok {
		return nil, common.ErrMemberNotFound
	}
	m := *old
	if info.ChatID != 0 {
		m.ChatID = info.ChatID
	}
	m.Username = info.Username
	m.FirstName = info.FirstName
	m.LastName = info.LastName
	r.byUser[userID] = &m
	return &m, nil
}

// Delete удаляет участника и возвращает его.
func (r *Repository) Delete(userID int64) (*Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byUser[userID]
	if ok {
		delete(r.byUser, userID)
	}
	return m, ok
}

// All возвращает всех участников в порядке открытия сессий.
func (r *Repository) All() []*Member {
	r.mu.RLock()
	out := make([]*Member, 0, len(r.byUser))
	for _, m := range r.byUser {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// Count — количество открытых сессий.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
