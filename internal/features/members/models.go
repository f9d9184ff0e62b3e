// Package members управляет участниками: у каждого пользователя своя сессия
// с движком экономики, созданная при первом обращении.
// models.go описывает структуры данных участника.
package members

import (
	"time"

	"serotonyl.ru/rewards-bot/internal/features/economy"
)

// Member — участник с открытой сессией.
// Все поля, кроме Engine, — данные Telegram на момент последнего обращения.
type Member struct {
	UserID    int64     // Telegram user ID (уникальный)
	ChatID    int64     // Чат для уведомлений (личка или группа)
	Username  string    // @username (может быть пустым)
	FirstName string    // Имя пользователя
	LastName  string    // Фамилия (может быть пустой)
	JoinedAt  time.Time // Когда открыта сессия

	Engine *economy.Engine // Движок экономики сессии
}

// UpdateInfo содержит данные для обновления информации о пользователе.
// Используется, когда имя или username изменились с прошлого обращения.
type UpdateInfo struct {
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name == "" {
		return "Участник"
	}
	return name
}
