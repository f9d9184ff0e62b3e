// Package admin — панель оператора в личных сообщениях: список сессий,
// ручной прогресс миссий, смена дня стрика и закрытие сессий.
// Доступ — по списку ADMIN_USER_IDS.
// models.go описывает состояния диалога.
package admin

import "time"

// State — состояние диалога с оператором (конечный автомат).
// Действия идут по шагам: выбор действия → выбор участника → ввод данных.
type State struct {
	State     string    // Текущее состояние ("", "progress_select", ...)
	Data      any       // Данные контекста (список участников, выбранный участник)
	ExpiresAt time.Time // Когда состояние истекает (5 минут)
}

// Возможные состояния диалога
const (
	StateNone            = ""                 // Нет активного состояния
	StateProgressSelect  = "progress_select"  // Ждём номер участника
	StateProgressMission = "progress_mission" // Ждём "<id миссии> [n]"
	StateEndSelect       = "end_select"       // Ждём номер участника для закрытия
)

// stateTTL — сколько живёт незавершённый диалог.
const stateTTL = 5 * time.Minute

// Кнопки панели
const (
	ButtonSessions = "Сессии"
	ButtonProgress = "Прогресс миссии"
	ButtonRollover = "Следующий день"
	ButtonEnd      = "Закрыть сессию"
	ButtonCancel   = "Отмена"
)

// keyboard — раскладка панели.
var keyboard = [][]string{
	{ButtonSessions, ButtonRollover},
	{ButtonProgress, ButtonEnd},
	{ButtonCancel},
}
