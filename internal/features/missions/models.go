// Package missions — экран миссий: список с прогрессом, получение наград,
// недельный бонус и источники прогресса (благодарности, покупки).
// models.go описывает результаты начисления прогресса.
package missions

import "serotonyl.ru/rewards-bot/internal/catalog"

// ProgressUpdate — изменение прогресса одной миссии.
type ProgressUpdate struct {
	Mission   catalog.Mission // Progress — уже новое значение
	Completed bool            // Миссия стала выполненной
}

// thanksKey — пара «кто благодарит → кого».
type thanksKey struct {
	from int64
	to   int64
}
