// Package wheel — экран колеса удачи: запуск вращения, уведомление о выигрыше
// и статистика вращений.
// models.go описывает сектора колеса.
package wheel

import "math/rand/v2"

// Segment — сектор колеса. Сектора только для красоты:
// выигрыш не зависит от того, где остановилась стрелка.
type Segment struct {
	Emoji string
	Name  string
}

// DefaultSegments — 8 секторов по 45°.
var DefaultSegments = []Segment{
	{Emoji: "🟠", Name: "Orange"},
	{Emoji: "🔵", Name: "Blue"},
	{Emoji: "🟣", Name: "Violet"},
	{Emoji: "🟢", Name: "Emerald"},
	{Emoji: "🟡", Name: "Amber"},
	{Emoji: "💗", Name: "Pink"},
	{Emoji: "🔷", Name: "Indigo"},
	{Emoji: "⚪", Name: "Slate"},
}

// fullTurns — сколько полных оборотов делает колесо перед остановкой.
const fullTurns = 6

// Rotation — итоговый поворот колеса в градусах.
type Rotation int

// Spin возвращает новый поворот: prev + 6 оборотов + случайный угол.
func (r Rotation) Spin(rng *rand.Rand) Rotation {
	return r + Rotation(360*fullTurns+rng.IntN(360))
}

// Segment возвращает сектор под стрелкой.
func (r Rotation) Segment(segments []Segment) Segment {
	if len(segments) == 0 {
		return Segment{}
	}
	deg := int(r) % 360
	if deg < 0 {
		deg += 360
	}
	// Колесо крутится по часовой стрелке, стрелка стоит сверху
	pointer := (360 - deg) % 360
	return segments[pointer*len(segments)/360]
}
