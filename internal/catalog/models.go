// Package catalog описывает статические каталоги: награды стрика, миссии,
// призы магазина и стартовые таблицы лидеров.
// models.go — структуры данных каталогов.
//
// Каталоги только читаются: движок экономики получает их при создании
// и никогда не меняет.
package catalog

// StreakKind — тип награды дня стрика.
type StreakKind string

const (
	StreakXP    StreakKind = "xp"    // Опыт
	StreakCoins StreakKind = "coins" // Монеты
	StreakMega  StreakKind = "mega"  // Большой приз 7-го дня
)

// StreakDay — награда за один день 7-дневного стрика.
type StreakDay struct {
	Day   int        `yaml:"day" toml:"day"`     // 1..7, уникален в каталоге
	Kind  StreakKind `yaml:"kind" toml:"kind"`   // xp | coins | mega
	Value int64      `yaml:"value" toml:"value"` // Величина награды (> 0)
}

// MissionCategory — категория миссии.
type MissionCategory string

const (
	MissionShopping MissionCategory = "shopping"
	MissionSocial   MissionCategory = "social"
	MissionDaily    MissionCategory = "daily"
)

// Mission — задание со счётчиком прогресса.
// Прогресс приходит извне (из магазина), движок его не считает.
type Mission struct {
	ID          string          `yaml:"id" toml:"id"`
	Title       string          `yaml:"title" toml:"title"`
	Description string          `yaml:"description" toml:"description"`
	RewardXP    int64           `yaml:"reward_xp" toml:"reward_xp"`
	RewardCoins int64           `yaml:"reward_coins" toml:"reward_coins"`
	Progress    int             `yaml:"progress" toml:"progress"`
	Total       int             `yaml:"total" toml:"total"`
	Category    MissionCategory `yaml:"category" toml:"category"`
}

// IsComplete возвращает true, если прогресс достиг цели.
func (m Mission) IsComplete() bool {
	return m.Progress >= m.Total
}

// RewardCategory — категория приза магазина.
type RewardCategory string

const (
	RewardDiscount RewardCategory = "discount"
	RewardShipping RewardCategory = "shipping"
	RewardPhysical RewardCategory = "physical"
)

// RewardItem — приз, который можно купить за монеты.
// Покупка не ограничена: можно брать сколько угодно раз, пока хватает монет.
type RewardItem struct {
	ID          string         `yaml:"id" toml:"id"`
	Title       string         `yaml:"title" toml:"title"`
	Description string         `yaml:"description" toml:"description"`
	Cost        int64          `yaml:"cost" toml:"cost"`
	Category    RewardCategory `yaml:"category" toml:"category"`
	Featured    bool           `yaml:"featured" toml:"featured"`
}

// LeaderEntry — строка стартовой таблицы лидеров.
type LeaderEntry struct {
	Name string `yaml:"name" toml:"name"`
	Tier string `yaml:"tier" toml:"tier"`
	XP   int64  `yaml:"xp" toml:"xp"`
}

// Leaderboards — стартовые таблицы (неделя и всё время).
type Leaderboards struct {
	Weekly  []LeaderEntry `yaml:"weekly" toml:"weekly"`
	AllTime []LeaderEntry `yaml:"all_time" toml:"all_time"`
}

// Catalog объединяет все каталоги приложения.
type Catalog struct {
	Streak       []StreakDay  `yaml:"streak" toml:"streak"`
	Missions     []Mission    `yaml:"missions" toml:"missions"`
	Rewards      []RewardItem `yaml:"rewards" toml:"rewards"`
	Leaderboards Leaderboards `yaml:"leaderboards" toml:"leaderboards"`
}

// StreakDay возвращает награду для дня day.
func (c *Catalog) StreakDay(day int) (StreakDay, bool) {
	for _, d := range c.Streak {
		if d.Day == day {
			return d, true
		}
	}
	return StreakDay{}, false
}

// Mission возвращает миссию по id.
func (c *Catalog) Mission(id string) (Mission, bool) {
	for _, m := range c.Missions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

// Reward возвращает приз магазина по id.
func (c *Catalog) Reward(id string) (RewardItem, bool) {
	for _, r := range c.Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return RewardItem{}, false
}

// LastStreakDay — номер последнего дня стрика (7 для стандартного каталога).
func (c *Catalog) LastStreakDay() int {
	last := 0
	for _, d := range c.Streak {
		if d.Day > last {
			last = d.Day
		}
	}
	return last
}
