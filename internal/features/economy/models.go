// Package economy — движок экономики: баланс XP и монет, журнал событий,
// стрик, колесо удачи, миссии и магазин призов.
// models.go — структуры данных движка.
package economy

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
)

// Tier — уровень участника программы лояльности.
type Tier string

const (
	TierBronze  Tier = "bronze"
	TierSilver  Tier = "silver"
	TierGold    Tier = "gold"
	TierDiamond Tier = "diamond"
)

// Title возвращает название уровня по-русски.
func (t Tier) Title() string {
	switch t {
	case TierBronze:
		return "бронза"
	case TierSilver:
		return "серебро"
	case TierGold:
		return "золото"
	case TierDiamond:
		return "бриллиант"
	default:
		return string(t)
	}
}

// XPPerLevel — сколько опыта нужно на один уровень.
const XPPerLevel = 500

// Profile — профиль пользователя на время сессии.
// XP и Coins меняет только движок; Rank и Tier задаются снаружи.
type Profile struct {
	ID    string
	Name  string
	XP    int64
	Coins int64
	Rank  int
	Tier  Tier
}

// Level — грубый уровень по опыту: XP / 500.
func (p Profile) Level() int64 {
	return p.XP / XPPerLevel
}

// Balance — пара XP/монеты. Используется и как баланс, и как дельта.
type Balance struct {
	XP    int64
	Coins int64
}

// EventKind — тип записи журнала.
type EventKind string

const (
	KindEarn  EventKind = "earn"
	KindSpend EventKind = "spend"
	// KindReward встречается только в начальной истории (WithHistory):
	// операции движка пишут earn или spend.
	KindReward EventKind = "reward"
)

// Unit — единица суммы в записи журнала.
type Unit string

const (
	UnitXP    Unit = "xp"
	UnitCoins Unit = "coins"
)

// Operation — имя операции движка (для журнала, метрик и подписчиков).
type Operation string

const (
	OpStreakClaim     Operation = "streak_claim"
	OpStreakAdvance   Operation = "streak_advance"
	OpSpinStart       Operation = "spin_start"
	OpSpinSettle      Operation = "spin_settle"
	OpMissionClaim    Operation = "mission_claim"
	OpMissionProgress Operation = "mission_progress"
	OpWeeklyBonus     Operation = "weekly_bonus"
	OpRedeem          Operation = "redeem"
	OpSeed            Operation = "seed"
)

// HistoryEvent — запись журнала. Создаётся один раз при успешной операции
// и больше не меняется.
type HistoryEvent struct {
	ID         uuid.UUID // UUID v7, упорядочен по времени создания
	Seq        uint64    // Порядковый номер внутри движка
	Kind       EventKind
	Title      string
	Subtitle   string
	Amount     int64 // Знаковая сумма для отображения
	Unit       Unit
	Delta      Balance // Что реально применено к балансу
	Source     Operation
	OccurredAt time.Time
}

// Label возвращает подпись суммы: "+40 XP", "-500 монет".
func (e HistoryEvent) Label() string {
	if e.Unit == UnitXP {
		return common.FormatSignedXP(e.Amount)
	}
	return common.FormatSignedCoins(e.Amount)
}

// SlotState — состояние дня стрика.
type SlotState string

const (
	SlotClaimed   SlotState = "claimed"   // Награда получена
	SlotCurrent   SlotState = "current"   // Сегодня, можно забрать
	SlotFuture    SlotState = "future"    // Ещё не наступил
	SlotUnclaimed SlotState = "unclaimed" // Прошёл без получения
)

// StreakSlot — день стрика с вычисленным состоянием.
type StreakSlot struct {
	catalog.StreakDay
	State SlotState
}

// StreakClaim — результат получения награды дня стрика.
type StreakClaim struct {
	Day    int
	Kind   catalog.StreakKind
	Reward Balance // Начисленная дельта
	Event  HistoryEvent
}

// Mega — true для большого приза 7-го дня.
func (c StreakClaim) Mega() bool {
	return c.Kind == catalog.StreakMega
}

// MissionState — состояние миссии.
type MissionState string

const (
	MissionLocked    MissionState = "locked"
	MissionClaimable MissionState = "claimable"
	MissionClaimed   MissionState = "claimed"
)

// MissionSlot — миссия с текущим прогрессом и состоянием.
type MissionSlot struct {
	catalog.Mission
	State MissionState
}

// MissionClaim — результат получения награды за миссию.
type MissionClaim struct {
	Mission catalog.Mission
	Reward  Balance
	Event   HistoryEvent
	// WeeklyBonusReady — после этой миссии стал доступен недельный бонус.
	WeeklyBonusReady bool
}

// Redemption — результат покупки приза.
type Redemption struct {
	Item    catalog.RewardItem
	Event   HistoryEvent
	Balance Balance // Баланс после покупки
}

// State — снимок состояния движка. Безопасен для чтения без блокировок.
type State struct {
	Profile            Profile
	History            []HistoryEvent // Новые сначала
	CurrentDay         int
	ClaimedDays        []int    // По возрастанию
	ClaimedMissions    []string // В порядке получения
	WeeklyBonusClaimed bool
	SpinInProgress     bool
}

// Balance возвращает баланс из снимка.
func (s State) Balance() Balance {
	return Balance{XP: s.Profile.XP, Coins: s.Profile.Coins}
}

// WeeklyBonusAvailable — можно ли забрать недельный бонус.
func (s State) WeeklyBonusAvailable(threshold int) bool {
	return !s.WeeklyBonusClaimed && len(s.ClaimedMissions) >= threshold
}

// Change — уведомление подписчика об исходе операции.
// Err != nil — операция отклонена, состояние не менялось.
type Change struct {
	Op      Operation
	Err     error
	Event   *HistoryEvent // Новая запись журнала, если есть
	Balance Balance       // Баланс после операции
	Day     int           // Текущий день стрика после операции
}
