// Package api — dto.go описывает JSON-ответы.
package api

import (
	"time"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/leaderboard"
)

type ProfileDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	XP             int64  `json:"xp"`
	Coins          int64  `json:"coins"`
	Level          int64  `json:"level"`
	Rank           int    `json:"rank"`
	Tier           string `json:"tier"`
	TierTitle      string `json:"tier_title"`
	StreakDay      int    `json:"streak_day"`
	SpinInProgress bool   `json:"spin_in_progress"`
}

type EventDTO struct {
	ID         string    `json:"id"`
	Seq        uint64    `json:"seq"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle"`
	Amount     int64     `json:"amount"`
	Unit       string    `json:"unit"`
	Label      string    `json:"label"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

type StreakSlotDTO struct {
	Day   int    `json:"day"`
	Kind  string `json:"kind"`
	Value int64  `json:"value"`
	State string `json:"state"`
}

type StreakDTO struct {
	CurrentDay     int             `json:"current_day"`
	CurrentClaimed bool            `json:"current_claimed"`
	Days           []StreakSlotDTO `json:"days"`
}

type MissionDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RewardXP    int64  `json:"reward_xp"`
	RewardCoins int64  `json:"reward_coins"`
	Progress    int    `json:"progress"`
	Total       int    `json:"total"`
	Category    string `json:"category"`
	State       string `json:"state"`
}

type MissionsDTO struct {
	Missions             []MissionDTO `json:"missions"`
	Claimed              int          `json:"claimed"`
	WeeklyThreshold      int          `json:"weekly_threshold"`
	WeeklyBonus          int64        `json:"weekly_bonus"`
	WeeklyBonusClaimed   bool         `json:"weekly_bonus_claimed"`
	WeeklyBonusAvailable bool         `json:"weekly_bonus_available"`
}

type RewardDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Category    string `json:"category"`
	Featured    bool   `json:"featured"`
	Affordable  bool   `json:"affordable"`
	Shortfall   int64  `json:"shortfall"`
}

type EntryDTO struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	Tier string `json:"tier"`
	XP   int64  `json:"xp"`
	You  bool   `json:"you"`
	Live bool   `json:"live"`
}

type LeaderboardDTO struct {
	Period   string     `json:"period"`
	Entries  []EntryDTO `json:"entries"`
	You      EntryDTO   `json:"you"`
	GapToTop int64      `json:"gap_to_top"`
}

// ProgressRequest — тело POST .../missions/{missionID}/progress.
type ProgressRequest struct {
	Amount int `json:"amount"`
}

type ProgressDTO struct {
	Mission  string `json:"mission"`
	Progress int    `json:"progress"`
	Total    int    `json:"total"`
	State    string `json:"state"`
}

func profileDTO(st economy.State) ProfileDTO {
	p := st.Profile
	return ProfileDTO{
		ID:             p.ID,
		Name:           p.Name,
		XP:             p.XP,
		Coins:          p.Coins,
		Level:          p.Level(),
		Rank:           p.Rank,
		Tier:           string(p.Tier),
		TierTitle:      p.Tier.Title(),
		StreakDay:      st.CurrentDay,
		SpinInProgress: st.SpinInProgress,
	}
}

func eventDTO(ev economy.HistoryEvent) EventDTO {
	return EventDTO{
		ID:         ev.ID.String(),
		Seq:        ev.Seq,
		Kind:       string(ev.Kind),
		Title:      ev.Title,
		Subtitle:   ev.Subtitle,
		Amount:     ev.Amount,
		Unit:       string(ev.Unit),
		Label:      ev.Label(),
		Source:     string(ev.Source),
		OccurredAt: ev.OccurredAt,
	}
}

func missionDTO(m economy.MissionSlot) MissionDTO {
	return MissionDTO{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		RewardXP:    m.RewardXP,
		RewardCoins: m.RewardCoins,
		Progress:    m.Progress,
		Total:       m.Total,
		Category:    string(m.Category),
		State:       string(m.State),
	}
}

func rewardDTO(item catalog.RewardItem, coins int64) RewardDTO {
	return RewardDTO{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Cost:        item.Cost,
		Category:    string(item.Category),
		Featured:    item.Featured,
		Affordable:  coins >= item.Cost,
		Shortfall:   max(0, item.Cost-coins),
	}
}

func entryDTO(e leaderboard.Entry) EntryDTO {
	return EntryDTO{
		Rank: e.Rank,
		Name: e.Name,
		Tier: string(e.Tier),
		XP:   e.XP,
		You:  e.You,
		Live: e.Live,
	}
}
