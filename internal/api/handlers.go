// Package api — handlers.go: маршруты и обработчики JSON API.
//
// Маршруты (все под /api/v1):
//
//	GET  /catalog/rewards                         — призы магазина
//	GET  /users/{userID}/profile                  — профиль и день стрика
//	GET  /users/{userID}/history?limit=N          — журнал операций
//	GET  /users/{userID}/streak                   — доска 7 дней
//	GET  /users/{userID}/missions                 — миссии и недельный бонус
//	GET  /users/{userID}/rewards                  — призы с учётом баланса
//	GET  /users/{userID}/leaderboard?period=...   — таблица лидеров
//	POST /users/{userID}/missions/{missionID}/progress — прогресс миссии извне
//
// API только читает сессии: новые сессии открывает бот.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/leaderboard"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

// Prefix — корень маршрутов API.
const Prefix = "/api/v1"

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Handler обслуживает JSON API.
type Handler struct {
	cat     *catalog.Catalog
	members *members.Service
	board   *leaderboard.Service
	auth    *Auth
	origins []string
}

// NewHandler создаёт обработчик API. origins — разрешённые источники CORS.
func NewHandler(cat *catalog.Catalog, memberService *members.Service, board *leaderboard.Service, auth *Auth, origins []string) *Handler {
	return &Handler{
		cat:     cat,
		members: memberService,
		board:   board,
		auth:    auth,
		origins: origins,
	}
}

// Routes возвращает роутер API (монтируется под Prefix).
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/catalog/rewards", h.ListRewards)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(h.memberCtx)
			r.Get("/profile", h.GetProfile)
			r.Get("/history", h.GetHistory)
			r.Get("/streak", h.GetStreak)
			r.Get("/missions", h.GetMissions)
			r.Post("/missions/{missionID}/progress", h.AddProgress)
			r.Get("/rewards", h.GetRewards)
			r.Get("/leaderboard", h.GetLeaderboard)
		})
	})

	return r
}

type memberKey struct{}

// memberCtx находит сессию участника из URL и проверяет доступ токена к ней.
func (h *Handler) memberCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("некорректный userID"))
			return
		}
		if h.auth.Enabled() {
			if claims := ClaimsFrom(r.Context()); claims == nil || !claims.CanAccess(userID) {
				writeError(w, http.StatusForbidden, errors.New("нет доступа к этому участнику"))
				return
			}
		}
		m, err := h.members.Get(userID)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), memberKey{}, m)))
	})
}

func memberFrom(r *http.Request) *members.Member {
	return r.Context().Value(memberKey{}).(*members.Member)
}

// ListRewards — каталог призов без привязки к участнику.
func (h *Handler) ListRewards(w http.ResponseWriter, _ *http.Request) {
	out := make([]RewardDTO, 0, len(h.cat.Rewards))
	for _, item := range h.cat.Rewards {
		d := rewardDTO(item, 0)
		d.Affordable, d.Shortfall = false, 0
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, profileDTO(memberFrom(r).Engine.Snapshot()))
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit должен быть положительным числом"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	events := memberFrom(r).Engine.History(limit)
	out := make([]EventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventDTO(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	eng := memberFrom(r).Engine
	slots := eng.StreakBoard()
	out := StreakDTO{
		CurrentDay:     eng.CurrentDay(),
		CurrentClaimed: eng.CurrentDayClaimed(),
		Days:           make([]StreakSlotDTO, 0, len(slots)),
	}
	for _, s := range slots {
		out.Days = append(out.Days, StreakSlotDTO{Day: s.Day, Kind: string(s.Kind), Value: s.Value, State: string(s.State)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetMissions(w http.ResponseWriter, r *http.Request) {
	eng := memberFrom(r).Engine
	st := eng.Snapshot()
	rules := eng.Rules()

	board := eng.MissionBoard()
	out := MissionsDTO{
		Missions:             make([]MissionDTO, 0, len(board)),
		Claimed:              len(st.ClaimedMissions),
		WeeklyThreshold:      rules.WeeklyThreshold,
		WeeklyBonus:          rules.WeeklyBonus,
		WeeklyBonusClaimed:   st.WeeklyBonusClaimed,
		WeeklyBonusAvailable: st.WeeklyBonusAvailable(rules.WeeklyThreshold),
	}
	for _, m := range board {
		out.Missions = append(out.Missions, missionDTO(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// AddProgress засчитывает прогресс миссии из внешнего события (например, покупки).
func (h *Handler) AddProgress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("некорректное тело запроса"))
		return
	}

	missionID := chi.URLParam(r, "missionID")
	eng := memberFrom(r).Engine
	progress, err := eng.AddMissionProgress(missionID, req.Amount)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}

	out := ProgressDTO{Mission: missionID, Progress: progress}
	for _, m := range eng.MissionBoard() {
		if m.ID == missionID {
			out.Total = m.Total
			out.State = string(m.State)
		}
	}
	log.WithFields(log.Fields{
		"user_id":  memberFrom(r).UserID,
		"mission":  missionID,
		"progress": progress,
	}).Info("API: прогресс миссии")
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetRewards(w http.ResponseWriter, r *http.Request) {
	coins := memberFrom(r).Engine.Balance().Coins
	out := make([]RewardDTO, 0, len(h.cat.Rewards))
	for _, item := range h.cat.Rewards {
		out = append(out, rewardDTO(item, coins))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	period, ok := leaderboard.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("period: weekly или all_time"))
		return
	}

	b := h.board.Board(period, memberFrom(r).Engine)
	out := LeaderboardDTO{
		Period:   string(b.Period),
		Entries:  make([]EntryDTO, 0, len(b.Entries)),
		You:      entryDTO(b.You),
		GapToTop: b.GapToTop(),
	}
	for _, e := range b.Entries {
		out.Entries = append(out.Entries, entryDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// statusOf переводит ошибку движка в HTTP-статус.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrMissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrEngineClosed):
		return http.StatusGone
	case common.IsRejection(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Ошибка записи JSON")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

