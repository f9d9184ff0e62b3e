// Package api — JSON API для витрины: профиль, стрик, миссии, магазин, лидеры.
// auth.go выпускает и проверяет JWT (HS256).
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const issuer = "rewards-bot"

// Роли токенов.
const (
	RoleUser    = "user"    // Видит только свои данные
	RoleService = "service" // Внешний сервис (магазин): доступ ко всем участникам
)

var (
	ErrNoToken      = errors.New("нет токена")
	ErrInvalidToken = errors.New("некорректный токен")
)

// Claims — содержимое токена. Subject — Telegram user ID или имя сервиса.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CanAccess — можно ли этим токеном читать и менять данные участника userID.
func (c *Claims) CanAccess(userID int64) bool {
	if c.Role == RoleService {
		return true
	}
	return c.Role == RoleUser && c.Subject == strconv.FormatInt(userID, 10)
}

// Auth выпускает и проверяет токены.
// С пустым секретом авторизация выключена: API открыт всем.
type Auth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuth создаёт Auth. ttl — срок жизни пользовательских токенов.
func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled — включена ли проверка токенов.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0
}

// IssueUser выпускает токен участника.
func (a *Auth) IssueUser(userID int64) (string, time.Time, error) {
	return a.issue(RoleUser, strconv.FormatInt(userID, 10), a.ttl)
}

// IssueService выпускает токен сервиса. ttl == 0 — бессрочный.
func (a *Auth) IssueService(name string, ttl time.Duration) (string, time.Time, error) {
	return a.issue(RoleService, name, ttl)
}

func (a *Auth) issue(role, subject string, ttl time.Duration) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, errors.New("API_JWT_SECRET не задан")
	}
	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse проверяет подпись, издателя и срок токена.
func (a *Auth) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	switch claims.Role {
	case RoleUser, RoleService:
	default:
		return nil, fmt.Errorf("%w: неизвестная роль %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

type claimsKey struct{}

// ClaimsFrom возвращает claims из контекста запроса (nil без авторизации).
func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// Middleware требует заголовок "Authorization: Bearer <token>".
// С выключенной авторизацией пропускает всё.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, ErrNoToken)
			return
		}
		claims, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			log.WithError(err).Debug("API: токен отклонён")
			writeError(w, http.StatusUnauthorized, ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}
