package missions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/rewards-bot/internal/catalog"
	"serotonyl.ru/rewards-bot/internal/common"
	"serotonyl.ru/rewards-bot/internal/features/economy"
	"serotonyl.ru/rewards-bot/internal/features/members"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingSender) Send(_ int64, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, text)
}

func (r *recordingSender) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

// newCatalog — встроенный каталог, где социальная миссия m3 требует 2 благодарности.
func newCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	for i := range cat.Missions {
		if cat.Missions[i].ID == "m3" {
			cat.Missions[i].Progress = 0
			cat.Missions[i].Total = 2
		}
	}
	return cat
}

func newMember(t *testing.T, cat *catalog.Catalog, userID int64, name string) *members.Member {
	t.Helper()
	eng, err := economy.NewEngine(cat, economy.DefaultProfile("u", name), economy.DefaultRules())
	require.NoError(t, err)
	t.Cleanup(eng.Close)
	return &members.Member{UserID: userID, ChatID: userID, FirstName: name, Engine: eng}
}

func TestIsThankYou(t *testing.T) {
	assert.True(t, IsThankYou("Спасибо!"))
	assert.True(t, IsThankYou("  спс)) "))
	assert.True(t, IsThankYou("Благодарю."))
	assert.False(t, IsThankYou("спасибо, но нет"))
	assert.False(t, IsThankYou(""))
}

func TestService_Progress(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	m := newMember(t, cat, 1, "Амир")
	svc := NewService(time.UTC)

	updates := svc.Progress(m.Engine, catalog.MissionShopping, 1)
	require.Len(t, updates, 2)
	assert.Equal(t, "m2", updates[0].Mission.ID)
	assert.True(t, updates[0].Completed)
	assert.Equal(t, "m4", updates[1].Mission.ID)

	// Выполненные миссии больше не получают прогресс
	assert.Empty(t, svc.Progress(m.Engine, catalog.MissionShopping, 1))
	// m1 уже выполнена в каталоге
	assert.Empty(t, svc.Progress(m.Engine, catalog.MissionDaily, 1))
}

func TestService_GiveThanks(t *testing.T) {
	cat := newCatalog(t)
	amir := newMember(t, cat, 1, "Амир")
	sara := newMember(t, cat, 2, "Сара")
	leyla := newMember(t, cat, 3, "Лейла")

	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.GiveThanks(amir, amir)
	assert.ErrorIs(t, err, common.ErrThanksSelf)

	updates, err := svc.GiveThanks(amir, sara)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, updates[0].Mission.Progress)
	assert.False(t, updates[0].Completed)

	_, err = svc.GiveThanks(amir, sara)
	assert.ErrorIs(t, err, common.ErrThanksAlreadyGiven)

	updates, err = svc.GiveThanks(leyla, sara)
	require.NoError(t, err)
	assert.True(t, updates[0].Completed)

	// На следующий день та же пара снова может благодарить
	now = now.Add(24 * time.Hour)
	updates, err = svc.GiveThanks(amir, sara)
	require.NoError(t, err)
	assert.Empty(t, updates, "миссия уже выполнена")
}

func TestHandlers_MissionFlow(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	m := newMember(t, cat, 1, "Амир")
	sender := &recordingSender{}
	svc := NewService(time.UTC)
	h := NewHandler(svc, sender)
	ctx := context.Background()

	h.HandleMissions(ctx, 1, m.Engine)
	text := sender.last()
	assert.Contains(t, text, "🎁 Ежедневный вход — +20 XP → !миссия m1")
	assert.Contains(t, text, "⏳ Покупка во фруктовой лавке — 0/1 • +50 XP")
	assert.Contains(t, text, "0/3 миссии")

	h.HandleClaim(ctx, 1, m.Engine, "")
	assert.Contains(t, sender.last(), "Использование")

	h.HandleClaim(ctx, 1, m.Engine, "m2")
	assert.Contains(t, sender.last(), "не выполнена")

	h.HandleClaim(ctx, 1, m.Engine, "m9")
	assert.Contains(t, sender.last(), "Такой миссии нет")

	h.HandleWeeklyBonus(ctx, 1, m.Engine)
	assert.Contains(t, sender.last(), "недоступен")

	h.HandleClaim(ctx, 1, m.Engine, "m1")
	assert.Contains(t, sender.last(), "«Ежедневный вход» выполнена: +20 XP")
	h.HandleClaim(ctx, 1, m.Engine, "m3")
	svc.Progress(m.Engine, catalog.MissionShopping, 1)
	h.HandleClaim(ctx, 1, m.Engine, "m2")
	assert.Contains(t, sender.last(), "Доступен недельный бонус")

	h.HandleMissions(ctx, 1, m.Engine)
	assert.Contains(t, sender.last(), "доступен: 500 монет → !бонус")

	h.HandleWeeklyBonus(ctx, 1, m.Engine)
	assert.Contains(t, sender.last(), "+500 монет")
	assert.Contains(t, sender.last(), "2 950 монет")

	h.HandleMissions(ctx, 1, m.Engine)
	assert.Contains(t, sender.last(), "🏆 Недельный бонус получен")
}

func TestHandleThankYou(t *testing.T) {
	cat := newCatalog(t)
	amir := newMember(t, cat, 1, "Амир")
	sara := newMember(t, cat, 2, "Сара")
	sender := &recordingSender{}
	h := NewHandler(NewService(time.UTC), sender)
	ctx := context.Background()

	h.HandleThankYou(ctx, 100, amir, sara)
	assert.Contains(t, sender.last(), "🤝 Сара получает +1")
	assert.Contains(t, sender.last(), "1/2")

	// Повтор — молча
	h.HandleThankYou(ctx, 100, amir, sara)
	assert.Equal(t, 1, sender.count())
}
