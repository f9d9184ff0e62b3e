package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	require.Len(t, cat.Streak, 7)
	assert.Equal(t, 7, cat.LastStreakDay())

	d3, ok := cat.StreakDay(3)
	require.True(t, ok)
	assert.Equal(t, StreakXP, d3.Kind)
	assert.Equal(t, int64(40), d3.Value)

	d7, ok := cat.StreakDay(7)
	require.True(t, ok)
	assert.Equal(t, StreakMega, d7.Kind)

	m1, ok := cat.Mission("m1")
	require.True(t, ok)
	assert.True(t, m1.IsComplete())
	m2, _ := cat.Mission("m2")
	assert.False(t, m2.IsComplete())

	r1, ok := cat.Reward("r1")
	require.True(t, ok)
	assert.Equal(t, int64(500), r1.Cost)
	assert.True(t, r1.Featured)

	_, ok = cat.Reward("nope")
	assert.False(t, ok)

	assert.Len(t, cat.Leaderboards.Weekly, 5)
	assert.Len(t, cat.Leaderboards.AllTime, 5)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o600))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Missions, 4)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	streak := `
streak:
  - { day: 1, kind: xp, value: 20 }
  - { day: 2, kind: coins, value: 50 }
  - { day: 3, kind: xp, value: 40 }
  - { day: 4, kind: coins, value: 100 }
  - { day: 5, kind: xp, value: 60 }
  - { day: 6, kind: coins, value: 150 }
  - { day: 7, kind: mega, value: 500 }
`
	cases := map[string]string{
		"broken yaml":    "streak: [",
		"short streak":   "streak:\n  - { day: 1, kind: xp, value: 20 }\n",
		"duplicate day":  strings.Replace(streak, "day: 2", "day: 1", 1),
		"unknown kind":   strings.Replace(streak, "kind: mega", "kind: gems", 1),
		"zero value":     strings.Replace(streak, "value: 60", "value: 0", 1),
		"mission dup":    streak + "missions:\n  - { id: a, total: 1 }\n  - { id: a, total: 1 }\n",
		"mission total":  streak + "missions:\n  - { id: a, total: 0 }\n",
		"reward no cost": streak + "rewards:\n  - { id: r, cost: 0 }\n",
		"reward no id":   streak + "rewards:\n  - { cost: 10 }\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte(streak))
	assert.NoError(t, err)
}

func TestLoad_TOML(t *testing.T) {
	var sb strings.Builder
	kinds := []string{"xp", "coins", "xp", "coins", "xp", "coins", "mega"}
	for i, k := range kinds {
		sb.WriteString("[[streak]]\n")
		sb.WriteString("day = " + string(rune('1'+i)) + "\n")
		sb.WriteString("kind = \"" + k + "\"\n")
		sb.WriteString("value = 10\n\n")
	}
	sb.WriteString("[[rewards]]\nid = \"r1\"\ntitle = \"Промокод\"\ncost = 500\ncategory = \"discount\"\nfeatured = true\n\n")
	sb.WriteString("[leaderboards]\n[[leaderboards.weekly]]\nname = \"Сара\"\ntier = \"silver\"\nxp = 2300\n")

	path := filepath.Join(t.TempDir(), "catalog.toml")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))

	cat, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Streak, 7)
	d7, _ := cat.StreakDay(7)
	assert.Equal(t, StreakMega, d7.Kind)
	r1, ok := cat.Reward("r1")
	require.True(t, ok)
	assert.True(t, r1.Featured)
	require.Len(t, cat.Leaderboards.Weekly, 1)
	assert.Equal(t, int64(2300), cat.Leaderboards.Weekly[0].XP)
}

func TestParseTOML_Invalid(t *testing.T) {
	_, err := ParseTOML([]byte("streak = ["))
	assert.Error(t, err)
	_, err = ParseTOML([]byte("[[streak]]\nday = 1\nkind = \"xp\"\nvalue = 1\n"))
	assert.Error(t, err)
}
