// Package catalog — catalog.go загружает каталог из YAML или TOML и проверяет его.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default возвращает встроенный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load читает каталог из файла path. Формат — по расширению: .toml или YAML.
// Пустой path — встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		log.Debug("Каталог: используется встроенный")
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	parse := Parse
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parse = ParseTOML
	}
	cat, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path":     path,
		"missions": len(cat.Missions),
		"rewards":  len(cat.Rewards),
	}).Info("Каталог загружен")
	return cat, nil
}

// Parse разбирает YAML и валидирует результат.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ParseTOML разбирает TOML и валидирует результат.
func ParseTOML(data []byte) (*Catalog, error) {
	var cat Catalog
	if _, err := toml.Decode(string(data), &cat); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate проверяет целостность каталога.
func (c *Catalog) Validate() error {
	if len(c.Streak) != 7 {
		return fmt.Errorf("streak: ожидается 7 дней, получено %d", len(c.Streak))
	}
	seenDays := make(map[int]bool, len(c.Streak))
	for _, d := range c.Streak {
		if d.Day < 1 || d.Day > 7 {
			return fmt.Errorf("streak: день %d вне диапазона 1..7", d.Day)
		}
		if seenDays[d.Day] {
			return fmt.Errorf("streak: день %d повторяется", d.Day)
		}
		seenDays[d.Day] = true

		switch d.Kind {
		case StreakXP, StreakCoins, StreakMega:
		default:
			return fmt.Errorf("streak: день %d: неизвестный тип %q", d.Day, d.Kind)
		}
		if d.Value <= 0 {
			return fmt.Errorf("streak: день %d: награда должна быть > 0", d.Day)
		}
	}

	seenMissions := make(map[string]bool, len(c.Missions))
	for _, m := range c.Missions {
		if m.ID == "" {
			return fmt.Errorf("missions: пустой id")
		}
		if seenMissions[m.ID] {
			return fmt.Errorf("missions: id %q повторяется", m.ID)
		}
		seenMissions[m.ID] = true

		if m.Total <= 0 || m.Progress < 0 {
			return fmt.Errorf("missions: %s: некорректный прогресс %d/%d", m.ID, m.Progress, m.Total)
		}
		if m.RewardXP < 0 || m.RewardCoins < 0 {
			return fmt.Errorf("missions: %s: отрицательная награда", m.ID)
		}
	}

	seenRewards := make(map[string]bool, len(c.Rewards))
	for _, r := range c.Rewards {
		if r.ID == "" {
			return fmt.Errorf("rewards: пустой id")
		}
		if seenRewards[r.ID] {
			return fmt.Errorf("rewards: id %q повторяется", r.ID)
		}
		seenRewards[r.ID] = true

		if r.Cost <= 0 {
			return fmt.Errorf("rewards: %s: цена должна быть > 0", r.ID)
		}
	}

	return nil
}
