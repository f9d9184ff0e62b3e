// Package main — консольный плейграунд: тот же роутер и те же сервисы,
// что у бота, но сообщения читаются из stdin, а ответы печатаются в stdout.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/rewards-bot/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "playground",
	Short: "Консольный плейграунд бота наград",
	Long: `Плейграунд запускает экономику без Telegram. Каждая строка stdin —
сообщение от текущего пользователя, ответы бота печатаются в stdout.
Конфигурация читается из тех же переменных окружения, что и у бота.`,
	SilenceUsage: true,
	RunE:         runREPL,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Уровень логов (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("catalog", "", "Путь к каталогу (.yaml или .toml), перекрывает CATALOG_PATH")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig читает окружение и применяет общие флаги.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := log.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		cfg.CatalogPath = path
	}
	return cfg, nil
}
