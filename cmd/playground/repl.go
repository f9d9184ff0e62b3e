package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"serotonyl.ru/rewards-bot/internal/app"
	"serotonyl.ru/rewards-bot/internal/bot"
)

func init() {
	rootCmd.Flags().Int64("user", 1, "ID пользователя, от имени которого пишем")
	rootCmd.Flags().String("name", "Игрок", "Имя пользователя")
	rootCmd.Flags().Duration("spin-delay", 0, "Задержка колеса (0 — из WHEEL_SPIN_DELAY)")
}

const replHelp = `Служебные команды плейграунда:
  :as <id> [имя]       — писать от другого пользователя
  :reply <id> <текст>  — ответить на сообщение пользователя id
  :rollover            — сменить день стрика у всех сессий
  :remind              — разослать напоминания
  :quit                — выход
Остальные строки уходят боту как сообщения (например, !помощь).`

// console печатает ответы бота. Безопасен для параллельных вызовов:
// результат колеса приходит из другой горутины.
type console struct {
	mu  sync.Mutex
	out io.Writer
}

func (c *console) Send(chatID int64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "── бот → %d ──\n%s\n\n", chatID, text)
}

func (c *console) SendKeyboard(chatID int64, text string, rows [][]string) {
	var sb strings.Builder
	sb.WriteString(text)
	for _, row := range rows {
		sb.WriteString("\n[ " + strings.Join(row, " | ") + " ]")
	}
	c.Send(chatID, sb.String())
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetDuration("spin-delay"); d > 0 {
		cfg.WheelSpinDelay = d
	}

	out := &console{out: cmd.OutOrStdout()}
	a, err := app.New(cfg, out)
	if err != nil {
		return err
	}
	defer a.Close()

	userID, _ := cmd.Flags().GetInt64("user")
	name, _ := cmd.Flags().GetString("name")
	current := bot.User{ID: userID, FirstName: name}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintln(cmd.OutOrStdout(), replHelp)
	fmt.Fprintln(cmd.OutOrStdout())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ":") {
			a.Router.Dispatch(ctx, bot.Incoming{ChatID: current.ID, Private: true, From: current, Text: line})
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case ":quit", ":q":
			return nil

		case ":as":
			if len(fields) < 2 {
				fmt.Fprintln(os.Stderr, "использование: :as <id> [имя]")
				continue
			}
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Fprintln(os.Stderr, "некорректный id:", fields[1])
				continue
			}
			current = bot.User{ID: id, FirstName: "Игрок " + fields[1]}
			if len(fields) > 2 {
				current.FirstName = strings.Join(fields[2:], " ")
			}

		case ":reply":
			if len(fields) < 3 {
				fmt.Fprintln(os.Stderr, "использование: :reply <id> <текст>")
				continue
			}
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Fprintln(os.Stderr, "некорректный id:", fields[1])
				continue
			}
			a.Router.Dispatch(ctx, bot.Incoming{
				ChatID:  current.ID,
				Private: true,
				From:    current,
				ReplyTo: &bot.User{ID: id, FirstName: "Игрок " + fields[1]},
				Text:    strings.Join(fields[2:], " "),
			})

		case ":rollover":
			a.Scheduler.RunRollover(ctx)

		case ":remind":
			a.Scheduler.RunReminders(ctx)

		default:
			fmt.Fprintln(os.Stderr, replHelp)
		}
	}
	return scanner.Err()
}
