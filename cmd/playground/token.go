package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"serotonyl.ru/rewards-bot/internal/api"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().Int64("user", 0, "Выпустить токен участника с этим ID")
	tokenCmd.Flags().String("service", "", "Выпустить сервисный токен с этим именем")
	tokenCmd.Flags().Duration("ttl", 0, "Срок жизни (0 — API_TOKEN_TTL для участника, бессрочно для сервиса)")
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпустить токен для JSON API",
	Long: `Выпускает JWT, подписанный API_JWT_SECRET.
Токен участника даёт доступ только к его данным, сервисный — ко всем
(например, магазину, который присылает прогресс миссий).`,
	RunE: runToken,
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetInt64("user")
	service, _ := cmd.Flags().GetString("service")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if (userID == 0) == (service == "") {
		return errors.New("нужен ровно один из флагов --user или --service")
	}

	userTTL := cfg.APITokenTTL
	if ttl > 0 {
		userTTL = ttl
	}
	auth := api.NewAuth(cfg.APIJWTSecret, userTTL)

	var token string
	if userID != 0 {
		token, _, err = auth.IssueUser(userID)
	} else {
		token, _, err = auth.IssueService(service, ttl)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
