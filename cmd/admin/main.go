package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"unisocial/cmd/app"
	"unisocial/internal/config"
	"unisocial/internal/logger"
)

const usage = `Usage: admin <command> [flags]

Commands:
  reset-password --username <name> --password <new password>
  stats --user-id <id>
`

func main() {
	cfg := config.LoadConfig()
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(context.Background(), cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("не указана команда")
	}

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.StringVarP(&cfg.DB.URL, "database", "d", cfg.DB.URL, "Database URL or SQLite file path")

	switch args[0] {
	case "reset-password":
		username := fs.String("username", "", "User to reset")
		newPassword := fs.String("password", "", "New password")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *username == "" || *newPassword == "" {
			return errors.New("нужны --username и --password")
		}
		return resetPassword(ctx, cfg, *username, *newPassword, out)

	case "stats":
		userID := fs.Int64("user-id", 0, "User id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *userID <= 0 {
			return errors.New("нужен --user-id")
		}
		return printStats(ctx, cfg, *userID, out)

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("неизвестная команда: %s", args[0])
	}
}

func resetPassword(ctx context.Context, cfg *config.Config, username, newPassword string, out io.Writer) error {
	a, err := app.Base(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Services.Auth.ResetPassword(ctx, username, newPassword); err != nil {
		return fmt.Errorf("не удалось сбросить пароль: %w", err)
	}

	fmt.Fprintf(out, "password for %s has been reset\n", username)
	return nil
}

func printStats(ctx context.Context, cfg *config.Config, userID int64, out io.Writer) error {
	a, err := app.Base(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.Services.User.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("не удалось получить пользователя: %w", err)
	}
	stats, err := a.Services.User.GetUserStats(ctx, userID)
	if err != nil {
		return fmt.Errorf("не удалось получить статистику: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"stats":    stats,
	})
}
