// Command create-admin выдаёт роль admin существующему пользователю
// или создаёт нового администратора.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/content-paywall/internal/config"
	"github.com/magabrotheeeer/content-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/content-paywall/internal/migrations"
	"github.com/magabrotheeeer/content-paywall/internal/services/bootstrap"
	"github.com/magabrotheeeer/content-paywall/internal/storage"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		email    string
		name     string
		password string
	)
	cmd := &cobra.Command{
		Use:           "create-admin --email EMAIL [--name NAME] [--password PASSWORD]",
		Short:         "Promote a user to admin or create a new admin account",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cmd, email, name, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "", "display name for a new account")
	cmd.Flags().StringVar(&password, "password", "", "password for a new account (or ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, email, name, password string) error {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	db := storage.New(logger, cfg.StorageConnectionString)
	if !db.Configured() {
		return errors.New("DATABASE_URL is not set")
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.WaitReady(ctx, 5, time.Second); err != nil {
		return err
	}
	if cfg.MigrationsEnabled {
		sqlDB, err := db.DB(ctx)
		if err != nil {
			return err
		}
		if err = migrations.Run(sqlDB); err != nil {
			return err
		}
	}

	res, err := bootstrap.NewBootstrapService(db, logger).EnsureAdmin(ctx, email, name, password)
	if err != nil {
		return err
	}

	action := "promoted"
	if res.Created {
		action = "created"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin %s: id=%d email=%s\n", action, res.User.ID, res.User.EmailOrEmpty())
	return nil
}
