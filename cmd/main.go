package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yungbote/cliq-relay-backend/internal/app"
	"github.com/yungbote/cliq-relay-backend/internal/platform/envutil"
	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

func main() {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:     "cliq-relay",
		Short:   "Relay backend for the Zoho Cliq infrastructure monitoring extension",
		Version: app.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("env", "", "Runtime environment (overrides APP_ENV/NODE_ENV)")
	rootCmd.PersistentFlags().String("log-mode", "", "Logger preset: development, production or nop")
	_ = v.BindPFlag("APP_ENV", rootCmd.PersistentFlags().Lookup("env"))
	_ = v.BindPFlag("LOG_MODE", rootCmd.PersistentFlags().Lookup("log-mode"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	serveCmd.Flags().String("port", "", "Listen port (overrides PORT)")
	_ = v.BindPFlag("PORT", serveCmd.Flags().Lookup("port"))

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(v)
		},
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(v *viper.Viper) (*logger.Logger, error) {
	v.AutomaticEnv()
	mode := strings.TrimSpace(v.GetString("LOG_MODE"))
	if mode == "" {
		mode = "development"
		switch strings.ToLower(strings.TrimSpace(v.GetString("APP_ENV") + v.GetString("NODE_ENV"))) {
		case "production", "prod":
			mode = "production"
		}
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	log, err := newLogger(v)
	if err != nil {
		return err
	}
	log.Info("Loading environment variables...")
	cfg := app.LoadConfig(envutil.New(v, log))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize app", "error", err)
		log.Sync()
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("Server exited with error", "error", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

func runMigrate(v *viper.Viper) error {
	log, err := newLogger(v)
	if err != nil {
		return err
	}
	defer log.Sync()
	cfg := app.LoadConfig(envutil.New(v, log))
	if err := app.Migrate(cfg, log); err != nil {
		log.Error("Migration failed", "error", err)
		return err
	}
	log.Info("Migration complete")
	return nil
}
