package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ganttboard/config"
	"ganttboard/internal/app"
	"ganttboard/internal/service/auth"
	"ganttboard/pkg/logger"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "ganttboard-server",
	Short: "Gantt board REST API server",
	// 不带子命令时直接启动服务
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations, create the default admin and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		return app.Migrate(cmd.Context(), cfg, log)
	},
}

var resetUsername, resetPassword string

var resetAdminCmd = &cobra.Command{
	Use:   "reset-admin-password",
	Short: "Set the password of an admin account, creating it if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resetPassword == "" {
			return fmt.Errorf("--password is required")
		}
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		stores, err := app.OpenStores(cfg.DB, log)
		if err != nil {
			return err
		}
		defer stores.Close()

		svc := auth.NewService(stores.Users, cfg.JWT.Secret, cfg.JWT.TTL, nil, log)
		if err := svc.ResetAdminPassword(cmd.Context(), resetUsername, resetPassword); err != nil {
			return err
		}
		fmt.Printf("Password for %q has been reset\n", resetUsername)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir(), "directory containing base.yaml and <env>.yaml")
	resetAdminCmd.Flags().StringVar(&resetUsername, "username", "admin", "admin username")
	resetAdminCmd.Flags().StringVar(&resetPassword, "password", "", "new password")

	rootCmd.AddCommand(serveCmd, migrateCmd, resetAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.App.Env, cfg.Log.Level), nil
}

func serve() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting ganttboard server...",
		zap.String("env", cfg.App.Env),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("port", cfg.Server.Port),
	)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		return err
	case sig := <-quit:
		log.Info("Shutting down gracefully...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("ganttboard shutdown complete")
	return nil
}
