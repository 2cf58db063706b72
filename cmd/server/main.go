package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/charlesng35/caseintake/internal/app"
	"github.com/charlesng35/caseintake/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("caseintake-server", pflag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var (
		configPath string
		envFile    string
	)
	fs.StringVarP(&configPath, "config", "c", "", "Path to configuration directory or file")
	fs.StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before configuration")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Logging); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Info("generated runtime secret", zap.String("key", key))
	}

	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Shutdown(context.Background(), log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("storage", stack.Store.Backend()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadEnvFile exports the variables of a dotenv file. A missing file is ignored.
// Variables already set in the environment win.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}
