package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nyukimin/tabitenki/internal/adapter/config"
	"github.com/Nyukimin/tabitenki/internal/adapter/httpapi"
	"github.com/Nyukimin/tabitenki/internal/adapter/repl"
)

const shutdownTimeout = 30 * time.Second

// Version はビルド時に ldflags で設定
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "tabitenki",
		Short:        "Weather-aware bilingual travel assistant",
		Version:      Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default $"+config.ConfigPathEnv+")")

	loadConfig := func() (*config.Config, error) {
		path := configPath
		if path == "" {
			path = config.PathFromEnv()
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if path != "" {
			log.Printf("Loaded config from: %s", path)
		}
		return cfg, nil
	}

	root.AddCommand(newServeCommand(loadConfig), newREPLCommand(loadConfig))
	return root
}

func newServeCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newREPLCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		sessionID   string
		monolingual bool
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Chat with the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()

			app, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.close()

			term, err := repl.NewTerminal(app.orchestrator, repl.Config{
				SessionID:   sessionID,
				Monolingual: monolingual,
				HistoryFile: filepath.Join(os.TempDir(), ".tabitenki_history"),
			})
			if err != nil {
				return err
			}
			return term.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume an existing session id")
	cmd.Flags().BoolVar(&monolingual, "monolingual", false, "reply in English only")
	return cmd
}

// serve はHTTPサーバーを起動し、シグナル受信で graceful shutdown する
func serve(ctx context.Context, cfg *config.Config) error {
	app, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	opts := httpapi.Options{
		BasePath:  cfg.Server.BasePath,
		StaticDir: cfg.Server.StaticDir,
	}
	deps := httpapi.Deps{
		Chat:        app.orchestrator,
		Sessions:    app.store,
		Translation: app.translator,
		Weather:     app.weather,
	}
	if app.metrics != nil {
		deps.Recorder = app.metrics
		deps.MetricsHandler = app.metrics.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.NewServer(deps, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting tabitenki %s on %s (base path %s)", Version, cfg.Addr(), cfg.Server.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Println("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
