package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/design-review/backend/internal/api"
	"github.com/design-review/backend/internal/chat"
	"github.com/design-review/backend/internal/config"
	"github.com/design-review/backend/internal/export"
	"github.com/design-review/backend/internal/kvstore"
	"github.com/design-review/backend/internal/projects"
	"github.com/design-review/backend/internal/upload"
	"github.com/design-review/backend/internal/web"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configPath string
	cfg        *config.AppConfig
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "design-review",
	Short: "Design review assistant server",
	Long: `Runs the design review HTTP API: chat sessions, simulated file
uploads with live progress, project records, exports and the compliance
overview. Serves the embedded front-end when one was built in.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(resolveConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger, err = newLogger(cfg.Advanced.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to "+config.FileName+" (default: next to the executable)")
	rootCmd.AddCommand(projectsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath falls back to the config file beside the executable.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	exePath, err := os.Executable()
	if err != nil {
		return config.FileName
	}
	return filepath.Join(filepath.Dir(exePath), config.FileName)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// openRepository opens the configured backend. The caller closes the backend.
func openRepository() (kvstore.Backend, *projects.Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}
	backend, err := kvstore.Open(cfg.Storage.Backend, cfg.Storage.DataDirectory)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	return backend, projects.NewStore(backend, logger.Named("projects")), nil
}

func runServer(ctx context.Context) error {
	backend, repo, err := openRepository()
	if err != nil {
		return err
	}

	tracker := upload.NewTracker(upload.WithLogger(logger.Named("upload")))

	sessionOpts := []chat.Option{
		chat.WithLogger(logger.Named("chat")),
		chat.WithMaxSessions(cfg.Sessions.MaxSessions),
		chat.WithPresetScale(cfg.Upload.PresetScale),
	}
	if d, ok := cfg.ReplyDelay(); ok {
		sessionOpts = append(sessionOpts, chat.WithReplyDelay(d))
	}
	sessions := chat.NewManager(tracker, repo, sessionOpts...)
	exports := export.NewService(tracker, upload.PresetExport.Scaled(cfg.Upload.PresetScale), logger.Named("export"))

	embeddedMode := web.HasEmbeddedFiles()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareOptions{
		Logger:            logger.Named("http"),
		ShowErrorDetails:  cfg.Advanced.ShowErrorDetails,
		RequestLogging:    cfg.Advanced.EnableRequestLogging,
		RequestTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		EnableCompression: cfg.Advanced.EnableCompression,
		CompressionLevel:  cfg.Advanced.CompressionLevel,
		BodyLimit:         cfg.Server.BodyLimit,
		EnableCORS:        cfg.Server.EnableCORS,
		AllowOrigins:      cfg.GetAllowOrigins(),
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Sessions: sessions,
		Tracker:  tracker,
		Projects: repo,
		Exports:  exports,
		Logger:   logger.Named("ws"),
		Version:  Version,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	if embeddedMode {
		staticFS, err := web.GetFileSystem()
		if err != nil {
			logger.Warn("failed to register static routes", zap.Error(err))
		} else {
			web.RegisterStaticRoutes(e, staticFS)
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(embeddedMode)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		runCleanup(gctx, sessions, tracker)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := s.Shutdown(shutdownCtx)

		sessions.Close()
		exports.Close()
		tracker.Close()
		if cerr := backend.Close(); cerr != nil {
			logger.Warn("failed to close storage", zap.Error(cerr))
		}
		return err
	})

	return g.Wait()
}

// runCleanup closes idle sessions and forgets old finished files until ctx ends.
func runCleanup(ctx context.Context, sessions *chat.Manager, tracker *upload.Tracker) {
	interval := time.Duration(cfg.Sessions.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	idle := time.Duration(cfg.Sessions.IdleTimeoutMinutes) * time.Minute
	retain := time.Duration(cfg.Upload.RetainCompletedMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed := sessions.CleanupIdle(idle)
			removed := tracker.CleanupOld(retain)
			if closed > 0 || removed > 0 {
				logger.Info("cleanup", zap.Int("sessions", closed), zap.Int("files", removed))
			}
		}
	}
}

func printBanner(embeddedMode bool) {
	mode := "API only"
	if embeddedMode {
		mode = "Embedded front-end"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Design Review Server                            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Storage:   %-46s║\n", cfg.Storage.Backend)
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.Storage.DataDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
