package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/kfreiman/docbridge/internal/config"
	"github.com/kfreiman/docbridge/internal/convert"
	"github.com/kfreiman/docbridge/internal/retry"
	"github.com/kfreiman/docbridge/internal/server"
	"github.com/kfreiman/docbridge/internal/tempfile"
	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog"
	"github.com/spf13/cobra"
)

// cmdConfig holds all configuration for the command line
type cmdConfig struct {
	Format string `env:"LOG_FORMAT" env-default:"text" env-description:"Log output format (text or json)"`
	Level  string `env:"LOG_LEVEL" env-default:"info" env-description:"Log level (debug, info, warn, error)"`
}

// createLogger creates a slog logger from the configuration
func createLogger(conf cmdConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch conf.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create zerolog logger
	var zerologLogger zerolog.Logger
	if conf.Format == "json" {
		zerologLogger = zerolog.New(os.Stderr)
	} else {
		zerologLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()
	}

	// Create slog handler
	loggerConfig := slogzerolog.Option{
		Level:  level,
		Logger: &zerologLogger,
	}.NewZerologHandler()

	logger := slog.New(loggerConfig)

	// Set as default logger
	log.SetFlags(0)
	slog.SetDefault(logger)

	return logger
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the conversion proxy server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Load command configuration from environment variables
		var cmdConf cmdConfig
		if err := cleanenv.ReadEnv(&cmdConf); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load command config: %v\n", err)
			os.Exit(1)
		}

		// Create logger
		logger := createLogger(cmdConf)

		cfg, err := config.LoadConfig()
		if err != nil {
			logger.ErrorContext(ctx, "failed to load config",
				"error", err,
			)
			os.Exit(1)
		}

		files, err := tempfile.NewManager(tempfile.Config{
			BaseDir: cfg.TempDir,
			Logger:  logger,
		})
		if err != nil {
			logger.ErrorContext(ctx, "failed to prepare temp directory",
				"error", err,
				"dir", cfg.TempDir,
			)
			os.Exit(1)
		}
		defer files.CleanupAll()

		retryCfg := retry.Config{
			MaxAttempts:   cfg.RetryMaxAttempts,
			BaseDelay:     cfg.RetryBaseDelay,
			MaxDelay:      cfg.RetryMaxDelay,
			BackoffFactor: cfg.RetryBackoffFactor,
			Jitter:        cfg.RetryJitter,
		}

		backendClient := &http.Client{Timeout: cfg.ConvertTimeout}
		fetchClient := &http.Client{Timeout: cfg.FetchTimeout}

		engine := convert.NewEngine(convert.EngineConfig{
			Backends: []convert.Backend{
				convert.NewUnstructured(cfg.UnstructuredURL, backendClient),
				convert.NewLibreOffice(cfg.LibreOfficeURL, backendClient),
				convert.NewPandoc(cfg.PandocURL, backendClient),
				convert.NewGotenberg(cfg.GotenbergURL, backendClient),
			},
			Resolver: convert.NewResolver(
				convert.NewFetcher(fetchClient, cfg.MaxFetchBytes, retryCfg),
				files,
				logger,
			),
			Files:  files,
			Retry:  retryCfg,
			Logger: logger,
		})

		srv := server.New(engine, server.Config{
			Addr:            fmt.Sprintf(":%d", cfg.Port),
			MaxUploadBytes:  cfg.MaxFetchBytes,
			ShutdownTimeout: cfg.ShutdownTimeout,
			Logger:          logger,
		})

		logger.InfoContext(ctx, "conversion proxy starting",
			"port", cfg.Port,
			"temp_dir", cfg.TempDir,
			"endpoints", []string{"/convert/{pair}", "/convert/supported", "/ping", "/ping-all"},
		)

		if err := srv.Run(ctx); err != nil {
			logger.ErrorContext(ctx, "server exited with error",
				"error", err,
			)
			os.Exit(1)
		}
	},
}

func init() {
	// Add serve command
	rootCmd.AddCommand(serveCmd)
}
