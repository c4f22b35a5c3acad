// Command backend is the main entrypoint for the vod-moments analysis API.
// It:
//   - Loads configuration and initializes structured logging.
//   - Loads the sentiment lexicon (built-in or LEXICON_PATH override).
//   - Optionally connects to Postgres (DB_DSN) so transcripts stored by the
//     VOD archiver can be analyzed, and runs idempotent migrations.
//   - Optionally preloads a transcript CSV (TRANSCRIPT_PATH).
//   - Exposes the HTTP API plus /healthz, /readyz and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // G108: pprof endpoints enabled only when ENABLE_PPROF=1
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/vod-moments/backend/config"
	"github.com/onnwee/vod-moments/backend/db"
	"github.com/onnwee/vod-moments/backend/sentiment"
	"github.com/onnwee/vod-moments/backend/server"
	"github.com/onnwee/vod-moments/backend/session"
	"github.com/onnwee/vod-moments/backend/telemetry"
)

const serviceVersion = "1.0.0"

func main() {
	// local dev only; deployments set real env
	_ = godotenv.Load(".env")

	telemetry.SetupLogging(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	telemetry.Init()
	shutdown, err := telemetry.InitTracing("vod-moments", serviceVersion)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Lexicon is built once and shared by every analysis
	lex := sentiment.DefaultLexicon()
	if cfg.LexiconPath != "" {
		lex, err = sentiment.LoadLexiconFile(cfg.LexiconPath)
		if err != nil {
			slog.Error("lexicon load failed", slog.String("path", cfg.LexiconPath), slog.Any("err", err))
			os.Exit(1)
		}
	}
	slog.Info("lexicon ready", slog.Int("entries", lex.Len()), slog.String("source", map[bool]string{true: cfg.LexiconPath, false: "builtin"}[cfg.LexiconPath != ""]))

	sess := session.New(session.Options{
		Columns:      cfg.Columns,
		Engine:       sentiment.NewEngine(lex),
		SystemSender: cfg.SystemSender,
	})
	if cfg.TranscriptPath != "" {
		if _, err := sess.Load(cfg.TranscriptPath); err != nil {
			slog.Warn("startup transcript not loaded", slog.String("path", cfg.TranscriptPath), slog.Any("err", err))
		}
	}

	// DB (optional transcript source)
	var database *sql.DB
	if cfg.DBDsn != "" {
		database, err = db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		migrationCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.Migrate(migrationCtx, database)
		cancel()
		if err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
		slog.Info("database ready", slog.String("component", "db_migrate"))
	} else {
		slog.Info("DB_DSN not set; database transcript source disabled")
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Enable pprof profiling endpoints in debug mode (ENABLE_PPROF=1)
	if os.Getenv("ENABLE_PPROF") == "1" {
		pprofAddr := os.Getenv("PPROF_ADDR")
		if pprofAddr == "" {
			pprofAddr = "localhost:6060"
		}
		go func() {
			slog.Info("pprof profiling enabled", slog.String("addr", pprofAddr))
			srv := &http.Server{
				Addr:              pprofAddr,
				Handler:           nil, // default mux exposes /debug/pprof
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("pprof server error", slog.Any("err", err))
			}
		}()
	}

	opts := server.Options{
		Session: sess,
		DB:      database,
		Defaults: server.Defaults{
			IntervalMinutes: cfg.IntervalMinutes,
			Sensitivity:     cfg.Sensitivity,
			MoodThreshold:   cfg.MoodThreshold,
			MoodMinChange:   cfg.MoodMinChange,
			MoodTopN:        cfg.MoodTopN,
			MaxUploadBytes:  cfg.MaxUploadBytes,
			SystemSender:    cfg.SystemSender,
		},
	}
	if err := server.Start(ctx, opts, cfg.HTTPAddr); err != nil {
		slog.Error("http server exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
