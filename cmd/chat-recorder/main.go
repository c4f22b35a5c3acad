// Command chat-recorder captures a live Twitch channel's chat into a
// transcript CSV that the analyzer can load. Timecodes are relative to the
// moment recording starts, so start it together with the stream recording.
//
// Usage:
//
//	chat-recorder [-channel name] [-out path.csv] [-duration 3h] [-vod-id id]
//
// Credentials come from TWITCH_BOT_USERNAME and TWITCH_OAUTH_TOKEN. With
// -vod-id and DB_DSN set, the finished transcript is also stored in Postgres;
// TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET add the VOD's title, date and
// length from Helix.
// Recording stops on SIGINT/SIGTERM or after -duration.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/config"
	"github.com/onnwee/vod-moments/backend/db"
	"github.com/onnwee/vod-moments/backend/telemetry"
	"github.com/onnwee/vod-moments/backend/twitchapi"
)

func main() {
	_ = godotenv.Load(".env")
	telemetry.SetupLogging(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	env, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:], defaultConfig(env, time.Now()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	if err := run(ctx, cfg); err != nil {
		slog.Error("chat recorder failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string, def Config) (Config, error) {
	cfg := def
	channel := fs.String("channel", cfg.Channel, "twitch channel to record")
	fs.StringVar(&cfg.OutputPath, "out", "", "transcript CSV to write (default: <EXPORT_DIR>/<channel>_<time>.csv)")
	fs.DurationVar(&cfg.Duration, "duration", cfg.Duration, "stop after this long (0 = until interrupted)")
	fs.StringVar(&cfg.VODID, "vod-id", cfg.VODID, "also store the transcript in Postgres under this VOD id")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *channel != def.Channel {
		cfg.Channel = *channel
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = def.OutputPath
		if *channel != def.Channel {
			cfg.OutputPath = defaultOutputPath(filepath.Dir(def.OutputPath), cfg.Channel, time.Now())
		}
	}
	return cfg, nil
}

func run(ctx context.Context, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(cfg.OutputPath) //nolint:gosec // G304: operator-chosen output path
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}

	rec := &chat.Recorder{
		Channel:  cfg.Channel,
		Username: cfg.Username,
		OAuth:    cfg.OAuth,
		Columns:  cfg.Columns,
	}
	runErr := rec.Run(ctx, f)
	if err := f.Close(); err != nil && runErr == nil {
		runErr = err
	}
	slog.Info("transcript written", slog.String("path", cfg.OutputPath), slog.Int("messages", rec.Written()))
	if runErr != nil {
		return runErr
	}
	if cfg.VODID == "" {
		return nil
	}
	return storeTranscript(cfg)
}

// storeTranscript copies the written CSV into the chat_messages table.
func storeTranscript(cfg Config) error {
	t, err := chat.LoadFile(cfg.OutputPath, cfg.Columns)
	if err != nil {
		return err
	}
	database, err := db.Connect(cfg.DBDsn)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	// the recording context is done by now
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := db.Migrate(ctx, database); err != nil {
		return err
	}
	if err := db.InsertMessages(ctx, database, cfg.VODID, t.Events()); err != nil {
		return err
	}
	if cfg.ClientID != "" {
		// metadata is best effort; the messages are already stored
		if err := storeVODMeta(ctx, database, cfg); err != nil {
			slog.Warn("vod metadata lookup failed", slog.String("vod_id", cfg.VODID), slog.Any("err", err))
		}
	}
	slog.Info("transcript stored", slog.String("vod_id", cfg.VODID), slog.Int("messages", t.Len()))
	return nil
}

func storeVODMeta(ctx context.Context, database *sql.DB, cfg Config) error {
	hc := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret},
		ClientID:       cfg.ClientID,
	}
	v, err := hc.GetVideo(ctx, cfg.VODID)
	if err != nil {
		return err
	}
	return db.UpsertVOD(ctx, database, db.VOD{
		ID:              cfg.VODID,
		Title:           v.Title,
		Date:            v.CreatedAt,
		DurationSeconds: v.DurationSeconds,
	})
}
