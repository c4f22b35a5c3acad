// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binaries run locally with no setup at all.
// The Twitch recorder credentials are optional; use ValidateRecorderReady when recording.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/onnwee/vod-moments/backend/chat"
)

type Config struct {
	// HTTP
	HTTPAddr       string
	MaxUploadBytes int64

	// Transcript CSV loaded at startup; empty starts with no transcript
	TranscriptPath string

	// Transcript columns
	Columns      chat.Columns
	SystemSender string

	// Analysis defaults
	IntervalMinutes float64
	Sensitivity     float64
	MoodThreshold   float64
	MoodMinChange   float64
	MoodTopN        int

	// Sentiment lexicon override (YAML); empty uses the built-in table
	LexiconPath string

	// Database transcript source; empty disables it
	DBDsn string

	// Exports
	ExportDir string

	// Twitch chat recorder
	TwitchChannel     string
	TwitchBotUsername string
	TwitchOAuthToken  string

	// Helix app credentials, optional; used to fill VOD metadata.
	TwitchClientID     string
	TwitchClientSecret string
}

// Load reads environment variables and applies defaults. Numeric variables
// that are set but unparsable are reported as errors rather than ignored.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	cfg.TranscriptPath = os.Getenv("TRANSCRIPT_PATH")

	cfg.Columns = chat.DefaultColumns()
	if v := os.Getenv("COLUMN_TIMECODE"); v != "" {
		cfg.Columns.Timecode = v
	}
	if v := os.Getenv("COLUMN_SENDER"); v != "" {
		cfg.Columns.Sender = v
	}
	if v := os.Getenv("COLUMN_MESSAGE"); v != "" {
		cfg.Columns.Message = v
	}
	cfg.SystemSender = os.Getenv("SYSTEM_SENDER")
	if cfg.SystemSender == "" {
		cfg.SystemSender = chat.SystemSender
	}

	var err error
	if cfg.IntervalMinutes, err = envFloat("DEFAULT_INTERVAL_MINUTES", 1); err != nil {
		return nil, err
	}
	if cfg.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("invalid DEFAULT_INTERVAL_MINUTES: must be positive")
	}
	if cfg.Sensitivity, err = envFloat("DEFAULT_SENSITIVITY", 2.0); err != nil {
		return nil, err
	}
	if cfg.MoodThreshold, err = envFloat("MOOD_THRESHOLD", 0.3); err != nil {
		return nil, err
	}
	if cfg.MoodMinChange, err = envFloat("MOOD_MIN_CHANGE", 0.2); err != nil {
		return nil, err
	}
	if cfg.MoodTopN, err = envInt("MOOD_TOP_N", 10); err != nil {
		return nil, err
	}
	maxUpload, err := envInt("MAX_UPLOAD_BYTES", 64<<20)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	cfg.LexiconPath = os.Getenv("LEXICON_PATH")
	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.ExportDir = os.Getenv("EXPORT_DIR")
	if cfg.ExportDir == "" {
		cfg.ExportDir = "exports"
	}

	cfg.TwitchChannel = strings.TrimPrefix(os.Getenv("TWITCH_CHANNEL"), "#")
	cfg.TwitchBotUsername = os.Getenv("TWITCH_BOT_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")
	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")

	return cfg, nil
}

// ValidateRecorderReady checks required fields for the Twitch chat recorder.
func (c *Config) ValidateRecorderReady() error {
	if c.TwitchChannel == "" || c.TwitchBotUsername == "" || c.TwitchOAuthToken == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL, TWITCH_BOT_USERNAME, TWITCH_OAUTH_TOKEN")
	}
	return nil
}

// HelixEnabled reports whether app credentials for VOD lookups are set.
func (c *Config) HelixEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
