package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/config"
)

type Config struct {
	Channel    string
	Username   string
	OAuth      string
	OutputPath string
	Duration   time.Duration
	Columns    chat.Columns

	// Optional: copy the finished transcript into Postgres under VODID.
	VODID string
	DBDsn string
	// Helix app credentials for filling the vods row; optional.
	ClientID     string
	ClientSecret string
}

func (c Config) Validate() error {
	env := config.Config{TwitchChannel: c.Channel, TwitchBotUsername: c.Username, TwitchOAuthToken: c.OAuth}
	if err := env.ValidateRecorderReady(); err != nil {
		return err
	}
	if c.OutputPath == "" {
		return fmt.Errorf("missing -out")
	}
	if c.Duration < 0 {
		return fmt.Errorf("-duration must not be negative")
	}
	if c.VODID != "" && c.DBDsn == "" {
		return fmt.Errorf("-vod-id requires DB_DSN")
	}
	return nil
}

func defaultConfig(env *config.Config, now time.Time) Config {
	cfg := Config{
		Channel:  env.TwitchChannel,
		Username: env.TwitchBotUsername,
		OAuth:    env.TwitchOAuthToken,
		Columns:  env.Columns,
		DBDsn:    env.DBDsn,
	}
	if env.HelixEnabled() {
		cfg.ClientID = env.TwitchClientID
		cfg.ClientSecret = env.TwitchClientSecret
	}
	cfg.OutputPath = defaultOutputPath(env.ExportDir, cfg.Channel, now)
	return cfg
}

// defaultOutputPath names recordings <dir>/<channel>_<YYYYMMDD_HHMMSS>.csv.
func defaultOutputPath(dir, channel string, now time.Time) string {
	name := strings.TrimPrefix(channel, "#")
	if name == "" {
		name = "chat"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", name, now.UTC().Format("20060102_150405")))
}
