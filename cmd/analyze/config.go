package main

import (
	"fmt"
	"strings"

	"github.com/onnwee/vod-moments/backend/config"
)

const (
	modeKeyword   = "keyword"
	modeDensity   = "density"
	modeSentiment = "sentiment"
)

type Config struct {
	InputPath       string
	OutputDir       string
	Mode            string
	Keyword         string
	Label           string
	IntervalMinutes float64
	Sensitivity     float64
	MoodThreshold   float64
	MoodMinChange   float64
	TopN            int
	Formats         string
	LexiconPath     string
	JSON            bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("missing -in")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("missing -out")
	}
	switch c.Mode {
	case modeKeyword:
		if strings.TrimSpace(c.Keyword) == "" {
			return fmt.Errorf("-mode keyword requires -keyword")
		}
	case modeDensity, modeSentiment:
	default:
		return fmt.Errorf("unknown -mode %q (want keyword, density or sentiment)", c.Mode)
	}
	if c.IntervalMinutes <= 0 {
		return fmt.Errorf("-interval must be positive")
	}
	for _, f := range c.formats() {
		if f != "markers" && f != "edl" {
			return fmt.Errorf("unknown -formats entry %q (want markers, edl)", f)
		}
	}
	return nil
}

func (c Config) formats() []string {
	var out []string
	for _, f := range strings.Split(c.Formats, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// defaultConfig seeds flag defaults from the service environment.
func defaultConfig(env *config.Config) Config {
	return Config{
		OutputDir:       env.ExportDir,
		Mode:            modeKeyword,
		IntervalMinutes: env.IntervalMinutes,
		Sensitivity:     env.Sensitivity,
		MoodThreshold:   env.MoodThreshold,
		MoodMinChange:   env.MoodMinChange,
		TopN:            env.MoodTopN,
		Formats:         "markers,edl",
		LexiconPath:     env.LexiconPath,
	}
}
