// Command analyze runs one analysis over a transcript CSV and writes the
// resulting markers next to each other in an output directory.
//
// Usage:
//
//	analyze -in chat.csv -mode keyword -keyword ㅋㅋ [-interval 1] [-sensitivity 2] [-out exports]
//	analyze -in chat.csv -mode density
//	analyze -in chat.csv -mode sentiment [-threshold 0.3] [-min-change 0.2] [-top 10]
//
// Keyword and density runs write <name>_<mode>_markers.csv and .edl (see
// -formats); sentiment runs write <name>_mood_markers.csv. -json prints the
// full result to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/onnwee/vod-moments/backend/analysis"
	"github.com/onnwee/vod-moments/backend/config"
	"github.com/onnwee/vod-moments/backend/sentiment"
	"github.com/onnwee/vod-moments/backend/session"
	"github.com/onnwee/vod-moments/backend/telemetry"
)

func main() {
	_ = godotenv.Load(".env")
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		// keep stderr quiet for scripted runs
		level = "warn"
	}
	telemetry.SetupLogging(os.Stderr, level, os.Getenv("LOG_FORMAT"))

	env, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:], defaultConfig(env))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	sess, err := newSession(cfg, env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err := run(context.Background(), cfg, sess, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string, def Config) (Config, error) {
	cfg := def
	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "transcript CSV to analyze")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "directory for exported markers")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "analysis: keyword, density or sentiment")
	fs.StringVar(&cfg.Keyword, "keyword", cfg.Keyword, "keyword to track (mode keyword)")
	fs.StringVar(&cfg.Label, "label", cfg.Label, "marker label (default: keyword, or a density label)")
	fs.Float64Var(&cfg.IntervalMinutes, "interval", cfg.IntervalMinutes, "bin width in minutes")
	fs.Float64Var(&cfg.Sensitivity, "sensitivity", cfg.Sensitivity, "spike threshold in standard deviations above the mean")
	fs.Float64Var(&cfg.MoodThreshold, "threshold", cfg.MoodThreshold, "mood threshold (mode sentiment)")
	fs.Float64Var(&cfg.MoodMinChange, "min-change", cfg.MoodMinChange, "minimum score change reported as a mood change")
	fs.IntVar(&cfg.TopN, "top", cfg.TopN, "mood markers to export (0 = all)")
	fs.StringVar(&cfg.Formats, "formats", cfg.Formats, "comma separated exports for keyword/density: markers,edl")
	fs.StringVar(&cfg.LexiconPath, "lexicon", cfg.LexiconPath, "YAML lexicon overriding the built-in one")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print the full result as JSON")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newSession(cfg Config, env *config.Config) (*session.Session, error) {
	var lex *sentiment.Lexicon
	if cfg.LexiconPath != "" {
		l, err := sentiment.LoadLexiconFile(cfg.LexiconPath)
		if err != nil {
			return nil, err
		}
		lex = l
	}
	return session.New(session.Options{
		Columns:      env.Columns,
		Engine:       sentiment.NewEngine(lex),
		SystemSender: env.SystemSender,
	}), nil
}

func run(ctx context.Context, cfg Config, sess *session.Session, stdout io.Writer) error {
	n, err := sess.Load(cfg.InputPath)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(cfg.InputPath), filepath.Ext(cfg.InputPath))
	fmt.Fprintf(stdout, "loaded %d messages from %s\n", n, cfg.InputPath)

	var result any
	var written []string
	switch cfg.Mode {
	case modeSentiment:
		out, err := sess.AnalyzeSentiment(ctx, cfg.IntervalMinutes, cfg.MoodThreshold, cfg.MoodMinChange)
		if err != nil {
			return err
		}
		result = out
		fmt.Fprintf(stdout, "mean sentiment %.3f over %d bins, %d mood changes\n", out.Summary.MeanScore, out.Summary.Bins, len(out.MoodChanges))
		path := filepath.Join(cfg.OutputDir, base+"_mood_markers.csv")
		if _, err := sess.ExportMoodMarkers(path, cfg.TopN); err != nil {
			return err
		}
		written = append(written, path)
	default:
		var out analysis.Outcome
		if cfg.Mode == modeKeyword {
			out, err = sess.AnalyzeKeyword(ctx, cfg.Keyword, cfg.IntervalMinutes, cfg.Sensitivity)
		} else {
			out, err = sess.AnalyzeChatDensity(ctx, cfg.IntervalMinutes, cfg.Sensitivity)
		}
		if err != nil {
			return err
		}
		result = out
		peak := "-"
		if out.Result.PeakTime != nil {
			peak = *out.Result.PeakTime
		}
		fmt.Fprintf(stdout, "%d matching messages, %d spikes (threshold %.2f), peak %s\n",
			out.Result.TotalCount, len(out.Result.Spikes), out.Result.Threshold, peak)
		for _, f := range cfg.formats() {
			path := filepath.Join(cfg.OutputDir, base+"_"+cfg.Mode+"_markers."+map[string]string{"markers": "csv", "edl": "edl"}[f])
			if f == "edl" {
				_, err = sess.ExportEDL(path, cfg.Label)
			} else {
				_, err = sess.ExportMarkers(path, cfg.Label)
			}
			if err != nil {
				return err
			}
			written = append(written, path)
		}
	}

	for _, p := range written {
		fmt.Fprintf(stdout, "wrote %s\n", p)
	}
	if cfg.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return nil
}
