// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/originality/config"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "originality",
		Usage: "Check text for plagiarism against a local corpus and the web",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"ORIGINALITY_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load secrets from this dotenv file if it exists",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Corpus location (file path, or directory for badger)",
				EnvVars: []string{"ORIGINALITY_DB"},
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Corpus backing (file, badger)",
			},
			&cli.StringFlag{
				Name:    "engine",
				Aliases: []string{"e"},
				Usage:   "Online search engine (serpapi, duckduckgo, none)",
				EnvVars: []string{"ORIGINALITY_ENGINE"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "SerpAPI key",
				EnvVars: []string{config.APIKeyEnv},
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Aliases: []string{"t"},
				Usage:   "Minimum similarity for a local match, between 0 and 1",
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Online search attempts before assuming unique",
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Delay between failed online attempts",
			},
			&cli.BoolFlag{
				Name:  "exponential-backoff",
				Usage: "Double the retry delay after each failed attempt",
			},
			&cli.DurationFlag{
				Name:  "attempt-timeout",
				Usage: "Bound on a single online attempt",
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Workers for local scoring (1 scans sequentially)",
			},
			&cli.BoolFlag{
				Name:  "autojunk",
				Usage: "Ignore very frequent characters in long texts when scoring",
				Value: true,
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnvFile(c); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Action: interactiveCommand,
		Commands: []*cli.Command{
			{
				Name:      "batch",
				Usage:     "Check every non-empty line of a file (- for stdin)",
				ArgsUsage: "FILE",
				Action:    batchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N lines",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Print only the summary",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Copy a corpus between backings",
				Action: migrateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Source corpus location",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "from-backend",
						Usage: "Source backing (file, badger)",
						Value: config.BackendFile,
					},
					&cli.StringFlag{
						Name:     "to",
						Usage:    "Destination corpus location",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "to-backend",
						Usage: "Destination backing (file, badger)",
						Value: config.BackendBadger,
					},
				},
			},
		},
	}
}

// loadEnvFile loads the dotenv file into the environment without
// overriding variables that are already set. A missing default file is
// not an error.
func loadEnvFile(c *cli.Context) error {
	path := c.String("env-file")
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !c.IsSet("env-file") {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

// buildConfig layers flags over the config file over defaults.
func buildConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.ConfigOption
	if c.IsSet("db") {
		opts = append(opts, config.WithDBFile(c.String("db")))
	}
	if c.IsSet("backend") {
		opts = append(opts, config.WithBackend(c.String("backend")))
	}
	if c.IsSet("engine") {
		opts = append(opts, config.WithSearchEngine(c.String("engine")))
	}
	if c.IsSet("api-key") {
		opts = append(opts, config.WithSearchAPIKey(c.String("api-key")))
	}
	if c.IsSet("threshold") {
		opts = append(opts, config.WithSimilarityThreshold(c.Float64("threshold")))
	}
	if c.IsSet("max-attempts") {
		opts = append(opts, config.WithMaxAttempts(c.Int("max-attempts")))
	}
	if c.IsSet("retry-delay") {
		opts = append(opts, config.WithRetryDelay(c.Duration("retry-delay")))
	}
	if c.IsSet("exponential-backoff") {
		opts = append(opts, config.WithExponentialBackoff(c.Bool("exponential-backoff")))
	}
	if c.IsSet("attempt-timeout") {
		opts = append(opts, config.WithAttemptTimeout(c.Duration("attempt-timeout")))
	}
	if c.IsSet("pool-size") {
		opts = append(opts, config.WithPoolSize(c.Int("pool-size")))
	}
	if c.IsSet("autojunk") {
		opts = append(opts, config.WithAutoJunk(c.Bool("autojunk")))
	}

	if path := c.String("config"); path != "" {
		return config.Load(path, opts...)
	}

	cfg := config.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
