package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/originality/config"
	"github.com/poiesic/originality/detect"
	"github.com/poiesic/originality/match"
	"github.com/poiesic/originality/storage"
	"github.com/poiesic/originality/storage/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"originality", "--env-file", "", "--engine", "none"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestInteractive(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	db := filepath.Join(t.TempDir(), "plagiarism_db.txt")

	out, _, err := runApp(t, "hello world\nHello   World!!!\n\nEXIT\nnever checked\n", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "✅ Unique! No matches found locally (online search disabled).")
	assert.Contains(t, out, "❌ Plagiarized! Similarity: 1.00")
	assert.Contains(t, out, "⚠️ text is empty after normalization")
	assert.Contains(t, out, "Exiting plagiarism checker...")

	data, err := os.ReadFile(db)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestInteractive_EndOfInput(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	db := filepath.Join(t.TempDir(), "plagiarism_db.txt")

	out, _, err := runApp(t, "first line", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✅ Unique!")
	assert.NotContains(t, out, "Exiting")
}

func TestInteractive_SearchNotice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plagiarism_db.txt")
	backing, err := file.Open(path)
	require.NoError(t, err)
	corpus, err := storage.OpenCorpus(context.Background(), backing)
	require.NoError(t, err)
	defer corpus.Close()
	matcher, err := match.NewMatcher(match.DefaultThreshold)
	require.NoError(t, err)

	prover := &stubProver{}
	d, err := detect.NewDetector(corpus, matcher, detect.WithProver(prover))
	require.NoError(t, err)

	long := strings.Repeat("abcdefghij", 6)
	var out bytes.Buffer
	require.NoError(t, runInteractive(context.Background(), d, strings.NewReader(long+"\nexit\n"), &out))

	assert.Contains(t, out.String(), "🔍 Searching online for: "+long[:50]+"...")
	assert.Contains(t, out.String(), "✅ Unique! No matches found online.")
}

func TestBatchCommand(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	dir := t.TempDir()
	db := filepath.Join(dir, "plagiarism_db.txt")
	input := filepath.Join(dir, "essays.txt")
	require.NoError(t, os.WriteFile(input, []byte("the cat sat on the mat\n\nthe cat sat on a mat\n!!!\n"), 0o644))

	out, stderr, err := runApp(t, "", "--db", db, "batch", "--report-interval", "1", input)
	require.NoError(t, err)

	assert.Contains(t, out, "1\t✅ Unique!")
	assert.Contains(t, out, "3\t❌ Plagiarized! Similarity: 0.90")
	assert.Contains(t, out, "4\t⚠️")
	assert.Contains(t, out, "checked 3: 1 unique (0 assumed), 1 plagiarized locally, 0 plagiarized online, 1 failed")
	assert.Contains(t, stderr, "3/3")
}

func TestBatchCommand_Stdin(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	db := filepath.Join(t.TempDir(), "plagiarism_db.txt")

	out, _, err := runApp(t, "one\ntwo\n", "--db", db, "batch", "--quiet", "-")
	require.NoError(t, err)
	assert.Equal(t, "checked 2: 2 unique (0 assumed), 0 plagiarized locally, 0 plagiarized online, 0 failed\n", out)
}

func TestBatchCommand_RequiresFile(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	_, _, err := runApp(t, "", "batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch file is required")
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	dir := t.TempDir()
	src := filepath.Join(dir, "plagiarism_db.txt")
	dst := filepath.Join(dir, "badger")
	back := filepath.Join(dir, "roundtrip.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world\nthe quick brown fox\nhello world\n"), 0o644))

	out, _, err := runApp(t, "", "migrate", "--from", src, "--to", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Copied 2 entries (2 in destination)")

	out, _, err = runApp(t, "", "migrate", "--from", dst, "--from-backend", "badger", "--to", back, "--to-backend", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "Copied 2 entries")

	data, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, "hello world\nthe quick brown fox\n", string(data))
}

func TestMigrateCommand_SamePath(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	_, _, err := runApp(t, "", "migrate", "--from", "x", "--from-backend", "file", "--to", "x", "--to-backend", "file")
	require.Error(t, err)
}

func TestBuildConfig_FlagsOverFile(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("similarity_threshold: 0.8\nmax_attempts: 5\nsearch_engine: duckduckgo\n"), 0o644))

	var got *config.Config
	app := &cli.App{
		Flags: newApp().Flags,
		Action: func(c *cli.Context) error {
			var err error
			got, err = buildConfig(c)
			return err
		},
	}
	require.NoError(t, app.Run([]string{"test", "--config", path, "--threshold", "0.9"}))
	assert.Equal(t, 0.9, got.SimilarityThreshold, "flag wins over file")
	assert.Equal(t, 5, got.MaxAttempts, "file wins over default")
	assert.Equal(t, config.EngineDuckDuckGo, got.SearchEngine)
	assert.True(t, got.AutoJunk)
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	os.Unsetenv(config.APIKeyEnv)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(config.APIKeyEnv+"=from-dotenv\n"), 0o600))

	var got *config.Config
	app := newApp()
	app.Action = func(c *cli.Context) error {
		var err error
		got, err = buildConfig(c)
		return err
	}
	require.NoError(t, app.Run([]string{"test", "--env-file", envFile}))
	assert.Equal(t, "from-dotenv", got.SearchAPIKey)

	err := newApp().Run([]string{"test", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err, "explicit env file must exist")
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						assert.True(t, slog.Default().Enabled(context.Background(), tc.expected))
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp()
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}

		err := app.Run([]string{"test", "--env-file", "", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}
