package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/poiesic/devscout/config"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestRunCommandFlags(t *testing.T) {
	t.Run("query has alias q and no default", func(t *testing.T) {
		var queryFlag *cli.StringFlag
		for _, flag := range runFlags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "query" {
				queryFlag = f
				break
			}
		}
		require.NotNil(t, queryFlag)
		assert.Equal(t, []string{"q"}, queryFlag.Aliases)
		assert.Empty(t, queryFlag.Value)
		assert.False(t, queryFlag.Required)
	})

	t.Run("max-pages has no default", func(t *testing.T) {
		var pagesFlag *cli.IntFlag
		for _, flag := range runFlags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "max-pages" {
				pagesFlag = f
				break
			}
		}
		require.NotNil(t, pagesFlag)
		assert.Zero(t, pagesFlag.Value)
	})

	t.Run("no-readmes is a boolean", func(t *testing.T) {
		var skipFlag *cli.BoolFlag
		for _, flag := range runFlags {
			if f, ok := flag.(*cli.BoolFlag); ok && f.Name == "no-readmes" {
				skipFlag = f
				break
			}
		}
		require.NotNil(t, skipFlag)
	})

	t.Run("db has alias d", func(t *testing.T) {
		var dbFlag *cli.StringFlag
		for _, flag := range runFlags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "db" {
				dbFlag = f
				break
			}
		}
		require.NotNil(t, dbFlag)
		assert.Equal(t, []string{"d"}, dbFlag.Aliases)
	})
}

func TestRankCommandFlags(t *testing.T) {
	t.Run("run has no default", func(t *testing.T) {
		var runFlag *cli.StringFlag
		for _, flag := range rankFlags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "run" {
				runFlag = f
				break
			}
		}
		require.NotNil(t, runFlag)
		assert.Empty(t, runFlag.Value)
		assert.False(t, runFlag.Required)
	})

	t.Run("top-n has no default", func(t *testing.T) {
		var topFlag *cli.IntFlag
		for _, flag := range rankFlags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "top-n" {
				topFlag = f
				break
			}
		}
		require.NotNil(t, topFlag)
		assert.Zero(t, topFlag.Value)
	})
}

func TestExportCommandFlags(t *testing.T) {
	t.Run("run has no default", func(t *testing.T) {
		var runFlag *cli.StringFlag
		for _, flag := range exportFlags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "run" {
				runFlag = f
				break
			}
		}
		require.NotNil(t, runFlag)
		assert.Empty(t, runFlag.Value)
	})

	t.Run("output-dir has alias o", func(t *testing.T) {
		var dirFlag *cli.StringFlag
		for _, flag := range exportFlags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "output-dir" {
				dirFlag = f
				break
			}
		}
		require.NotNil(t, dirFlag)
		assert.Equal(t, []string{"o"}, dirFlag.Aliases)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DEVSCOUT_CONFIG", "")

	var got *config.Config
	app := &cli.App{
		Name: "devscout",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Flags: runFlags,
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					got = cfg
					return nil
				},
			},
		},
	}

	t.Run("flags override config values", func(t *testing.T) {
		got = nil
		err := app.Run([]string{"devscout", "run",
			"--query", "location:brno",
			"--max-pages", "3",
			"--top-n", "5",
			"--db", "/tmp/devscout_test.db",
			"--output-dir", "/tmp/devscout_out",
		})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "location:brno", got.Search.Query)
		assert.Equal(t, 3, got.Search.MaxPages)
		assert.Equal(t, 5, got.Rank.TopN)
		assert.Equal(t, "/tmp/devscout_test.db", got.Storage.Path)
		assert.Equal(t, "/tmp/devscout_out", got.Output.Dir)
	})

	t.Run("unset flags keep config defaults", func(t *testing.T) {
		got = nil
		err := app.Run([]string{"devscout", "run"})
		require.NoError(t, err)
		require.NotNil(t, got)
		def := config.Default()
		assert.Equal(t, def.Search.MaxPages, got.Search.MaxPages)
		assert.Equal(t, def.Rank.TopN, got.Rank.TopN)
		assert.Equal(t, def.Storage.Path, got.Storage.Path)
	})
}

func TestResolveRun(t *testing.T) {
	runs, cache, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	older := &core.RunRecord{
		Id:        core.RunID("20260825_090000"),
		Query:     "location:prague",
		StartedAt: time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
	}
	newer := &core.RunRecord{
		Id:        core.RunID("20260825_100000"),
		Query:     "location:brno",
		StartedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, runs.SaveRun(ctx, older))
	require.NoError(t, runs.SaveRun(ctx, newer))

	t.Run("empty id resolves to latest run", func(t *testing.T) {
		record, err := resolveRun(ctx, runs, "")
		require.NoError(t, err)
		assert.Equal(t, newer.Id, record.Id)
	})

	t.Run("explicit id resolves that run", func(t *testing.T) {
		record, err := resolveRun(ctx, runs, "20260825_090000")
		require.NoError(t, err)
		assert.Equal(t, older.Id, record.Id)
		assert.Equal(t, "location:prague", record.Query)
	})

	t.Run("unknown id fails", func(t *testing.T) {
		_, err := resolveRun(ctx, runs, "19990101_000000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "19990101_000000")
	})
}

func TestWriteRankedTable(t *testing.T) {
	profiles := []*core.Profile{
		{
			Login:     "alice",
			Name:      "Alice Novak",
			Followers: 420,
			RepoCount: 12,
			Repositories: []core.Repository{
				{Name: "inference-server", Stars: 900},
			},
			Contributions: core.ContributionHistory{Total: 2100},
			Breakdown:     &core.ScoreBreakdown{Composite: 73.45},
		},
		{
			Login: "bob",
			Name:  "Bob Svoboda",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeRankedTable(&buf, profiles))

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "73.45")
	assert.Contains(t, out, "900")
	// Profiles without a breakdown render an empty score cell, not a zero.
	assert.Contains(t, out, "bob")
	assert.NotContains(t, out, "0.00")
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
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
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

	t.Run("default log level is info", func(t *testing.T) {
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
				level := c.String("log-level")
				assert.Equal(t, "info", level)
				return nil
			},
		}

		err := app.Run([]string{"test"})
		require.NoError(t, err)
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				level := c.String("log-level")
				assert.Equal(t, "debug", level)
				return nil
			},
		}

		err := app.Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()
	os.Exit(code)
}
