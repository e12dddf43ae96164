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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/poiesic/devscout"
	"github.com/poiesic/devscout/config"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/pipeline"
	"github.com/poiesic/devscout/storage"
	"github.com/urfave/cli/v2"
)

// Defaults for unset flags come from the config file and environment, so
// the flags below carry no Value of their own.
var runFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "GitHub user search query (e.g. \"location:prague\")",
	},
	&cli.IntFlag{
		Name:  "max-pages",
		Usage: "Search page walk limit",
	},
	&cli.IntFlag{
		Name:  "top-n",
		Usage: "Number of ranked profiles to keep",
	},
	&cli.IntFlag{
		Name:  "readme-n",
		Usage: "Enrich only the first N ranked profiles",
	},
	&cli.BoolFlag{
		Name:  "no-readmes",
		Usage: "Skip README enrichment",
	},
	&cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
	},
	&cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"o"},
		Usage:   "Directory for exported JSON artifacts",
	},
}

var rankFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "run",
		Usage: "Run ID to re-rank (default: latest run)",
	},
	&cli.IntFlag{
		Name:  "top-n",
		Usage: "Number of ranked profiles to show",
	},
	&cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
	},
}

var exportFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "run",
		Usage: "Run ID to export (default: latest run)",
	},
	&cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
	},
	&cli.StringFlag{
		Name:    "output-dir",
		Aliases: []string{"o"},
		Usage:   "Directory for exported JSON artifacts",
	},
}

func main() {
	app := &cli.App{
		Name:  "devscout",
		Usage: "Discover, rank, and enrich GitHub developer profiles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the full discovery pipeline for a search query",
				Action: runCommand,
				Flags:  runFlags,
			},
			{
				Name:   "rank",
				Usage:  "Re-rank a stored run with the current scoring model",
				Action: rankCommand,
				Flags:  rankFlags,
			},
			{
				Name:   "export",
				Usage:  "Export a stored run's snapshots as JSON artifacts",
				Action: exportCommand,
				Flags:  exportFlags,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	scout, err := devscout.NewScout(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer scout.Close()

	opts := []pipeline.Option{pipeline.WithProgress(os.Stderr)}
	if c.Bool("no-readmes") {
		opts = append(opts, pipeline.WithEnrichment(false))
	}
	if c.IsSet("readme-n") {
		opts = append(opts, pipeline.WithEnrichLimit(c.Int("readme-n")))
	}

	p, err := scout.NewPipeline(opts...)
	if err != nil {
		return err
	}
	defer p.Release()

	printRunHeader(cfg, !c.Bool("no-readmes"))

	record, err := p.Run(ctx, cfg.Search.Query)
	if err != nil {
		if record != nil {
			fmt.Fprintf(os.Stderr, "Partial results saved under run %s\n", record.Id)
		}
		return fmt.Errorf("run failed: %w", err)
	}

	ranked, err := scout.RunStore().GetProfiles(ctx, record.Id, storage.StageRanked)
	if err != nil {
		return fmt.Errorf("failed to load ranked profiles: %w", err)
	}
	return writeRankedTable(os.Stdout, ranked)
}

func rankCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	scout, err := devscout.NewScout(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer scout.Close()

	record, err := resolveRun(ctx, scout.RunStore(), c.String("run"))
	if err != nil {
		return err
	}

	// Re-rank the full discovered snapshot, not the stored top slice, so
	// changed weights can reorder or admit profiles the original run cut.
	profiles, err := scout.RunStore().GetProfiles(ctx, record.Id, storage.StageDiscovered)
	if err != nil {
		return fmt.Errorf("failed to load profiles for run %s: %w", record.Id, err)
	}

	ranker, err := scout.NewRanker()
	if err != nil {
		return err
	}
	ranked, excluded := ranker.Rank(profiles, time.Now().UTC())
	top := ranker.Top(ranked)

	fmt.Fprintf(os.Stderr, "Run %s: %d profiles, %d gated out, showing top %d\n",
		record.Id, len(profiles), excluded, len(top))
	return writeRankedTable(os.Stdout, top)
}

func exportCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	scout, err := devscout.NewScout(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer scout.Close()

	record, err := resolveRun(ctx, scout.RunStore(), c.String("run"))
	if err != nil {
		return err
	}

	exporter, err := scout.NewExporter()
	if err != nil {
		return err
	}

	paths, err := exporter.Export(ctx, record.Id)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "Run %s has no snapshots to export\n", record.Id)
		return nil
	}
	for _, path := range paths {
		fmt.Printf("Wrote %s\n", path)
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "Exported %d files for run %s\n", len(paths), record.Id)
	return nil
}

// loadConfig layers CLI flag overrides onto the loaded configuration.
// Flags not defined for the current command read as unset.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("query") {
		cfg.Search.Query = c.String("query")
	}
	if c.IsSet("max-pages") {
		cfg.Search.MaxPages = c.Int("max-pages")
	}
	if c.IsSet("top-n") {
		cfg.Rank.TopN = c.Int("top-n")
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
	}
	if c.IsSet("output-dir") {
		cfg.Output.Dir = c.String("output-dir")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveRun loads the named run, or the most recent one when id is empty.
func resolveRun(ctx context.Context, runs storage.RunStore, id string) (*core.RunRecord, error) {
	if id != "" {
		record, err := runs.GetRun(ctx, core.RunID(id))
		if err != nil {
			return nil, fmt.Errorf("failed to load run %s: %w", id, err)
		}
		return record, nil
	}
	record, err := runs.LatestRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("no stored runs: %w", err)
	}
	return record, nil
}

func printRunHeader(cfg *config.Config, readmes bool) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(os.Stderr, "devscout run")
	fmt.Fprintf(os.Stderr, "  query:     %s\n", cfg.Search.Query)
	fmt.Fprintf(os.Stderr, "  max pages: %d (up to %d users)\n",
		cfg.Search.MaxPages, cfg.Search.MaxPages*cfg.Search.PerPage)
	fmt.Fprintf(os.Stderr, "  top n:     %d\n", cfg.Rank.TopN)
	fmt.Fprintf(os.Stderr, "  readmes:   %t\n", readmes)
	fmt.Fprintln(os.Stderr)
}

// writeRankedTable renders ranked profiles with their composite scores.
func writeRankedTable(w io.Writer, profiles []*core.Profile) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Login", "Name", "Score", "Contrib", "Stars", "Followers", "Repos"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, p := range profiles {
		score := ""
		if p.Breakdown != nil {
			score = strconv.FormatFloat(p.Breakdown.Composite, 'f', 2, 64)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			string(p.Login),
			p.Name,
			score,
			strconv.Itoa(p.Contributions.Total),
			strconv.Itoa(p.TotalStars()),
			strconv.Itoa(p.Followers),
			strconv.Itoa(p.RepoCount),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
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
