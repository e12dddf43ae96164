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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/devscout"
	"github.com/poiesic/devscout/ai/mock"
	"github.com/poiesic/devscout/config"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/search"
	"github.com/poiesic/devscout/storage"
	"github.com/urfave/cli/v2"
)

// mockEmbeddingModel keys mock vectors in the embedding cache so they
// never collide with entries produced by a real model.
const mockEmbeddingModel = "mock-embedder"

var searchFlags = []cli.Flag{
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
	&cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
	},
	&cli.StringFlag{
		Name:  "run",
		Usage: "Run ID to search (default: latest run)",
	},
	&cli.StringFlag{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Single query to search (non-interactive mode)",
	},
	&cli.IntFlag{
		Name:    "top-k",
		Aliases: []string{"k"},
		Usage:   "Number of results to return",
		Value:   10,
	},
	&cli.BoolFlag{
		Name:  "no-reasons",
		Usage: "Skip match justifications",
	},
	&cli.BoolFlag{
		Name:  "mock",
		Usage: "Use the deterministic in-process embedder (no AI service needed)",
	},
}

func main() {
	app := &cli.App{
		Name:   "searcher",
		Usage:  "Semantic search over a stored run's enriched profiles",
		Flags:  searchFlags,
		Before: setupLogger,
		Action: searchCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
	}

	var scoutOpts []devscout.ScoutOption
	if c.Bool("mock") {
		cfg.AI.EmbeddingModel = mockEmbeddingModel
		scoutOpts = append(scoutOpts, devscout.WithProvider(mock.NewMockProvider()))
	}

	scout, err := devscout.NewScout(cfg, scoutOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer scout.Close()

	record, err := resolveRun(ctx, scout.RunStore(), c.String("run"))
	if err != nil {
		return err
	}

	profiles, err := scout.RunStore().GetEnriched(ctx, record.Id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("run %s has no enriched profiles to search; rerun the pipeline with readmes enabled", record.Id)
	}
	if err != nil {
		return fmt.Errorf("failed to load enriched profiles for run %s: %w", record.Id, err)
	}

	var searchOpts []search.Option
	if c.Bool("no-reasons") {
		searchOpts = append(searchOpts, search.WithReasoning(false))
	}
	searcher, err := scout.NewSearcher(searchOpts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Indexing %d profiles from run %s\n", len(profiles), record.Id)
	index, err := searcher.Index(ctx, profiles)
	if err != nil {
		return fmt.Errorf("failed to index profiles: %w", err)
	}

	topK := c.Int("top-k")
	if c.IsSet("query") {
		return runQuery(ctx, os.Stdout, searcher, index, c.String("query"), topK)
	}
	return runInteractive(ctx, os.Stdin, os.Stdout, searcher, index, topK)
}

func runQuery(ctx context.Context, w io.Writer, searcher *search.Searcher, index *search.Index, query string, topK int) error {
	results, err := searcher.Search(ctx, index, query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	printResults(w, query, results)
	return nil
}

// runInteractive reads queries from in until quit or EOF. A failed query
// reports its error and keeps the loop alive.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, searcher *search.Searcher, index *search.Index, topK int) error {
	printBanner(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Search query: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\nGoodbye!")
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		switch strings.ToLower(query) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case "help":
			printHelp(out)
			continue
		}

		results, err := searcher.Search(ctx, index, query, topK)
		if err != nil {
			fmt.Fprintf(out, "\nError: %v\n", err)
			continue
		}
		printResults(out, query, results)
	}
}

func printBanner(w io.Writer) {
	rule := strings.Repeat("=", 72)
	title := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w, rule)
	title.Fprintln(w, "devscout talent search")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "\nSearch for developers by skills, projects, or areas of expertise")
	fmt.Fprintln(w, "(e.g. \"text-to-speech\", \"machine learning\", \"react developer\").")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  - Type a search query and press Enter")
	fmt.Fprintln(w, "  - Type 'quit' or 'exit' to leave")
	fmt.Fprintln(w, "  - Type 'help' for this message")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "\nEnter keywords to search for developers.")
	fmt.Fprintln(w, "Examples: \"text-to-speech\", \"rust compiler\", \"mobile development\"")
	fmt.Fprintln(w)
}

// printResults renders hits the way a recruiter reads them: rank, profile
// link, match strength, and the reasons behind the match.
func printResults(w io.Writer, query string, results []*core.SearchResult) {
	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "\nTop candidates for %q\n\n", query)

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	for rank, hit := range results {
		fmt.Fprintf(w, "%d. @%s\n", rank+1, hit.Profile.Login)
		fmt.Fprintf(w, "   https://github.com/%s\n", hit.Profile.Login)
		fmt.Fprintf(w, "   Match score: %.1f%%\n", hit.Score*100)
		if len(hit.Reasons) > 0 {
			fmt.Fprintln(w, "   Why this candidate fits:")
			for i, reason := range hit.Reasons {
				fmt.Fprintf(w, "      %d. %s\n", i+1, reason)
			}
		}
		fmt.Fprintln(w)
	}
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

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
