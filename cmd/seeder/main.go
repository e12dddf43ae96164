package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/devscout"
	"github.com/poiesic/devscout/ai/mock"
	"github.com/poiesic/devscout/config"
	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

// mockEmbeddingModel keys the seeded vectors in the embedding cache.
// Pass --mock to the searcher to reuse them.
const mockEmbeddingModel = "mock-embedder"

// seed describes one synthetic developer. perDay is the weekday
// contribution cadence over the trailing year; dormant profiles have all
// their activity at the far end of the window instead.
type seed struct {
	login     string
	name      string
	bio       string
	company   string
	location  string
	followers int
	perDay    int
	dormant   bool
	repos     []seedRepo
	readmes   map[string]string
}

// seedRepo is one repository: pushDays is days since the last push.
type seedRepo struct {
	name     string
	desc     string
	lang     string
	stars    int
	pushDays int
}

var seeds = []seed{
	{
		login:     "evahradska",
		name:      "Eva Hradska",
		bio:       "Computer vision researcher. PyTorch, ONNX, and making models fast in production.",
		company:   "@scalevision",
		location:  "Prague, Czech Republic",
		followers: 1340,
		perDay:    5,
		repos: []seedRepo{
			{"torchserve-lite", "Minimal model serving for PyTorch with dynamic batching", "Python", 1820, 4},
			{"onnx-quantizer", "Post-training quantization toolkit for ONNX graphs", "Python", 345, 21},
		},
		readmes: map[string]string{
			"torchserve-lite": "# torchserve-lite\n\nA small, fast model server for PyTorch. Dynamic batching, GPU\nscheduling, and zero-copy tensor handoff. Used in production for\nreal-time image classification and object detection workloads.",
			"onnx-quantizer":  "# onnx-quantizer\n\nPost-training INT8 quantization for ONNX models with per-channel\ncalibration. Cuts inference latency roughly in half on CPU.",
		},
	},
	{
		login:     "mkrejci-dev",
		name:      "Martin Krejci",
		bio:       "Embedded systems in Rust. Firmware, RTIC, and the occasional PCB.",
		location:  "Brno, Czech Republic",
		followers: 410,
		perDay:    3,
		repos: []seedRepo{
			{"rtic-sensors", "Sensor fusion crates for RTIC-based firmware", "Rust", 520, 9},
			{"no-std-hal", "Hardware abstraction layer for no_std targets", "Rust", 214, 35},
		},
		readmes: map[string]string{
			"rtic-sensors": "# rtic-sensors\n\nInterrupt-driven drivers for common IMU and environmental sensors,\nbuilt for the RTIC concurrency framework. All crates are no_std and\nallocation-free.",
		},
	},
	{
		login:     "anovakova",
		name:      "Adela Novakova",
		bio:       "Frontend engineer. React, TypeScript, design systems, accessibility.",
		company:   "@webforge",
		location:  "Prague, Czech Republic",
		followers: 2150,
		perDay:    4,
		repos: []seedRepo{
			{"react-data-grid", "Virtualized data grid for React with keyboard navigation", "TypeScript", 2380, 2},
			{"hooks-forms", "Form state management with React hooks and schema validation", "TypeScript", 385, 14},
		},
		readmes: map[string]string{
			"react-data-grid": "# react-data-grid\n\nA virtualized grid component for React: renders a million rows at\n60fps, full keyboard navigation, ARIA roles throughout, pluggable\ncell editors.",
			"hooks-forms":     "# hooks-forms\n\nHeadless form state for React. Field-level subscriptions, async\nvalidation, and first-class TypeScript inference for form schemas.",
		},
	},
	{
		login:     "pdvorak-viz",
		name:      "Petr Dvorak",
		bio:       "Data visualization and interactive graphics. D3, WebGL, dashboards.",
		location:  "Ostrava, Czech Republic",
		followers: 630,
		perDay:    2,
		repos: []seedRepo{
			{"d3-flamegraph", "Flame graph rendering for performance profiles", "JavaScript", 940, 27},
			{"plotly-themes", "Consistent publication-quality themes for Plotly", "Python", 120, 60},
		},
		readmes: map[string]string{
			"d3-flamegraph": "# d3-flamegraph\n\nRender CPU and allocation profiles as interactive flame graphs.\nZoom, search, and diff views; works with pprof and perf output.",
		},
	},
	{
		login:     "tsvoboda-tts",
		name:      "Tomas Svoboda",
		bio:       "Speech synthesis and audio ML. Building text-to-speech for Czech and Slovak.",
		company:   "@hlaslab",
		location:  "Prague, Czech Republic",
		followers: 980,
		perDay:    4,
		repos: []seedRepo{
			{"czech-tts", "Neural text-to-speech for Czech with voice cloning", "Python", 1510, 6},
			{"phoneme-aligner", "Forced alignment of phonemes to audio for TTS datasets", "Python", 232, 40},
		},
		readmes: map[string]string{
			"czech-tts":       "# czech-tts\n\nEnd-to-end neural text-to-speech for Czech. VITS-based acoustic\nmodel, speaker embedding support for voice cloning, and streaming\ninference under 200ms latency.",
			"phoneme-aligner": "# phoneme-aligner\n\nForced alignment tool for building TTS corpora: aligns phoneme\nsequences to recordings and emits Praat TextGrids.",
		},
	},
	{
		login:     "jprochazka-k8s",
		name:      "Jan Prochazka",
		bio:       "Platform engineering. Kubernetes operators, autoscaling, and boring reliable infra.",
		company:   "@cloudsmiths",
		location:  "Remote",
		followers: 4210,
		perDay:    6,
		repos: []seedRepo{
			{"kube-autoscaler", "Workload-aware cluster autoscaler with spot instance support", "Go", 3120, 1},
			{"helm-lint-action", "GitHub Action for strict Helm chart linting", "Go", 190, 48},
		},
		readmes: map[string]string{
			"kube-autoscaler": "# kube-autoscaler\n\nA Kubernetes cluster autoscaler that understands workload shapes:\nbin-packing aware scale-down, spot instance pools with graceful\npreemption handling, and per-namespace scaling policies.",
		},
	},
	{
		login:     "lkucerova-db",
		name:      "Lucie Kucerova",
		bio:       "Storage engines and database internals. LSM trees, B-trees, WALs.",
		location:  "Brno, Czech Republic",
		followers: 760,
		perDay:    3,
		repos: []seedRepo{
			{"lsm-engine", "Educational LSM-tree storage engine with leveled compaction", "Go", 764, 11},
			{"btree-bench", "Microbenchmarks for B-tree node layouts", "C", 88, 90},
		},
		readmes: map[string]string{
			"lsm-engine": "# lsm-engine\n\nA log-structured merge-tree storage engine written for clarity:\nmemtables, SSTables with bloom filters, leveled compaction, and a\ncrash-safe write-ahead log. Extensively commented.",
		},
	},
	{
		login:     "ohorak-mobile",
		name:      "Ondrej Horak",
		bio:       "Mobile developer. Flutter by day, Swift by night.",
		location:  "Prague, Czech Republic",
		followers: 540,
		perDay:    2,
		repos: []seedRepo{
			{"flutter-maps", "Offline-first map widgets for Flutter", "Dart", 642, 17},
			{"swift-charts-kit", "Animated chart components for SwiftUI", "Swift", 415, 33},
		},
		readmes: map[string]string{
			"flutter-maps": "# flutter-maps\n\nMap widgets for Flutter with offline tile caching, vector overlays,\nand smooth 120Hz panning. Ships with OpenStreetMap and Mapbox\nbackends.",
		},
	},
	{
		login:     "vbenes-sec",
		name:      "Vojtech Benes",
		bio:       "Application security. TLS, fuzzing, and secure-by-default tooling.",
		company:   "@trustline",
		location:  "Prague, Czech Republic",
		followers: 1120,
		perDay:    3,
		repos: []seedRepo{
			{"tls-auditor", "Scan TLS endpoints for weak configurations and expiring certs", "Go", 885, 8},
			{"fuzzdict", "Structured dictionaries for grammar-aware fuzzing", "Python", 152, 70},
		},
		readmes: map[string]string{
			"tls-auditor": "# tls-auditor\n\nAudits TLS endpoints at scale: protocol and cipher posture,\ncertificate chain health, OCSP stapling, and expiry alerting with\nPrometheus metrics.",
		},
	},
	{
		login:     "knemcova-game",
		name:      "Katerina Nemcova",
		bio:       "Game engine programmer. Voxels, ECS architectures, and GPU-driven rendering.",
		location:  "Pilsen, Czech Republic",
		followers: 1870,
		perDay:    4,
		repos: []seedRepo{
			{"voxel-engine", "GPU-driven voxel rendering engine with greedy meshing", "C++", 1240, 5},
			{"ecs-toolkit", "Cache-friendly entity component system library", "C++", 268, 25},
		},
		readmes: map[string]string{
			"voxel-engine": "# voxel-engine\n\nA voxel rendering engine built around GPU-driven culling and greedy\nmeshing. Streams 4096^3 worlds, day-night global illumination, and\na job-system backed chunk pipeline.",
		},
	},
	{
		login:     "rzeman-lang",
		name:      "Radek Zeman",
		bio:       "Compilers and programming languages. LLVM backends, type systems, parsers.",
		location:  "Olomouc, Czech Republic",
		followers: 390,
		perDay:    2,
		repos: []seedRepo{
			{"mini-llvm", "A teaching compiler from a C subset to LLVM IR", "C++", 537, 19},
			{"parser-gen", "Parser combinator library with good error recovery", "OCaml", 112, 55},
		},
		readmes: map[string]string{
			"mini-llvm": "# mini-llvm\n\nA compiler for a C subset targeting LLVM IR, written as course\nmaterial: lexer, recursive-descent parser, typed AST, SSA\nconstruction, and a handful of optimization passes.",
		},
	},
	{
		login:     "shajek-bio",
		name:      "Simona Hajek",
		bio:       "Bioinformatics pipelines. Sequence alignment, variant calling, workflow engines.",
		company:   "@genomika",
		location:  "Prague, Czech Republic",
		followers: 285,
		perDay:    1,
		repos: []seedRepo{
			{"genome-align", "Banded Smith-Waterman alignment with SIMD acceleration", "Python", 421, 13},
			{"fastq-tools", "Fast FASTQ filtering and deduplication", "Rust", 96, 44},
		},
		readmes: map[string]string{
			"genome-align": "# genome-align\n\nPairwise sequence alignment with a SIMD-accelerated banded\nSmith-Waterman core and Python bindings. Handles long-read data\nfrom Oxford Nanopore instruments.",
		},
	},

	// Dormant accounts exercise the activity gate.
	{
		login:     "dstary-legacy",
		name:      "David Stary",
		bio:       "Building things with PHP since 2008.",
		location:  "Prague, Czech Republic",
		followers: 85,
		dormant:   true,
		repos: []seedRepo{
			{"legacy-cms", "A content management system", "PHP", 34, 720},
			{"jquery-widgets", "Assorted jQuery UI widgets", "JavaScript", 12, 1100},
		},
	},
	{
		login:     "inactive-iveta",
		name:      "Iveta Mala",
		bio:       "Occasional open source.",
		location:  "Liberec, Czech Republic",
		followers: 40,
		dormant:   true,
		repos: []seedRepo{
			{"dotfiles", "My dotfiles", "Shell", 3, 540},
		},
	},
}

var (
	dbPath = flag.String("db", "devscout.db", "path to BadgerDB database directory")
	query  = flag.String("query", "", "optional demo search to run after seeding")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// buildProfile expands a seed into a full profile as of now.
func buildProfile(s seed, now time.Time) *core.Profile {
	daily := make([]int, core.ContributionDays)
	total := 0
	if s.dormant {
		// Two active months a year ago, then silence.
		for i := 0; i < 60; i++ {
			daily[i] = 2
			total += 2
		}
	} else {
		// Weekday cadence across the whole window; Daily is chronological
		// with the most recent day last.
		for i := range daily {
			if day := i % 7; day >= 1 && day <= 5 {
				daily[i] = s.perDay
				total += s.perDay
			}
		}
	}

	repos := make([]core.Repository, 0, len(s.repos))
	for _, r := range s.repos {
		repos = append(repos, core.Repository{
			Name:            r.name,
			Description:     r.desc,
			Stars:           r.stars,
			Forks:           r.stars / 8,
			PrimaryLanguage: r.lang,
			URL:             fmt.Sprintf("https://github.com/%s/%s", s.login, r.name),
			PushedAt:        now.AddDate(0, 0, -r.pushDays),
		})
	}

	return &core.Profile{
		Login:         core.Identifier(s.login),
		Name:          s.name,
		Bio:           s.bio,
		Company:       s.company,
		Location:      s.location,
		Followers:     s.followers,
		Following:     s.followers / 10,
		RepoCount:     len(s.repos) * 6,
		Repositories:  repos,
		Contributions: core.ContributionHistory{Total: total, Daily: daily},
		FetchedAt:     now,
	}
}

// readmesFor returns the seed README set for a login, or nil.
func readmesFor(login core.Identifier) map[string]string {
	for _, s := range seeds {
		if s.login == string(login) {
			return s.readmes
		}
	}
	return nil
}

func main() {
	cfg := config.Default()
	cfg.Storage.Path = *dbPath
	cfg.AI.EmbeddingModel = mockEmbeddingModel

	scout, err := devscout.NewScout(cfg, devscout.WithProvider(mock.NewMockProvider()))
	if err != nil {
		panic(err)
	}
	defer scout.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	profiles := make([]*core.Profile, 0, len(seeds))
	for _, s := range seeds {
		profiles = append(profiles, buildProfile(s, now))
	}

	ranker, err := scout.NewRanker()
	if err != nil {
		panic(err)
	}
	ranked, excluded := ranker.Rank(profiles, now)
	top := ranker.Top(ranked)

	enriched := make([]*core.EnrichedProfile, 0, len(top))
	for _, p := range top {
		enriched = append(enriched, &core.EnrichedProfile{
			Profile: *p,
			Readmes: readmesFor(p.Login),
		})
	}

	record := &core.RunRecord{
		Id:         core.NewRunID(now),
		Query:      "seed:synthetic",
		StartedAt:  now,
		FinishedAt: now.Add(2 * time.Second),
		Discovery:  core.PhaseStats{Succeeded: len(seeds), Duration: 400 * time.Millisecond},
		Fetch:      core.PhaseStats{Succeeded: len(seeds), Duration: time.Second},
		Ranking:    core.PhaseStats{Succeeded: len(ranked), Dropped: excluded, Duration: 20 * time.Millisecond},
		Enrichment: core.PhaseStats{Succeeded: len(enriched), Duration: 600 * time.Millisecond},
	}

	runs := scout.RunStore()
	if err := runs.SaveRun(ctx, record); err != nil {
		panic(err)
	}
	if err := runs.SaveProfiles(ctx, record.Id, storage.StageDiscovered, profiles); err != nil {
		panic(err)
	}
	if err := runs.SaveProfiles(ctx, record.Id, storage.StageRanked, top); err != nil {
		panic(err)
	}
	if err := runs.SaveEnriched(ctx, record.Id, enriched); err != nil {
		panic(err)
	}
	slog.Info("seeded run",
		"run", record.Id,
		"profiles", len(seeds),
		"ranked", len(ranked),
		"gated", excluded)

	// Warm the embedding cache so the first search is served from it.
	searcher, err := scout.NewSearcher()
	if err != nil {
		panic(err)
	}
	index, err := searcher.Index(ctx, enriched)
	if err != nil {
		panic(err)
	}
	slog.Info("embedding cache warmed", "vectors", index.Len())

	if *query != "" {
		results, err := searcher.Search(ctx, index, *query, 5)
		if err != nil {
			panic(err)
		}
		for i, hit := range results {
			fmt.Printf("%d: @%s [%0.3f]\n", i+1, hit.Profile.Login, hit.Score)
		}
	}
}
