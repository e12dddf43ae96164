package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "DEVSCOUT_"

// sections are the top-level config groups an env key may address.
var sections = []string{"search", "fetch", "rank", "ai", "storage", "output"}

// Load builds a Config by layering an optional YAML file and environment
// variables over the defaults. Order of precedence (low -> high):
//  1. Default()
//  2. file (YAML) at path, or at $DEVSCOUT_CONFIG when path is empty
//  3. env (prefix DEVSCOUT_)
//
// The GitHub token additionally falls back to GITHUB_TOKEN, matching the
// conventional variable name.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("DEVSCOUT_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Environment variables: DEVSCOUT_TOKEN, DEVSCOUT_SEARCH_QUERY,
	// DEVSCOUT_RANK_TOP_N, ... A key addressing a known section splits at
	// that section; the rest keeps its underscores to match the koanf tags
	// (rank.weights gets a second split below).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return envKey(s)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Token == "" {
		cfg.Token = os.Getenv("GITHUB_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps an environment variable name to a koanf key,
// e.g. DEVSCOUT_RANK_WEIGHTS_STARS -> rank.weights.stars and
// DEVSCOUT_FETCH_BATCH_SIZE -> fetch.batch_size.
func envKey(name string) string {
	key := strings.ToLower(name)
	key = strings.TrimPrefix(key, "devscout_")
	for _, section := range sections {
		rest, ok := strings.CutPrefix(key, section+"_")
		if !ok {
			continue
		}
		key = section + "." + rest
		for _, group := range []string{"weights", "thresholds"} {
			if inner, ok := strings.CutPrefix(rest, group+"_"); ok && section == "rank" {
				key = section + "." + group + "." + inner
			}
		}
		break
	}
	return key
}
