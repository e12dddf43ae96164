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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// ReasoningHost is the base URL for the justification service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	ReasoningHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-mpnet-base-v2", "text-embedding-3-small"
	EmbeddingModel string

	// ReasoningModel is the model identifier to use for match justifications.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	ReasoningModel string

	// MaxReasons caps how many justifications Explain returns per candidate.
	// Default: 3
	MaxReasons int

	// MinReasonLength is the minimum character length for a justification to
	// count as substantive. Shorter lines from the model are discarded.
	// Default: 20
	MinReasonLength int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithReasoningHost sets the justification service host URL.
func WithReasoningHost(host string) ConfigOption {
	return func(c *Config) {
		c.ReasoningHost = host
	}
}

// WithHost sets both embedding and reasoning hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ReasoningHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithReasoningModel sets the reasoning model identifier.
func WithReasoningModel(model string) ConfigOption {
	return func(c *Config) {
		c.ReasoningModel = model
	}
}

// WithMaxReasons sets the per-candidate justification cap.
func WithMaxReasons(n int) ConfigOption {
	return func(c *Config) {
		c.MaxReasons = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and reasoning use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:   defaultHost,
		ReasoningHost:   defaultHost,
		EmbeddingModel:  "all-mpnet-base-v2",
		ReasoningModel:  "qwen2.5:3b",
		MaxReasons:      3,
		MinReasonLength: 20,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//   )
//
// Example with different hosts:
//   cfg := NewConfig(
//       WithEmbeddingHost("http://localhost:11434/v1"),
//       WithReasoningHost("http://localhost:9100/v1"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	// Ensure EmbeddingHost ends with /v1 for OpenAI-compatible APIs
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	// Ensure ReasoningHost ends with /v1 for OpenAI-compatible APIs
	if c.ReasoningHost != "" && !strings.HasSuffix(c.ReasoningHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.ReasoningHost = strings.TrimSuffix(c.ReasoningHost, "/")
		c.ReasoningHost = c.ReasoningHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.ReasoningHost == "" {
		return errors.New("ai config: ReasoningHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.ReasoningModel == "" {
		return errors.New("ai config: ReasoningModel is required")
	}
	if c.MaxReasons < 1 || c.MaxReasons > 10 {
		return errors.New("ai config: MaxReasons must be between 1 and 10")
	}
	if c.MinReasonLength < 0 {
		return errors.New("ai config: MinReasonLength must not be negative")
	}
	return nil
}
