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


package openai

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/devscout/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Explainer implements ai.Explainer using OpenAI-compatible chat APIs.
type Explainer struct {
	client          llms.Model
	maxReasons      int
	minReasonLength int
	logger          *slog.Logger
}

// reasonLine matches a numbered line such as "1. ..." or "2) ...".
var reasonLine = regexp.MustCompile(`^\d{1,2}[.)]\s+`)

// newExplainer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newExplainer(config *ai.Config) (*Explainer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/reasoning
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ReasoningHost),
		openai.WithToken("none"),
		openai.WithModel(config.ReasoningModel),
	)
	if err != nil {
		return nil, err
	}

	return &Explainer{
		client:          client,
		maxReasons:      config.MaxReasons,
		minReasonLength: config.MinReasonLength,
		logger:          slog.Default().With("component", "openai-explainer"),
	}, nil
}

// NewExplainer creates a new justification writer using the provided configuration.
//
// Returns ai.Explainer interface to enforce abstraction.
func NewExplainer(config *ai.Config) (ai.Explainer, error) {
	return newExplainer(config)
}

// Explain asks the chat model for numbered match justifications and parses
// them out of the response. A response with too few substantive lines yields
// an empty slice, not an error; callers fall back to their own heuristics.
func (e *Explainer) Explain(ctx context.Context, query string, candidate ai.Candidate) ([]string, error) {
	prompt := buildReasoningPrompt(query, buildCandidateText(candidate), e.maxReasons)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(reasoningSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(400))
	if err != nil {
		e.logger.Error("failed to generate justifications",
			"login", candidate.Login,
			"err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		e.logger.Debug("no choices returned from model", "login", candidate.Login)
		return []string{}, nil
	}

	reasons := e.parseReasons(response.Choices[0].Content)

	// Fewer than two substantive reasons means the model rambled or refused;
	// treat the whole response as unusable.
	minAccept := 2
	if e.maxReasons < minAccept {
		minAccept = e.maxReasons
	}
	if len(reasons) < minAccept {
		e.logger.Warn("model produced too few substantive reasons",
			"login", candidate.Login,
			"parsed", len(reasons))
		return []string{}, nil
	}

	if len(reasons) > e.maxReasons {
		reasons = reasons[:e.maxReasons]
	}

	e.logger.Debug("generated justifications",
		"login", candidate.Login,
		"count", len(reasons))
	return reasons, nil
}

// parseReasons extracts numbered lines from the model response, dropping
// anything too short to be a real justification.
func (e *Explainer) parseReasons(text string) []string {
	var reasons []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !reasonLine.MatchString(line) {
			continue
		}
		reason := strings.TrimSpace(reasonLine.ReplaceAllString(line, ""))
		if len(reason) > e.minReasonLength {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}
