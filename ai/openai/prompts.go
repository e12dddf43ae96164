package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/devscout/ai"
)

const reasoningSystemPrompt = "You are a professional HR specialist. Provide concise, numbered responses. No preambles or extra text."

const reasoningPromptTemplate = `You are an HR specialist. Based on this GitHub profile, write exactly %d reasons why this candidate matches the job requirements.

JOB REQUIREMENTS:
%s

CANDIDATE PROFILE:
%s

Write %d specific reasons. Each reason should mention a specific repository or technology from their profile. Number them starting at 1.`

// buildReasoningPrompt assembles the user prompt for the reasoning model.
func buildReasoningPrompt(query, profileText string, n int) string {
	return fmt.Sprintf(reasoningPromptTemplate, n, query, profileText, n)
}

// buildCandidateText renders a Candidate as the plain-text profile block the
// reasoning prompt embeds. README bodies are truncated per repository and the
// whole block is capped so small local models keep headroom for the answer.
func buildCandidateText(c ai.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GitHub Username: @%s", c.Login)

	if c.Bio != "" {
		fmt.Fprintf(&b, "\nBio: %s", c.Bio)
	}
	if c.Location != "" {
		fmt.Fprintf(&b, "\nLocation: %s", c.Location)
	}
	if c.Company != "" {
		fmt.Fprintf(&b, "\nCompany: %s", c.Company)
	}

	if len(c.Repositories) > 0 {
		fmt.Fprintf(&b, "\n\nRepositories (%d total):", len(c.Repositories))
		for i, repo := range c.Repositories {
			fmt.Fprintf(&b, "\n\n%d. %s", i+1, repo.Name)
			if repo.Description != "" {
				fmt.Fprintf(&b, "\n   Description: %s", repo.Description)
			}
			if repo.Language != "" {
				fmt.Fprintf(&b, "\n   Language: %s", repo.Language)
			}
			if repo.Stars > 0 {
				fmt.Fprintf(&b, "\n   Stars: %d", repo.Stars)
			}
			if repo.Readme != "" {
				fmt.Fprintf(&b, "\n   README: %s", clip(repo.Readme, maxReadmeChars, "..."))
			}
		}
	}

	return clip(b.String(), maxProfileChars, "\n... [profile truncated for brevity]")
}
