package search

import (
	"strings"

	"github.com/poiesic/devscout/core"
)

// ProfileText flattens an enriched profile into the canonical text fed to
// the embedding service. Cached vectors are keyed by this text, so any
// change to the shape here invalidates every cached embedding.
func ProfileText(profile *core.EnrichedProfile) string {
	parts := make([]string, 0, 6)

	if profile.Login != "" {
		parts = append(parts, "GitHub username: "+string(profile.Login))
	}
	if profile.Bio != "" {
		parts = append(parts, "Bio: "+profile.Bio)
	}
	if profile.Location != "" {
		parts = append(parts, "Location: "+profile.Location)
	}
	if profile.Company != "" {
		parts = append(parts, "Company: "+profile.Company)
	}

	repoTexts := make([]string, 0, len(profile.Repositories))
	readmeTexts := make([]string, 0, len(profile.Repositories))
	for _, repo := range profile.Repositories {
		info := make([]string, 0, 3)
		if repo.Name != "" {
			info = append(info, "Repository: "+repo.Name)
		}
		if repo.Description != "" {
			info = append(info, "Description: "+repo.Description)
		}
		if repo.PrimaryLanguage != "" {
			info = append(info, "Language: "+repo.PrimaryLanguage)
		}
		if len(info) > 0 {
			repoTexts = append(repoTexts, strings.Join(info, " | "))
		}

		readme := profile.Readmes[repo.Name]
		if strings.TrimSpace(readme) == "" {
			continue
		}
		name := repo.Name
		if name == "" {
			name = "repository"
		}
		readmeTexts = append(readmeTexts, "README for "+name+": "+readme)
	}
	if len(repoTexts) > 0 {
		parts = append(parts, "Repositories: "+strings.Join(repoTexts, " || "))
	}
	if len(readmeTexts) > 0 {
		parts = append(parts, "Repository READMEs: "+strings.Join(readmeTexts, " || "))
	}

	return strings.Join(parts, " ")
}

// Stop words to filter out when deriving query terms
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation,
// and removes stop words and duplicates. First-occurrence order is kept.
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))
	seen := make(map[string]bool, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words, duplicates and empty strings
		if cleaned == "" || stopWords[cleaned] || seen[cleaned] {
			continue
		}
		seen[cleaned] = true
		filtered = append(filtered, cleaned)
	}

	return filtered
}

// containsAnyTerm reports whether any term occurs as a substring of text.
// text must already be lowercased.
func containsAnyTerm(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// clipRunes truncates s to at most n runes.
func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
