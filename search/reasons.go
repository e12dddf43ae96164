package search

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/devscout/core"
)

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// keywordReasons derives up to three justifications from term overlap
// between the query and the profile. It is the fallback when the
// reasoning service is unavailable or returns nothing substantive.
func keywordReasons(profile *core.EnrichedProfile, query string) []string {
	terms := tokenizeAndFilter(query)
	if len(terms) == 0 {
		return nil
	}

	var reasons []string

	if profile.Bio != "" && containsAnyTerm(strings.ToLower(profile.Bio), terms) {
		reasons = append(reasons, fmt.Sprintf("Bio mentions relevant expertise: \"%s\"", profile.Bio))
	}

	type repoMatch struct {
		repo    core.Repository
		snippet string
		matches int
	}

	repos := profile.Repositories
	if len(repos) > 10 {
		repos = repos[:10]
	}

	var matched []repoMatch
	for _, repo := range repos {
		readme := profile.Readmes[repo.Name]
		searchable := strings.ToLower(repo.Name + " " + repo.Description + " " + readme)

		matches := 0
		for _, term := range terms {
			if strings.Contains(searchable, term) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}

		snippet := readmeSnippet(readme, terms)
		if snippet == "" && repo.Description != "" {
			snippet = clipRunes(repo.Description, 150)
		}

		matched = append(matched, repoMatch{repo: repo, snippet: snippet, matches: matches})
	}

	// Stable so equally relevant repositories keep their profile order
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].matches > matched[j].matches
	})
	if len(matched) > 3 {
		matched = matched[:3]
	}

	for _, match := range matched {
		language := match.repo.PrimaryLanguage
		if language == "" {
			language = "N/A"
		}

		var reason string
		if match.snippet != "" {
			reason = fmt.Sprintf("Repository '%s' (%s): %s", match.repo.Name, language, match.snippet)
		} else {
			reason = fmt.Sprintf("Repository '%s' (%s) - relevant to search", match.repo.Name, language)
		}
		if utf8.RuneCountInString(reason) > 200 {
			reason = clipRunes(reason, 197) + "..."
		}
		reasons = append(reasons, reason)
	}

	if len(reasons) < 3 && profile.Company != "" && containsAnyTerm(strings.ToLower(profile.Company), terms) {
		reasons = append(reasons, fmt.Sprintf("Works at %s - relevant to field", profile.Company))
	}

	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return reasons
}

// readmeSnippet returns the first sentence among the first twenty that
// mentions a query term, clipped to 150 runes.
func readmeSnippet(readme string, terms []string) string {
	if readme == "" {
		return ""
	}

	sentences := sentenceSplit.Split(readme, -1)
	if len(sentences) > 20 {
		sentences = sentences[:20]
	}
	for _, sentence := range sentences {
		if containsAnyTerm(strings.ToLower(sentence), terms) {
			return clipRunes(strings.TrimSpace(sentence), 150)
		}
	}
	return ""
}
