package openai

import "unicode/utf8"

// Prompt budgets for small local models: per-README and whole-profile caps
// leave the model headroom to answer within its context window.
const (
	maxReadmeChars  = 2000
	maxProfileChars = 4000
)

// clip cuts s at max bytes, backing up to a rune boundary, and appends the
// marker when anything was cut.
func clip(s string, max int, marker string) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + marker
}
