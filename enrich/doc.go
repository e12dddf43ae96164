// Package enrich attaches repository README text to ranked profiles.
//
// Enrichment is best-effort: a repository without a README, or
// one whose fetch fails, simply stays absent from the profile's README
// map. Per-profile work runs on a bounded worker pool while the GitHub
// client's rate gate keeps the underlying requests spaced out.
package enrich
