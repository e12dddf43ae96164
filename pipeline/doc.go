// Package pipeline orchestrates a complete devscout collection run.
//
// A run walks four sequential phases:
//   - discovery: paginated user search plus dedup
//   - fetch: batched profile hydration with a second-chance retry pass
//   - ranking: scoring, the activity gate, and the top-N cut
//   - enrichment: best-effort README collection for the top slice
//
// Each phase's snapshot is persisted to the run store as it lands, so a
// cancelled or quota-starved run still leaves inspectable artifacts. The
// run summary records succeeded and dropped counts plus wall-clock
// duration per phase, and the snapshots can be exported as JSON files.
package pipeline
