package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/devscout/core"
	"github.com/poiesic/devscout/storage"
)

func TestRunRecordBasics(t *testing.T) {
	// Create in-memory stores
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	record := &core.RunRecord{
		Id:        core.NewRunID(now),
		Query:     "golang distributed systems",
		StartedAt: now,
		Discovery: core.PhaseStats{Succeeded: 500, Dropped: 20},
	}

	if err := runs.SaveRun(ctx, record); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}

	retrieved, err := runs.GetRun(ctx, record.Id)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}

	if retrieved.Query != "golang distributed systems" {
		t.Fatalf("Expected query to round-trip, got '%s'", retrieved.Query)
	}
	if retrieved.Discovery.Succeeded != 500 {
		t.Fatalf("Expected 500 discovered, got %d", retrieved.Discovery.Succeeded)
	}

	// Saving again overwrites
	record.FinishedAt = now.Add(2 * time.Minute)
	if err := runs.SaveRun(ctx, record); err != nil {
		t.Fatalf("Failed to overwrite run: %v", err)
	}
	retrieved, err = runs.GetRun(ctx, record.Id)
	if err != nil {
		t.Fatalf("Failed to get run after overwrite: %v", err)
	}
	if !retrieved.FinishedAt.Equal(record.FinishedAt) {
		t.Fatalf("Expected overwritten FinishedAt to persist")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = runs.GetRun(ctx, core.RunID("20250101_000000"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestLatestRunAndListRuns(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()

	// Empty store
	if _, err := runs.LatestRun(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty store, got %v", err)
	}

	// Save runs out of chronological order
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	starts := []time.Time{
		base.Add(1 * time.Hour),
		base.Add(72 * time.Hour),
		base,
	}
	for _, start := range starts {
		record := &core.RunRecord{
			Id:        core.NewRunID(start),
			Query:     "rust embedded",
			StartedAt: start,
		}
		if err := runs.SaveRun(ctx, record); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
	}

	latest, err := runs.LatestRun(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest run: %v", err)
	}
	if latest.Id != core.NewRunID(base.Add(72*time.Hour)) {
		t.Fatalf("Expected the chronologically last run, got %s", latest.Id)
	}

	all, err := runs.ListRuns(ctx)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(all))
	}

	// Most recent first
	for i := 0; i < len(all)-1; i++ {
		if string(all[i].Id) < string(all[i+1].Id) {
			t.Fatalf("Runs out of order: %s before %s", all[i].Id, all[i+1].Id)
		}
	}
}

func TestProfileSnapshots(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	id := core.NewRunID(now)

	discovered := []*core.Profile{
		{Login: "alice", Followers: 10, FetchedAt: now},
		{Login: "bob", Followers: 20, FetchedAt: now},
		{Login: "carol", Followers: 30, FetchedAt: now},
	}
	if err := runs.SaveProfiles(ctx, id, storage.StageDiscovered, discovered); err != nil {
		t.Fatalf("Failed to save discovered snapshot: %v", err)
	}

	// The ranked snapshot carries breakdowns and its own ordering
	ranked := []*core.Profile{
		{Login: "carol", Followers: 30, FetchedAt: now, Breakdown: &core.ScoreBreakdown{Composite: 88}},
		{Login: "alice", Followers: 10, FetchedAt: now, Breakdown: &core.ScoreBreakdown{Composite: 61}},
	}
	if err := runs.SaveProfiles(ctx, id, storage.StageRanked, ranked); err != nil {
		t.Fatalf("Failed to save ranked snapshot: %v", err)
	}

	got, err := runs.GetProfiles(ctx, id, storage.StageDiscovered)
	if err != nil {
		t.Fatalf("Failed to get discovered snapshot: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 profiles, got %d", len(got))
	}
	for i, login := range []core.Identifier{"alice", "bob", "carol"} {
		if got[i].Login != login {
			t.Fatalf("Expected %s at position %d, got %s", login, i, got[i].Login)
		}
	}

	got, err = runs.GetProfiles(ctx, id, storage.StageRanked)
	if err != nil {
		t.Fatalf("Failed to get ranked snapshot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 ranked profiles, got %d", len(got))
	}
	if got[0].Login != "carol" || got[0].Breakdown == nil || got[0].Breakdown.Composite != 88 {
		t.Fatalf("Ranked snapshot did not preserve order and breakdowns")
	}

	// Unknown run has no snapshots
	_, err = runs.GetProfiles(ctx, core.RunID("19990101_000000"), storage.StageDiscovered)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown run, got %v", err)
	}
}

func TestSaveProfiles_ReplacesSnapshot(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	id := core.NewRunID(now)

	first := []*core.Profile{
		{Login: "one", FetchedAt: now},
		{Login: "two", FetchedAt: now},
		{Login: "three", FetchedAt: now},
	}
	if err := runs.SaveProfiles(ctx, id, storage.StageDiscovered, first); err != nil {
		t.Fatalf("Failed to save first snapshot: %v", err)
	}

	second := []*core.Profile{
		{Login: "four", FetchedAt: now},
		{Login: "five", FetchedAt: now},
	}
	if err := runs.SaveProfiles(ctx, id, storage.StageDiscovered, second); err != nil {
		t.Fatalf("Failed to save second snapshot: %v", err)
	}

	got, err := runs.GetProfiles(ctx, id, storage.StageDiscovered)
	if err != nil {
		t.Fatalf("Failed to get snapshot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected replacement snapshot of 2, got %d", len(got))
	}
	if got[0].Login != "four" || got[1].Login != "five" {
		t.Fatalf("Expected replacement snapshot contents, got %s, %s", got[0].Login, got[1].Login)
	}
}

func TestProfileSnapshots_OrderAcrossManyEntries(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	id := core.NewRunID(now)

	// Enough entries that a naive decimal position key would misorder
	// (for example "10" sorting before "2")
	profiles := make([]*core.Profile, 300)
	for i := range profiles {
		profiles[i] = &core.Profile{
			Login:     core.Identifier(fmt.Sprintf("user-%d", i)),
			FetchedAt: now,
		}
	}
	if err := runs.SaveProfiles(ctx, id, storage.StageDiscovered, profiles); err != nil {
		t.Fatalf("Failed to save snapshot: %v", err)
	}

	got, err := runs.GetProfiles(ctx, id, storage.StageDiscovered)
	if err != nil {
		t.Fatalf("Failed to get snapshot: %v", err)
	}
	if len(got) != 300 {
		t.Fatalf("Expected 300 profiles, got %d", len(got))
	}
	for i := range got {
		want := core.Identifier(fmt.Sprintf("user-%d", i))
		if got[i].Login != want {
			t.Fatalf("Position %d: expected %s, got %s", i, want, got[i].Login)
		}
	}
}

func TestEnrichedSnapshots(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()
	id := core.NewRunID(now)

	enriched := []*core.EnrichedProfile{
		{
			Profile: core.Profile{Login: "alice", FetchedAt: now},
			Readmes: map[string]string{"proj": "# Proj\nDoes things."},
		},
		{
			Profile: core.Profile{Login: "bob", FetchedAt: now},
		},
	}
	if err := runs.SaveEnriched(ctx, id, enriched); err != nil {
		t.Fatalf("Failed to save enriched snapshot: %v", err)
	}

	got, err := runs.GetEnriched(ctx, id)
	if err != nil {
		t.Fatalf("Failed to get enriched snapshot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 enriched profiles, got %d", len(got))
	}
	if got[0].Login != "alice" {
		t.Fatalf("Expected alice first, got %s", got[0].Login)
	}
	if got[0].Readmes["proj"] == "" {
		t.Fatal("Expected README body to round-trip")
	}

	_, err = runs.GetEnriched(ctx, core.RunID("19990101_000000"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown run, got %v", err)
	}
}

func TestDeleteRun(t *testing.T) {
	runs, cache, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { cache.Close(); runs.Close(); backend.Close() }()

	ctx := context.Background()
	now := time.Now().UTC()

	keepID := core.NewRunID(now.Add(-time.Hour))
	dropID := core.NewRunID(now)

	for _, id := range []core.RunID{keepID, dropID} {
		record := &core.RunRecord{Id: id, Query: "q", StartedAt: now}
		if err := runs.SaveRun(ctx, record); err != nil {
			t.Fatalf("Failed to save run: %v", err)
		}
		profiles := []*core.Profile{{Login: "dev", FetchedAt: now}}
		if err := runs.SaveProfiles(ctx, id, storage.StageDiscovered, profiles); err != nil {
			t.Fatalf("Failed to save snapshot: %v", err)
		}
		enriched := []*core.EnrichedProfile{{Profile: core.Profile{Login: "dev", FetchedAt: now}}}
		if err := runs.SaveEnriched(ctx, id, enriched); err != nil {
			t.Fatalf("Failed to save enriched snapshot: %v", err)
		}
	}

	if err := runs.DeleteRun(ctx, dropID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}

	// Deleted run and its snapshots are gone
	if _, err := runs.GetRun(ctx, dropID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected deleted run summary to be gone, got %v", err)
	}
	if _, err := runs.GetProfiles(ctx, dropID, storage.StageDiscovered); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected deleted snapshot to be gone, got %v", err)
	}
	if _, err := runs.GetEnriched(ctx, dropID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected deleted enriched snapshot to be gone, got %v", err)
	}

	// Other run untouched
	if _, err := runs.GetRun(ctx, keepID); err != nil {
		t.Fatalf("Expected other run to survive, got %v", err)
	}
	if _, err := runs.GetProfiles(ctx, keepID, storage.StageDiscovered); err != nil {
		t.Fatalf("Expected other run's snapshot to survive, got %v", err)
	}

	// Deleting again reports not found
	if err := runs.DeleteRun(ctx, dropID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on repeat delete, got %v", err)
	}
}
