package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func tableExists(t *testing.T, s *Store, name string) bool {
	t.Helper()
	var got string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&got)
	return err == nil && got == name
}

func TestAutoMigrationCreatesOwnedTables(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{TableLLMRequestEvents, TableRateLimitWindows} {
		if !tableExists(t, s, name) {
			t.Errorf("table %s missing", name)
		}
	}
	if tableExists(t, s, TablePracAttempts) {
		t.Error("dataset tables must not be created by Open")
	}
}

func TestMigrateDataset(t *testing.T) {
	s := openTestStore(t)
	if err := s.MigrateDataset(context.Background()); err != nil {
		t.Fatalf("migrate dataset: %v", err)
	}
	for _, tbl := range datasetTables() {
		if !tableExists(t, s, tbl.Name) {
			t.Errorf("table %s missing", tbl.Name)
		}
	}
	// Idempotent.
	if err := s.MigrateDataset(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestAppendAndQueryLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, purpose := range []string{"insight", "chat", "insight"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "gemini",
			Model:        "gemini-2.5-flash",
			Purpose:      purpose,
			InputTokens:  100 * (i + 1),
			OutputTokens: 10 * (i + 1),
			LatencyMs:    int64(200 * (i + 1)),
			Success:      true,
			RequestBody:  "[user]\nhello",
			ResponseBody: "hi",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID <= events[1].ID {
		t.Errorf("events not newest first: %d, %d", events[0].ID, events[1].ID)
	}
	if events[0].InputTokens != 300 || !events[0].Success {
		t.Errorf("unexpected newest event %+v", events[0])
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp")
	}

	older, err := repo.QueryLLMEvents(ctx, QueryOpts{Before: int64(events[1].ID)})
	if err != nil {
		t.Fatalf("query before: %v", err)
	}
	if len(older) != 1 {
		t.Errorf("got %d older events, want 1", len(older))
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.ResponseBody != "hi" || e.RequestBody != "[user]\nhello" {
		t.Errorf("unexpected event %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing event")
	}
}

func TestLLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	rows := []LLMRequestEventData{
		{Model: "gemini-2.5-flash", Purpose: "insight", InputTokens: 100, OutputTokens: 50, LatencyMs: 100, Success: true},
		{Model: "gemini-2.5-flash", Purpose: "insight", InputTokens: 200, OutputTokens: 50, LatencyMs: 300, Success: true},
		{Model: "gpt-4o", Purpose: "chat", InputTokens: 10, OutputTokens: 5, LatencyMs: 50, Success: true},
		{Model: "gpt-4o", Purpose: "chat", LatencyMs: 50, Success: false, ErrorMessage: "boom"},
	}
	for _, r := range rows {
		if err := repo.AppendLLMRequest(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	insight := byPurpose[1]
	if insight.Purpose != "insight" || insight.Calls != 2 || insight.InputTokens != 300 || insight.AvgLatencyMs != 200 {
		t.Errorf("unexpected insight usage %+v", insight)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 {
		t.Fatalf("got %d models, want 2", len(byModel))
	}
	// Failed calls are not billed.
	if byModel[1].Model != "gpt-4o" || byModel[1].Calls != 1 {
		t.Errorf("unexpected model usage %+v", byModel[1])
	}
}

func TestRateLimitWindows(t *testing.T) {
	s := openTestStore(t)
	repo := s.RateLimitRepo()
	ctx := context.Background()

	w, err := repo.GetWindow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if w != nil {
		t.Fatal("expected no window")
	}

	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := repo.PutWindow(ctx, RateLimitWindow{Key: "10.0.0.1", Start: start, Count: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutWindow(ctx, RateLimitWindow{Key: "10.0.0.1", Start: start, Count: 4}); err != nil {
		t.Fatalf("put again: %v", err)
	}

	w, err = repo.GetWindow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if w == nil || w.Count != 4 || !w.Start.Equal(start) {
		t.Fatalf("unexpected window %+v", w)
	}

	n, err := repo.PruneWindows(ctx, start.Add(time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d windows, want 1", n)
	}
}
