package database

import (
	"testing"
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
	"github.com/litong-notes/ytb-chat-downloader/app/watch"
)

func newTestRepository(t *testing.T) HistoryRepository {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewHistoryRepository(db)
}

func TestUpsertVideoPreservesFirstSeen(t *testing.T) {
	repo := newTestRepository(t)

	firstSeen := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	record := scrape.ItemRecord{
		ID:           "vid-1",
		Title:        "Original Title",
		CanonicalURL: scrape.WatchURL("vid-1"),
		Badges:       []scrape.Badge{{Kind: scrape.BadgeLive, Label: "正在直播"}},
	}

	if err := repo.UpsertVideo(record, firstSeen); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	laterSeen := firstSeen.Add(2 * time.Hour)
	record.Title = "Updated Title"
	if err := repo.UpsertVideo(record, laterSeen); err != nil {
		t.Fatalf("Failed to upsert again: %v", err)
	}

	videos, err := repo.GetVideos(10)
	if err != nil {
		t.Fatalf("Failed to query videos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("Expected 1 video, got %d", len(videos))
	}

	v := videos[0]
	if v.Title != "Updated Title" {
		t.Errorf("Expected mutable fields refreshed, got title: %s", v.Title)
	}
	if !v.FirstSeenAt.Equal(firstSeen) {
		t.Errorf("Expected first_seen_at preserved at %v, got %v", firstSeen, v.FirstSeenAt)
	}
	if !v.LastSeenAt.Equal(laterSeen) {
		t.Errorf("Expected last_seen_at advanced to %v, got %v", laterSeen, v.LastSeenAt)
	}
	if !v.IsLive {
		t.Error("Expected live flag persisted")
	}
}

func TestRecordItemsAndCount(t *testing.T) {
	repo := newTestRepository(t)

	start := time.Date(2025, 8, 2, 9, 0, 0, 0, time.UTC)
	items := []scrape.ItemRecord{
		{ID: "a", Title: "A", CanonicalURL: scrape.WatchURL("a")},
		{ID: "b", Title: "B", CanonicalURL: scrape.WatchURL("b")},
	}

	if err := repo.RecordItems(items, start); err != nil {
		t.Fatalf("Failed to record items: %v", err)
	}

	count, err := repo.GetVideoCount()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 videos, got %d", count)
	}
}

func TestRecordCycle(t *testing.T) {
	repo := newTestRepository(t)

	started := time.Date(2025, 8, 3, 10, 0, 0, 0, time.UTC)
	result := watch.CycleResult{
		ID:         "cycle-1",
		Trigger:    watch.TriggerManual,
		Outcome:    "success",
		ItemCount:  3,
		Message:    "ok",
		StartedAt:  started,
		FinishedAt: started.Add(5 * time.Second),
	}

	if err := repo.RecordCycle(result); err != nil {
		t.Fatalf("Failed to record cycle: %v", err)
	}

	cycles, err := repo.GetRecentCycles(5)
	if err != nil {
		t.Fatalf("Failed to query cycles: %v", err)
	}
	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}

	c := cycles[0]
	if c.ID != "cycle-1" || c.Trigger != "manual" || c.Outcome != "success" || c.ItemCount != 3 {
		t.Errorf("Unexpected cycle row: %+v", c)
	}
}

func TestScheduledStartRoundTrip(t *testing.T) {
	repo := newTestRepository(t)

	start := time.Date(2025, 9, 1, 20, 0, 0, 0, time.UTC)
	seen := time.Date(2025, 8, 30, 8, 0, 0, 0, time.UTC)
	record := scrape.ItemRecord{
		ID:             "upcoming-1",
		Title:          "Scheduled Stream",
		CanonicalURL:   scrape.WatchURL("upcoming-1"),
		ScheduledStart: &start,
		Badges:         []scrape.Badge{{Kind: scrape.BadgeUpcoming, Label: "已预约直播"}},
	}

	if err := repo.UpsertVideo(record, seen); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	videos, err := repo.GetVideos(1)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("Expected 1 video, got %d", len(videos))
	}
	if videos[0].ScheduledStart == nil {
		t.Fatal("Expected scheduled start persisted")
	}
	if !videos[0].ScheduledStart.Equal(start) {
		t.Errorf("Expected scheduled start %v, got %v", start, videos[0].ScheduledStart)
	}
	if !videos[0].IsUpcoming {
		t.Error("Expected upcoming flag persisted")
	}
}
