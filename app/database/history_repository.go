package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
	"github.com/litong-notes/ytb-chat-downloader/app/watch"
)

var _ HistoryRepository = (*historyRepository)(nil)

type historyRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) HistoryRepository {
	return &historyRepository{db: db}
}

// UpsertVideo inserts a newly discovered video or refreshes the
// last-seen timestamp and mutable fields of a known one. first_seen_at
// is never rewritten.
func (r *historyRepository) UpsertVideo(record scrape.ItemRecord, seenAt time.Time) error {
	var scheduledStart *time.Time
	if record.ScheduledStart != nil {
		t := record.ScheduledStart.UTC()
		scheduledStart = &t
	}

	_, err := r.db.Exec(`
		INSERT INTO videos (
			video_id, title, url, published_label, view_count_label,
			thumbnail_url, is_live, is_upcoming, scheduled_start,
			first_seen_at, last_seen_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			title = excluded.title,
			published_label = excluded.published_label,
			view_count_label = excluded.view_count_label,
			thumbnail_url = excluded.thumbnail_url,
			is_live = excluded.is_live,
			is_upcoming = excluded.is_upcoming,
			scheduled_start = excluded.scheduled_start,
			last_seen_at = excluded.last_seen_at
	`, record.ID, record.Title, record.CanonicalURL, record.PublishedLabel,
		record.ViewCountLabel, record.ThumbnailURL, record.IsLive(),
		record.IsUpcoming(), scheduledStart, seenAt.UTC(), seenAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

func (r *historyRepository) RecordItems(items []scrape.ItemRecord, seenAt time.Time) error {
	for _, item := range items {
		if err := r.UpsertVideo(item, seenAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *historyRepository) RecordCycle(result watch.CycleResult) error {
	_, err := r.db.Exec(`
		INSERT INTO cycles (id, trigger_kind, outcome, item_count, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.ID, string(result.Trigger), result.Outcome, result.ItemCount,
		result.Message, result.StartedAt.UTC(), result.FinishedAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to record cycle: %w", err)
	}

	return nil
}

// GetVideos returns history rows most recently seen first.
func (r *historyRepository) GetVideos(limit int) ([]Video, error) {
	rows, err := r.db.Query(`
		SELECT video_id, title, url, published_label, view_count_label,
		       thumbnail_url, is_live, is_upcoming, scheduled_start,
		       first_seen_at, last_seen_at
		FROM videos
		ORDER BY last_seen_at DESC, first_seen_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		var scheduledStart sql.NullTime
		err := rows.Scan(&v.VideoID, &v.Title, &v.URL, &v.PublishedLabel,
			&v.ViewCountLabel, &v.ThumbnailURL, &v.IsLive, &v.IsUpcoming,
			&scheduledStart, &v.FirstSeenAt, &v.LastSeenAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		if scheduledStart.Valid {
			t := scheduledStart.Time
			v.ScheduledStart = &t
		}
		videos = append(videos, v)
	}

	return videos, rows.Err()
}

func (r *historyRepository) GetVideoCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

func (r *historyRepository) GetRecentCycles(limit int) ([]Cycle, error) {
	rows, err := r.db.Query(`
		SELECT id, trigger_kind, outcome, item_count, message, started_at, finished_at
		FROM cycles
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer rows.Close()

	var cycles []Cycle
	for rows.Next() {
		var c Cycle
		err := rows.Scan(&c.ID, &c.Trigger, &c.Outcome, &c.ItemCount,
			&c.Message, &c.StartedAt, &c.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		cycles = append(cycles, c)
	}

	return cycles, rows.Err()
}
