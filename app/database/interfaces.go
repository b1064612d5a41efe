package database

import (
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
	"github.com/litong-notes/ytb-chat-downloader/app/watch"
)

type HistoryRepository interface {
	UpsertVideo(record scrape.ItemRecord, seenAt time.Time) error
	RecordItems(items []scrape.ItemRecord, seenAt time.Time) error
	RecordCycle(result watch.CycleResult) error

	GetVideos(limit int) ([]Video, error)
	GetVideoCount() (int, error)
	GetRecentCycles(limit int) ([]Cycle, error)
}
