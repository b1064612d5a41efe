package api

import (
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/database"
	"github.com/litong-notes/ytb-chat-downloader/app/watch"
)

type WatcherInterface interface {
	Snapshot() watch.Snapshot
	Trigger(trigger watch.Trigger) error
	LastSuccessfulFetchAt() time.Time
}

var _ WatcherInterface = (*watch.Watcher)(nil)

type Handler struct {
	watcher     WatcherInterface
	historyRepo database.HistoryRepository
	channelURL  string
}
