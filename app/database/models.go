package database

import (
	"time"
)

// Video is the persisted history row for one discovered video. The
// in-memory snapshot stays authoritative for the current list; these
// rows only track when a video was first and last observed.
type Video struct {
	VideoID        string     `json:"videoId"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	PublishedLabel string     `json:"publishedTimeText,omitempty"`
	ViewCountLabel string     `json:"viewCountText,omitempty"`
	ThumbnailURL   string     `json:"thumbnailUrl,omitempty"`
	IsLive         bool       `json:"isLive"`
	IsUpcoming     bool       `json:"isUpcoming"`
	ScheduledStart *time.Time `json:"scheduledStart,omitempty"`
	FirstSeenAt    time.Time  `json:"firstSeenAt"`
	LastSeenAt     time.Time  `json:"lastSeenAt"`
}

// Cycle records the outcome of one refresh cycle.
type Cycle struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	Outcome    string    `json:"outcome"`
	ItemCount  int       `json:"itemCount"`
	Message    string    `json:"message"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
