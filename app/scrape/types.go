package scrape

import (
	"time"
)

// BadgeKind classifies a status badge attached to a video record.
type BadgeKind string

const (
	BadgeLive     BadgeKind = "live"
	BadgeUpcoming BadgeKind = "upcoming"
)

// Badge is one status signal decoded from an item fragment. Multiple
// independent signals may each contribute a badge of the same kind;
// duplicates are suppressed at render time, not at decode time.
type Badge struct {
	Kind  BadgeKind `json:"kind"`
	Label string    `json:"label"`
}

// PlaceholderTitle is used when a fragment carries no decodable title.
const PlaceholderTitle = "未命名直播"

// WatchURLPrefix is the canonical watch page prefix a video ID maps to.
const WatchURLPrefix = "https://www.youtube.com/watch?v="

// ItemRecord is the canonical decoded form of one live/upcoming video.
type ItemRecord struct {
	ID             string     `json:"videoId"`
	Title          string     `json:"title"`
	CanonicalURL   string     `json:"url"`
	PublishedLabel string     `json:"publishedTimeText,omitempty"`
	ViewCountLabel string     `json:"viewCountText,omitempty"`
	Badges         []Badge    `json:"badges,omitempty"`
	ScheduledStart *time.Time `json:"scheduledStart,omitempty"`
	ThumbnailURL   string     `json:"thumbnailUrl,omitempty"`
}

// IsLive reports whether any decoded badge marks the record as live.
func (r *ItemRecord) IsLive() bool {
	return r.hasBadge(BadgeLive)
}

// IsUpcoming reports whether any decoded badge marks the record as a
// scheduled upcoming stream.
func (r *ItemRecord) IsUpcoming() bool {
	return r.hasBadge(BadgeUpcoming)
}

func (r *ItemRecord) hasBadge(kind BadgeKind) bool {
	for _, b := range r.Badges {
		if b.Kind == kind {
			return true
		}
	}
	return false
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return WatchURLPrefix + videoID
}
