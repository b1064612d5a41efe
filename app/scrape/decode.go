package scrape

import (
	"regexp"
	"strconv"
	"time"
)

const (
	liveBadgeLabel     = "正在直播"
	upcomingBadgeLabel = "已预约直播"
)

var (
	videoIDRe   = regexp.MustCompile(`"videoId":"([^"]+)"`)
	liveStyleRe = regexp.MustCompile(`"style":"LIVE"|"label":"LIVE"`)
	upcomingRe  = regexp.MustCompile(`"upcomingEventData":\{"startTime":"(\d+)"`)
	thumbnailRe = regexp.MustCompile(`"thumbnails":\[\{"url":"([^"]+)"`)

	// The thumbnail overlay renderer is an independent liveness signal
	// that can appear far from the top-level style marker.
	overlayLiveRe = regexp.MustCompile(`(?s)"thumbnailOverlayTimeStatusRenderer":\{.{0,300}?"style":"LIVE"`)
)

// DecodeItem turns one raw fragment into a canonical record. The second
// return value is false when the fragment carries no video ID, which
// marks it as not decodable; such fragments are dropped silently.
func DecodeItem(fragment string) (*ItemRecord, bool) {
	idMatch := videoIDRe.FindStringSubmatch(fragment)
	if idMatch == nil {
		return nil, false
	}
	videoID := idMatch[1]

	title := DecodeText(ExtractLabelledText(fragment, "title"))
	if title == "" {
		title = PlaceholderTitle
	}

	viewCount := DecodeText(ExtractLabelledText(fragment, "viewCountText"))
	if viewCount == "" {
		// API response variants carry the short-form label instead.
		viewCount = DecodeText(ExtractLabelledText(fragment, "shortViewCountText"))
	}

	record := &ItemRecord{
		ID:             videoID,
		Title:          title,
		CanonicalURL:   WatchURL(videoID),
		PublishedLabel: DecodeText(ExtractLabelledText(fragment, "publishedTimeText")),
		ViewCountLabel: viewCount,
	}

	if liveStyleRe.MatchString(fragment) {
		record.Badges = append(record.Badges, Badge{Kind: BadgeLive, Label: liveBadgeLabel})
	}

	if m := upcomingRe.FindStringSubmatch(fragment); m != nil {
		if secs, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			start := time.Unix(secs, 0)
			record.ScheduledStart = &start
			record.Badges = append(record.Badges, Badge{Kind: BadgeUpcoming, Label: upcomingBadgeLabel})
		}
	}

	if overlayLiveRe.MatchString(fragment) {
		record.Badges = append(record.Badges, Badge{Kind: BadgeLive, Label: liveBadgeLabel})
	}

	if m := thumbnailRe.FindStringSubmatch(fragment); m != nil {
		record.ThumbnailURL = DecodeText(m[1])
	}

	return record, true
}
