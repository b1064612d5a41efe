package rss

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
)

// FeedURLPrefix is YouTube's public per-channel feed endpoint.
const FeedURLPrefix = "https://www.youtube.com/feeds/videos.xml?channel_id="

// Reader pulls the channel's public RSS feed. The feed carries no
// liveness information, so records built from it have no badges and
// are only used as a fallback when page scraping yields nothing.
type Reader struct {
	parser     *gofeed.Parser
	httpClient *http.Client
	feedURL    string
	userAgent  string
}

func NewReader(httpClient *http.Client, channelID, userAgent string) *Reader {
	return &Reader{
		parser:     gofeed.NewParser(),
		httpClient: httpClient,
		feedURL:    FeedURLPrefix + channelID,
		userAgent:  userAgent,
	}
}

// NewReaderWithURL is used by tests and non-standard deployments to
// point the reader at an explicit feed URL.
func NewReaderWithURL(httpClient *http.Client, feedURL, userAgent string) *Reader {
	return &Reader{
		parser:     gofeed.NewParser(),
		httpClient: httpClient,
		feedURL:    feedURL,
		userAgent:  userAgent,
	}
}

// Fetch downloads and parses the channel feed into item records,
// deduplicated by video ID in feed order.
func (r *Reader) Fetch(ctx context.Context) ([]scrape.ItemRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	feed, err := r.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	seen := make(map[string]struct{})
	records := make([]scrape.ItemRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		videoID := videoIDFromItem(item)
		if videoID == "" {
			slog.Debug("Feed entry without a video ID, skipping", "link", item.Link)
			continue
		}
		if _, dup := seen[videoID]; dup {
			continue
		}
		seen[videoID] = struct{}{}

		records = append(records, scrape.ItemRecord{
			ID:             videoID,
			Title:          item.Title,
			CanonicalURL:   scrape.WatchURL(videoID),
			PublishedLabel: item.Published,
			ThumbnailURL:   thumbnailFromItem(item),
		})
	}

	return records, nil
}

// videoIDFromItem prefers the yt:videoId extension and falls back to
// the watch link's v parameter.
func videoIDFromItem(item *gofeed.Item) string {
	if ext, ok := item.Extensions["yt"]; ok {
		if ids, ok := ext["videoId"]; ok && len(ids) > 0 && ids[0].Value != "" {
			return ids[0].Value
		}
	}

	if item.Link != "" {
		if u, err := url.Parse(item.Link); err == nil {
			if v := u.Query().Get("v"); v != "" {
				return v
			}
		}
	}

	// Entry GUIDs look like "yt:video:<id>".
	if id, found := strings.CutPrefix(item.GUID, "yt:video:"); found {
		return id
	}

	return ""
}

func thumbnailFromItem(item *gofeed.Item) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	groups, ok := media["group"]
	if !ok || len(groups) == 0 {
		return ""
	}
	thumbs, ok := groups[0].Children["thumbnail"]
	if !ok || len(thumbs) == 0 {
		return ""
	}
	return thumbs[0].Attrs["url"]
}
