package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
)

const (
	// DefaultPageDelay is the self-imposed wait between pagination
	// requests. A plain rate limit, not a retry backoff.
	DefaultPageDelay = 500 * time.Millisecond

	// DefaultMaxPages bounds a cycle against a looping token stream.
	// Hitting the cap is treated as soft exhaustion.
	DefaultMaxPages = 20
)

// Coordinator owns the fetch-decode-merge-continue loop of one refresh
// cycle. Cycles are serialized by the caller; the coordinator itself is
// not reentrant.
type Coordinator struct {
	client    *Client
	pageDelay time.Duration
	maxPages  int
}

func NewCoordinator(client *Client, pageDelay time.Duration, maxPages int) *Coordinator {
	if pageDelay <= 0 {
		pageDelay = DefaultPageDelay
	}
	if maxPages == 0 {
		maxPages = DefaultMaxPages
	}

	return &Coordinator{
		client:    client,
		pageDelay: pageDelay,
		maxPages:  maxPages,
	}
}

// refreshCycle holds the per-cycle accumulated records, keyed by video
// ID with insertion order preserved. First seen wins: later duplicates
// are dropped, never used to update existing records.
type refreshCycle struct {
	order []string
	byID  map[string]scrape.ItemRecord
}

func newRefreshCycle() *refreshCycle {
	return &refreshCycle{byID: make(map[string]scrape.ItemRecord)}
}

func (c *refreshCycle) merge(records []scrape.ItemRecord) int {
	added := 0
	for _, record := range records {
		if _, dup := c.byID[record.ID]; dup {
			continue
		}
		c.byID[record.ID] = record
		c.order = append(c.order, record.ID)
		added++
	}
	return added
}

func (c *refreshCycle) items() []scrape.ItemRecord {
	items := make([]scrape.ItemRecord, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.byID[id])
	}
	return items
}

// RunFullRefresh fetches the channel page and walks the continuation
// feed until the token stream runs out. A first-page failure aborts the
// whole cycle with an error; a follow-up failure ends pagination softly
// and commits whatever accumulated so far.
func (co *Coordinator) RunFullRefresh(ctx context.Context) ([]scrape.ItemRecord, error) {
	pageHTML, err := co.client.FetchChannelPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel page: %w", err)
	}

	cycle := newRefreshCycle()
	seeded := cycle.merge(scrape.ScanForItems(pageHTML))
	token := scrape.FindContinuationToken(pageHTML, scrape.ContextPage)
	apiKey := ExtractAPIKey(pageHTML)

	slog.Debug("Refresh cycle seeded", "items", seeded, "has_token", token != "")

	pages := 1
	for token != "" {
		if pages >= co.maxPages {
			slog.Warn("Pagination page cap reached, ending cycle", "pages", pages, "items", len(cycle.order))
			break
		}

		body, status, err := co.client.Browse(ctx, apiKey, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Continuation request failed, committing partial results", "pages", pages, "items", len(cycle.order), "error", err)
			break
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			slog.Warn("Continuation request returned non-success status, committing partial results", "status", status, "pages", pages, "items", len(cycle.order))
			break
		}

		added := cycle.merge(scrape.ScanForItems(body))
		token = scrape.FindContinuationToken(body, scrape.ContextAPIResponse)
		pages++

		slog.Debug("Continuation page merged", "page", pages, "added", added, "has_token", token != "")

		if token != "" {
			select {
			case <-time.After(co.pageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return cycle.items(), nil
}
