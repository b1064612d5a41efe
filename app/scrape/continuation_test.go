package scrape

import (
	"testing"
)

func TestFindContinuationTokenPageLastMatchWins(t *testing.T) {
	// Earlier matches of the same shape belong to unrelated sections;
	// the main feed's token appears last.
	body := `"continuationCommand":{"token":"sidebar-token"},` +
		`"continuationCommand":{"token":"shelf-token"},` +
		`"continuationCommand":{"token":"main-feed-token"}`

	got := FindContinuationToken(body, ContextPage)
	if got != "main-feed-token" {
		t.Errorf("Expected last match 'main-feed-token', got: %s", got)
	}
}

func TestFindContinuationTokenPagePatternPriority(t *testing.T) {
	// The first pattern that yields any match wins, even when a lower
	// priority pattern also matches.
	body := `"nextContinuationData":{"continuation":"legacy-token"},` +
		`"continuationCommand":{"token":"command-token"}`

	got := FindContinuationToken(body, ContextPage)
	if got != "command-token" {
		t.Errorf("Expected command-style token, got: %s", got)
	}
}

func TestFindContinuationTokenPageLegacyFallback(t *testing.T) {
	body := `"nextContinuationData":{"continuation":"legacy-token"}`

	got := FindContinuationToken(body, ContextPage)
	if got != "legacy-token" {
		t.Errorf("Expected legacy token, got: %s", got)
	}
}

func TestFindContinuationTokenPageMiss(t *testing.T) {
	got := FindContinuationToken(`{"contents":[]}`, ContextPage)
	if got != "" {
		t.Errorf("Expected empty token, got: %s", got)
	}
}

func TestFindContinuationTokenAPIResponse(t *testing.T) {
	body := `{
		"onResponseReceivedActions": [
			{
				"appendContinuationItemsAction": {
					"continuationItems": [
						{"richItemRenderer": {"content": {"videoRenderer": {"videoId": "vid1"}}}},
						{"continuationItemRenderer": {"continuationEndpoint": {"continuationCommand": {"token": "next-page-token"}}}}
					]
				}
			}
		]
	}`

	got := FindContinuationToken(body, ContextAPIResponse)
	if got != "next-page-token" {
		t.Errorf("Expected 'next-page-token', got: %s", got)
	}
}

func TestFindContinuationTokenAPIResponseExhausted(t *testing.T) {
	body := `{
		"onResponseReceivedActions": [
			{
				"appendContinuationItemsAction": {
					"continuationItems": [
						{"richItemRenderer": {"content": {"videoRenderer": {"videoId": "vid1"}}}}
					]
				}
			}
		]
	}`

	if got := FindContinuationToken(body, ContextAPIResponse); got != "" {
		t.Errorf("Expected exhaustion (empty token), got: %s", got)
	}
}

func TestFindContinuationTokenAPIResponseMalformed(t *testing.T) {
	// A body that fails to unmarshal is token-less, not an error.
	for _, body := range []string{"", "not json at all", `{"onResponseReceivedActions": "wrong type"}`} {
		if got := FindContinuationToken(body, ContextAPIResponse); got != "" {
			t.Errorf("Expected empty token for malformed body %q, got: %s", body, got)
		}
	}
}
