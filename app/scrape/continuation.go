package scrape

import (
	"encoding/json"
	"regexp"
)

// ScanContext tells the continuation resolver what kind of body it is
// looking at: the initial channel page or a browse API response.
type ScanContext string

const (
	ContextPage        ScanContext = "page"
	ContextAPIResponse ScanContext = "api-response"
)

// Token-location patterns for page bodies, in priority order. The main
// feed's pagination token, when present, appears last among same-shaped
// matches; earlier matches belong to unrelated page sections, so for
// each pattern all matches are collected and the last one is taken.
var pageTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"continuationCommand":\{"token":"([^"]+)"`),
	regexp.MustCompile(`"nextContinuationData":\{"continuation":"([^"]+)"`),
	regexp.MustCompile(`"continuation":"([^"]+)"`),
}

// FindContinuationToken extracts the opaque token that fetches the next
// page. An empty string means pagination is exhausted.
func FindContinuationToken(body string, scanCtx ScanContext) string {
	if scanCtx == ContextAPIResponse {
		return apiResponseToken(body)
	}
	return pageToken(body)
}

func pageToken(body string) string {
	for _, pattern := range pageTokenPatterns {
		matches := pattern.FindAllStringSubmatch(body, -1)
		if len(matches) > 0 {
			return matches[len(matches)-1][1]
		}
	}
	return ""
}

// Browse API responses are well-formed JSON, so the token is resolved
// by walking the appended-items action list for the distinguished
// continuation item. Anything that fails to unmarshal is treated as
// token-less rather than as an error.

type browseResponseEnvelope struct {
	OnResponseReceivedActions []struct {
		AppendContinuationItemsAction *struct {
			ContinuationItems []continuationItem `json:"continuationItems"`
		} `json:"appendContinuationItemsAction"`
	} `json:"onResponseReceivedActions"`
}

type continuationItem struct {
	ContinuationItemRenderer *struct {
		ContinuationEndpoint *struct {
			ContinuationCommand *struct {
				Token string `json:"token"`
			} `json:"continuationCommand"`
		} `json:"continuationEndpoint"`
	} `json:"continuationItemRenderer"`
}

func apiResponseToken(body string) string {
	var envelope browseResponseEnvelope
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return ""
	}

	for _, action := range envelope.OnResponseReceivedActions {
		if action.AppendContinuationItemsAction == nil {
			continue
		}
		for _, item := range action.AppendContinuationItemsAction.ContinuationItems {
			if token := item.token(); token != "" {
				return token
			}
		}
	}
	return ""
}

func (i continuationItem) token() string {
	r := i.ContinuationItemRenderer
	if r == nil || r.ContinuationEndpoint == nil || r.ContinuationEndpoint.ContinuationCommand == nil {
		return ""
	}
	return r.ContinuationEndpoint.ContinuationCommand.Token
}
