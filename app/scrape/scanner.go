package scrape

import (
	"regexp"
)

// Every known wrapper shape for item fragments, in priority order. The
// initial page load emits videoRenderer blocks, while grid and compact
// variants show up in browse API responses and alternate layouts. Each
// fragment runs from the wrapper's opening brace to its trackingParams
// trailer, which is the last stable field across schema revisions.
var wrapperShapes = []*regexp.Regexp{
	regexp.MustCompile(`(?s)"videoRenderer":\{(.*?)"trackingParams"`),
	regexp.MustCompile(`(?s)"gridVideoRenderer":\{(.*?)"trackingParams"`),
	regexp.MustCompile(`(?s)"compactVideoRenderer":\{(.*?)"trackingParams"`),
}

// ScanForItems scans a raw document or response body for all fragments
// that look like item records and decodes each one. Records are
// deduplicated by video ID, first occurrence wins, and decode order is
// preserved. A body with no recognizable fragments yields an empty
// slice, never an error.
func ScanForItems(body string) []ItemRecord {
	seen := make(map[string]struct{})
	var records []ItemRecord

	for _, shape := range wrapperShapes {
		for _, m := range shape.FindAllStringSubmatch(body, -1) {
			record, ok := DecodeItem(m[1])
			if !ok {
				continue
			}
			if _, dup := seen[record.ID]; dup {
				continue
			}
			seen[record.ID] = struct{}{}
			records = append(records, *record)
		}
	}

	if records == nil {
		return []ItemRecord{}
	}
	return records
}
