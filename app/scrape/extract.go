package scrape

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// The embedding page wraps its data in non-well-formed JSON fragments,
// so labelled text fields are pulled out with patterns rather than a
// full parser. Two encodings are recognized:
//
//	"<field>":{"simpleText":"<value>"}
//	"<field>":{"runs":[{"text":"<value>"},...]}
//
// For the runs encoding only the first segment is taken; multi-segment
// concatenation is a documented simplification, not an oversight.

type fieldPatterns struct {
	simple *regexp.Regexp
	runs   *regexp.Regexp
}

var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]fieldPatterns)
)

func patternsFor(field string) fieldPatterns {
	patternMu.RLock()
	p, ok := patternCache[field]
	patternMu.RUnlock()
	if ok {
		return p
	}

	quoted := regexp.QuoteMeta(field)
	p = fieldPatterns{
		simple: regexp.MustCompile(`"` + quoted + `":\{"simpleText":"([^"]+)"`),
		runs:   regexp.MustCompile(`"` + quoted + `":\{"runs":\[\{"text":"([^"]+)"`),
	}

	patternMu.Lock()
	patternCache[field] = p
	patternMu.Unlock()
	return p
}

// ExtractLabelledText pulls the raw value of a labelled text field out
// of a fragment. It returns the captured text still carrying its source
// escape sequences; callers decode it with DecodeText. An empty string
// means neither known encoding matched.
func ExtractLabelledText(fragment, field string) string {
	p := patternsFor(field)

	if m := p.simple.FindStringSubmatch(fragment); m != nil {
		return m[1]
	}
	if m := p.runs.FindStringSubmatch(fragment); m != nil {
		return m[1]
	}
	return ""
}

var unicodeEscapeRe = regexp.MustCompile(`\\u([0-9a-fA-F]{4})`)

// DecodeText decodes JSON string escape sequences in captured text.
// It first attempts a string-literal decode of the raw capture; if that
// fails it substitutes unicode code-point, newline and tab escapes by
// hand and leaves everything else untouched. It never fails: worst case
// the input comes back with only the substitutions that were safe.
func DecodeText(raw string) string {
	if raw == "" {
		return raw
	}

	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err == nil {
		return decoded
	}

	out := unicodeEscapeRe.ReplaceAllStringFunc(raw, func(m string) string {
		code, err := strconv.ParseUint(m[2:], 16, 32)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
	out = strings.ReplaceAll(out, `\n`, "\n")
	out = strings.ReplaceAll(out, `\t`, "\t")
	return out
}
