package rewrite

import (
	"encoding/json"
	"regexp"
	"strings"

	"golazo/internal/domain"
)

// The model is asked for a fixed TITLU:/CONȚINUT: format but routinely
// deviates, so extraction is layered: explicit markers, then an embedded
// JSON object with progressive cleanup, then bare key/value regexes, and
// finally the raw text under a decorated title. Every tier is kept even
// where it looks redundant; production responses exercise all of them.

var markerExpr = regexp.MustCompile(`(?s)(?:===\s*)?TITLU(?:\s*===)?\s*:?\s*(.+?)\n+\s*(?:===\s*)?CON[ȚT]INUT(?:\s*===)?\s*:?\s*(.+)\z`)

var jsonObjectExpr = regexp.MustCompile(`(?s)\{.*\}`)

var titleKVExpr = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
var contentKVExpr = regexp.MustCompile(`(?s)"content"\s*:\s*"((?:[^"\\]|\\.)*)"`)

var emphasisExpr = regexp.MustCompile(`(\*\*|__|\*|_)`)
var codeFenceExpr = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
var trailingCommaExpr = regexp.MustCompile(`,\s*}`)
var controlCharExpr = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)

// Opening lines where the model narrates its own plan instead of writing
// the article. Matched case-insensitively at line starts and dropped.
var metaCommentaryExpr = regexp.MustCompile(`(?im)^(?:` +
	`iată (?:articolul|titlul|varianta|o variantă)[^\n]*|` +
	`sigur[,!][^\n]*|` +
	`here(?:'s| is) (?:the|a)[^\n]*rewrit[^\n]*|` +
	`am rescris[^\n]*|` +
	`sper că[^\n]*` +
	`)\n?`)

// Parse extracts a title/content pair from the raw model response.
// originalTitle seeds the last-resort fallback.
func Parse(raw, originalTitle string) domain.Rewrite {
	if rw, ok := parseMarkers(raw); ok {
		return clean(rw)
	}
	if rw, ok := parseJSON(raw); ok {
		return clean(rw)
	}
	if rw, ok := parseKeyValues(raw); ok {
		return clean(rw)
	}

	return clean(domain.Rewrite{
		Title:   originalTitle + " (regenerated)",
		Content: raw,
	})
}

func parseMarkers(raw string) (domain.Rewrite, bool) {
	m := markerExpr.FindStringSubmatch(raw)
	if m == nil {
		return domain.Rewrite{}, false
	}
	title := strings.TrimSpace(m[1])
	content := strings.TrimSpace(m[2])
	if title == "" || content == "" {
		return domain.Rewrite{}, false
	}
	return domain.Rewrite{Title: title, Content: content}, true
}

// parseJSON pulls the first {...} block and tries to unmarshal it, with
// increasingly aggressive cleanup between attempts.
func parseJSON(raw string) (domain.Rewrite, bool) {
	candidate := raw
	if m := codeFenceExpr.FindStringSubmatch(raw); m != nil {
		candidate = m[1]
	}

	block := jsonObjectExpr.FindString(candidate)
	if block == "" {
		return domain.Rewrite{}, false
	}

	cleanups := []func(string) string{
		func(s string) string { return s },
		func(s string) string { return controlCharExpr.ReplaceAllString(s, "") },
		func(s string) string {
			s = trailingCommaExpr.ReplaceAllString(s, "}")
			s = strings.NewReplacer("“", `"`, "”", `"`, "„", `"`).Replace(s)
			return s
		},
	}

	for _, cleanup := range cleanups {
		var parsed struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(cleanup(block)), &parsed); err != nil {
			continue
		}
		if parsed.Title != "" && parsed.Content != "" {
			return domain.Rewrite{Title: parsed.Title, Content: parsed.Content}, true
		}
	}

	return domain.Rewrite{}, false
}

// parseKeyValues scrapes "title"/"content" pairs out of text that never
// formed a valid JSON object.
func parseKeyValues(raw string) (domain.Rewrite, bool) {
	tm := titleKVExpr.FindStringSubmatch(raw)
	cm := contentKVExpr.FindStringSubmatch(raw)
	if tm == nil || cm == nil {
		return domain.Rewrite{}, false
	}

	title := unescapeJSONString(tm[1])
	content := unescapeJSONString(cm[1])
	if title == "" || content == "" {
		return domain.Rewrite{}, false
	}
	return domain.Rewrite{Title: title, Content: content}, true
}

func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// clean runs the shared post-processing pass: markdown emphasis, stray
// JSON punctuation and meta-commentary lines are stripped from both parts.
func clean(rw domain.Rewrite) domain.Rewrite {
	rw.Title = cleanText(rw.Title)
	rw.Content = cleanText(rw.Content)
	return rw
}

func cleanText(s string) string {
	s = metaCommentaryExpr.ReplaceAllString(s, "")
	s = emphasisExpr.ReplaceAllString(s, "")
	s = strings.Trim(s, "{}\"`,")
	return strings.TrimSpace(s)
}
