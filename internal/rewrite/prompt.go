package rewrite

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golazo/internal/domain"
)

// TemporalContext buckets the distance between now and the publish time
// into the phrase the prompt uses. Future dates happen when a feed
// announces a scheduled match.
func TemporalContext(now, pubDate time.Time) string {
	if pubDate.IsZero() {
		return ""
	}
	if pubDate.After(now) {
		return "Evenimentul urmează să aibă loc."
	}

	nowDay := now.Truncate(24 * time.Hour)
	pubDay := pubDate.Truncate(24 * time.Hour)
	days := int(nowDay.Sub(pubDay).Hours() / 24)

	switch {
	case days <= 0:
		return "Știrea este de astăzi."
	case days == 1:
		return "Știrea este de ieri."
	default:
		return fmt.Sprintf("Știrea este de acum %d zile.", days)
	}
}

// sourceDomain extracts the host of the original URL for attribution.
func sourceDomain(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil || parsed.Host == "" {
		return "sursă necunoscută"
	}
	return strings.TrimPrefix(parsed.Host, "www.")
}

// BuildPrompt assembles the single large user message: the original
// article, temporal context, source attribution, enrichment text and the
// output-format instructions the parser expects.
func BuildPrompt(item domain.FeedItem, enrichment string, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Rescrie următoarea știre sportivă în limba română, ")
	sb.WriteString("cu un titlu nou și un conținut reformulat complet. ")
	sb.WriteString("Nu inventa fapte și nu adăuga comentarii despre sarcina ta.\n\n")

	fmt.Fprintf(&sb, "TITLU ORIGINAL: %s\n", item.Title)
	fmt.Fprintf(&sb, "CONȚINUT ORIGINAL:\n%s\n\n", item.Content)

	if tc := TemporalContext(now, item.PubDate); tc != "" {
		fmt.Fprintf(&sb, "%s\n", tc)
	}
	fmt.Fprintf(&sb, "Sursa originală: %s\n\n", sourceDomain(item.SourceURL))

	if strings.TrimSpace(enrichment) != "" {
		sb.WriteString("Context suplimentar:\n")
		sb.WriteString(enrichment)
		sb.WriteString("\n")
	}

	sb.WriteString("Răspunde EXACT în formatul:\n")
	sb.WriteString("TITLU: <titlul nou>\n")
	sb.WriteString("CONȚINUT: <conținutul rescris>\n")

	return sb.String()
}
