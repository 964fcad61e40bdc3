package enrich

import (
	"context"
	"strings"

	"golazo/internal/domain"
	"golazo/internal/ports"
)

// Enricher combines entity extraction, standings lookup and web search
// into the context blob handed to the rewrite prompt.
type Enricher struct {
	standings *StandingsClient
	search    *SearchChain
}

var _ ports.Enricher = (*Enricher)(nil)

// NewEnricher wires the standings client and search chain. Either may be
// nil; missing pieces simply produce an emptier enrichment.
func NewEnricher(standings *StandingsClient, search *SearchChain) *Enricher {
	return &Enricher{standings: standings, search: search}
}

// Enrich derives entities from the item text, fetches standings for the
// primary team's competition, and optionally runs the web-search chain.
// It never fails.
func (e *Enricher) Enrich(ctx context.Context, item domain.FeedItem, withSearch bool) domain.Enrichment {
	entities := ExtractEntities(item.Title + " " + item.Content)

	enrichment := domain.Enrichment{
		Entities:    entities.Teams,
		PrimaryTeam: entities.PrimaryTeam,
	}

	if e.standings != nil && entities.Competition != "" {
		enrichment.Standings = e.standings.CompetitionTable(ctx, entities.Competition)
	}

	if withSearch && e.search != nil {
		enrichment.SearchContext = e.search.Search(ctx, SearchQuery(item, entities))
	}

	return enrichment
}

// SearchQuery derives the query string sent to the search backends: the
// primary team plus the leading words of the title.
func SearchQuery(item domain.FeedItem, entities Entities) string {
	words := strings.Fields(item.Title)
	if len(words) > 8 {
		words = words[:8]
	}
	query := strings.Join(words, " ")
	if entities.PrimaryTeam != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(entities.PrimaryTeam)) {
		query = entities.PrimaryTeam + " " + query
	}
	return query
}
