package enrich

import (
	"regexp"
	"strings"
)

// Static dictionaries of club names grouped by the competition code used
// by football-data.org. First dictionary hit decides the primary team.
var teamsByCompetition = map[string][]string{
	"PL": {
		"Arsenal", "Aston Villa", "Chelsea", "Everton", "Liverpool",
		"Manchester City", "Manchester United", "Newcastle", "Tottenham",
		"West Ham",
	},
	"PD": {
		"Atletico Madrid", "Athletic Bilbao", "Barcelona", "Real Betis",
		"Real Madrid", "Real Sociedad", "Sevilla", "Valencia", "Villarreal",
	},
	"SA": {
		"AC Milan", "Atalanta", "Fiorentina", "Inter", "Juventus", "Lazio",
		"Napoli", "Roma", "Torino",
	},
	"BL1": {
		"Bayer Leverkusen", "Bayern Munchen", "Borussia Dortmund",
		"Eintracht Frankfurt", "RB Leipzig", "Stuttgart", "Wolfsburg",
	},
	"FL1": {
		"Lille", "Lyon", "Marseille", "Monaco", "Nice", "PSG",
		"Paris Saint-Germain",
	},
}

// Acronyms commonly used in headlines that the capitalization heuristic
// would otherwise miss or mangle.
var knownAcronyms = map[string]bool{
	"PSG": true, "FCSB": true, "CFR": true, "CSU": true,
	"UEFA": true, "FIFA": true,
}

// Words that look like names in headline-cased text but never are.
var entityStopwords = map[string]bool{
	"Acum": true, "After": true, "Astăzi": true, "Breaking": true,
	"Champions": true, "Cupa": true, "Derby": true, "Europa": true,
	"League": true, "Liga": true, "Live": true, "Meciul": true, "News": true,
	"OFICIAL": true, "Oficial": true, "The": true, "Video": true, "VIDEO": true,
}

type teamPattern struct {
	team    string
	code    string
	pattern *regexp.Regexp
}

// Compiled once; word-boundary match per dictionary entry.
var teamPatterns = buildTeamPatterns()

func buildTeamPatterns() []teamPattern {
	codes := []string{"PL", "PD", "SA", "BL1", "FL1"}
	var patterns []teamPattern
	for _, code := range codes {
		for _, team := range teamsByCompetition[code] {
			patterns = append(patterns, teamPattern{
				team:    team,
				code:    code,
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(team) + `\b`),
			})
		}
	}
	return patterns
}

var capitalizedSeq = regexp.MustCompile(`\b[A-ZĂÂÎȘȚ][a-zăâîșț]+(?:[ -][A-ZĂÂÎȘȚ][a-zăâîșț]+){0,2}\b`)
var acronymSeq = regexp.MustCompile(`\b[A-Z]{2,5}\b`)

// Entities is the extraction result for one text.
type Entities struct {
	Teams       []string
	PrimaryTeam string
	Competition string
}

// ExtractEntities finds likely team names in text. Dictionary matches are
// authoritative; capitalized 1-3 word runs and known acronyms are added
// as heuristic candidates after stopword filtering.
func ExtractEntities(text string) Entities {
	var result Entities
	seen := map[string]struct{}{}

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		result.Teams = append(result.Teams, name)
	}

	for _, tp := range teamPatterns {
		if tp.pattern.MatchString(text) {
			add(tp.team)
			if result.PrimaryTeam == "" {
				result.PrimaryTeam = tp.team
				result.Competition = tp.code
			}
		}
	}

	for _, candidate := range capitalizedSeq.FindAllString(text, -1) {
		first := strings.SplitN(candidate, " ", 2)[0]
		if entityStopwords[candidate] || entityStopwords[first] {
			continue
		}
		add(candidate)
	}

	for _, acronym := range acronymSeq.FindAllString(text, -1) {
		if knownAcronyms[acronym] {
			add(acronym)
		}
	}

	if result.PrimaryTeam == "" && len(result.Teams) > 0 {
		result.PrimaryTeam = result.Teams[0]
	}

	return result
}
