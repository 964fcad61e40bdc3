package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"golazo/internal/config"
)

// StandingsClient fetches competition tables from football-data.org.
// Responses are cached per URL and outbound calls are spaced to respect
// the free-tier rate limit; callers block on the limiter with their ctx.
type StandingsClient struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *TTLCache
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewStandingsClient wires the client from configuration. The cache is
// injected so tests can observe and reset it.
func NewStandingsClient(cfg config.StandingsConfig, cache *TTLCache, logger *slog.Logger) *StandingsClient {
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = 6 * time.Second
	}
	return &StandingsClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger,
	}
}

type standingsResponse struct {
	Competition struct {
		Name string `json:"name"`
	} `json:"competition"`
	Standings []struct {
		Type  string `json:"type"`
		Table []struct {
			Position int `json:"position"`
			Team     struct {
				Name string `json:"name"`
			} `json:"team"`
			PlayedGames int `json:"playedGames"`
			Points      int `json:"points"`
		} `json:"table"`
	} `json:"standings"`
}

// CompetitionTable returns a formatted standings blurb for a competition
// code, or "" when the lookup fails or no token is configured.
func (s *StandingsClient) CompetitionTable(ctx context.Context, code string) string {
	if s.token == "" || code == "" {
		return ""
	}

	reqURL := fmt.Sprintf("%s/competitions/%s/standings", s.baseURL, code)
	if s.cache != nil {
		if cached, ok := s.cache.Get(reqURL); ok {
			return cached
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return ""
	}

	formatted, err := s.fetch(ctx, reqURL)
	if err != nil {
		s.warn("standings lookup failed", "competition", code, "error", err)
		return ""
	}

	if s.cache != nil {
		s.cache.Set(reqURL, formatted)
	}
	return formatted
}

func (s *StandingsClient) fetch(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-Auth-Token", s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("football-data returned %s", resp.Status)
	}

	var payload standingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode standings: %w", err)
	}

	return formatStandings(payload), nil
}

func formatStandings(payload standingsResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Clasament %s:\n", payload.Competition.Name)

	for _, block := range payload.Standings {
		if block.Type != "TOTAL" {
			continue
		}
		for _, row := range block.Table {
			if row.Position > 6 {
				break
			}
			fmt.Fprintf(&sb, "%d. %s - %d puncte (%d meciuri)\n",
				row.Position, row.Team.Name, row.Points, row.PlayedGames)
		}
	}
	return strings.TrimSpace(sb.String())
}

func (s *StandingsClient) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
