package translate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"golazo/internal/config"
	"golazo/internal/ports"
)

// Client calls an external machine-translation endpoint. Translation is
// strictly best-effort: any failure returns the input text unchanged.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

var _ ports.Translator = (*Client)(nil)

// NewClient builds a translator from configuration.
func NewClient(cfg config.TranslateConfig, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// Translate converts text into targetLang. Text already detected as the
// target language is returned as-is without a network call.
func (c *Client) Translate(ctx context.Context, text, targetLang string) string {
	if strings.TrimSpace(text) == "" || c.endpoint == "" {
		return text
	}

	if detectedLang(text) == targetLang {
		return text
	}

	translated, err := c.request(ctx, text, targetLang)
	if err != nil {
		c.warn("translation failed, keeping original", "error", err)
		return text
	}
	if strings.TrimSpace(translated) == "" {
		return text
	}
	return translated
}

// request POSTs the text as form data. Article bodies run to several
// kilobytes, well past what intermediaries accept in a URL, so only the
// routing parameters travel in the query string.
func (c *Client) request(ctx context.Context, text, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	form := url.Values{}
	form.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"?"+params.Encode(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errStatus(resp.Status)
	}

	// Response shape: [[[ "translated", "original", ... ], ...], ...]
	var payload []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if len(payload) == 0 {
		return "", errEmptyResponse
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var piece string
		if err := json.Unmarshal(seg[0], &piece); err != nil {
			continue
		}
		sb.WriteString(piece)
	}
	return sb.String(), nil
}

func detectedLang(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

func (c *Client) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

type errStatus string

func (e errStatus) Error() string { return "unexpected status " + string(e) }

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const errEmptyResponse = sentinelError("empty translation response")
