package rewrite

import (
	"context"
	"fmt"
	"time"

	"golazo/internal/domain"
	"golazo/internal/ports"
)

// Generator produces a rewritten article from an item and its enrichment.
type Generator struct {
	client *ChatClient
	now    func() time.Time
}

var _ ports.RewriteGenerator = (*Generator)(nil)

// NewGenerator wraps a chat client.
func NewGenerator(client *ChatClient) *Generator {
	return &Generator{client: client, now: time.Now}
}

// Generate builds the prompt, calls the completion backend and extracts
// the title/content pair. A failed external call propagates; the caller
// decides per-item what to drop.
func (g *Generator) Generate(ctx context.Context, item domain.FeedItem, enrichment string) (domain.Rewrite, error) {
	prompt := BuildPrompt(item, enrichment, g.now())

	raw, err := g.client.Complete(ctx, prompt)
	if err != nil {
		return domain.Rewrite{}, fmt.Errorf("chat completion: %w", err)
	}

	return Parse(raw, item.Title), nil
}
