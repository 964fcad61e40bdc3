package rewrite

import (
	"strings"
	"testing"
)

func TestParseMarkers(t *testing.T) {
	t.Parallel()

	rw := Parse("TITLU: X\nCONȚINUT: Y", "original")
	if rw.Title != "X" {
		t.Fatalf("unexpected title: %q", rw.Title)
	}
	if rw.Content != "Y" {
		t.Fatalf("unexpected content: %q", rw.Content)
	}
}

func TestParseMarkersDecorated(t *testing.T) {
	t.Parallel()

	raw := "=== TITLU ===\nVictorie mare\n\n=== CONȚINUT ===\nEchipa a câștigat meciul."
	rw := Parse(raw, "original")
	if rw.Title != "Victorie mare" {
		t.Fatalf("unexpected title: %q", rw.Title)
	}
	if rw.Content != "Echipa a câștigat meciul." {
		t.Fatalf("unexpected content: %q", rw.Content)
	}
}

func TestParseMarkersWithoutDiacritics(t *testing.T) {
	t.Parallel()

	rw := Parse("TITLU: A\nCONTINUT: B", "original")
	if rw.Title != "A" || rw.Content != "B" {
		t.Fatalf("unexpected result: %+v", rw)
	}
}

func TestParseEmbeddedJSON(t *testing.T) {
	t.Parallel()

	raw := `Here is your article: {"title":"A","content":"B"} hope it helps`
	rw := Parse(raw, "original")
	if rw.Title != "A" {
		t.Fatalf("unexpected title: %q", rw.Title)
	}
	if rw.Content != "B" {
		t.Fatalf("unexpected content: %q", rw.Content)
	}
}

func TestParseJSONInCodeFence(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"title\":\"A\",\"content\":\"B\"}\n```"
	rw := Parse(raw, "original")
	if rw.Title != "A" || rw.Content != "B" {
		t.Fatalf("unexpected result: %+v", rw)
	}
}

func TestParseJSONTrailingComma(t *testing.T) {
	t.Parallel()

	raw := `{"title":"A","content":"B",}`
	rw := Parse(raw, "original")
	if rw.Title != "A" || rw.Content != "B" {
		t.Fatalf("unexpected result: %+v", rw)
	}
}

func TestParseKeyValueScrape(t *testing.T) {
	t.Parallel()

	// broken JSON that no cleanup round can fix, but the pairs are there
	raw := `result = "title": "A" oops "content": "B" trailing garbage {{`
	rw := Parse(raw, "original")
	if rw.Title != "A" || rw.Content != "B" {
		t.Fatalf("unexpected result: %+v", rw)
	}
}

func TestParseFallbackRawText(t *testing.T) {
	t.Parallel()

	raw := "Echipa a câștigat aseară cu 3-0 în fața rivalilor."
	rw := Parse(raw, "Meci important")
	if rw.Title != "Meci important (regenerated)" {
		t.Fatalf("unexpected title: %q", rw.Title)
	}
	if rw.Content != raw {
		t.Fatalf("unexpected content: %q", rw.Content)
	}
}

func TestParseStripsMarkdownEmphasis(t *testing.T) {
	t.Parallel()

	rw := Parse("TITLU: **Victorie** mare\nCONȚINUT: Un meci *foarte* bun.", "original")
	if rw.Title != "Victorie mare" {
		t.Fatalf("emphasis not stripped from title: %q", rw.Title)
	}
	if rw.Content != "Un meci foarte bun." {
		t.Fatalf("emphasis not stripped from content: %q", rw.Content)
	}
}

func TestParseStripsMetaCommentary(t *testing.T) {
	t.Parallel()

	raw := "TITLU: Victorie\nCONȚINUT: Iată articolul rescris conform cerințelor:\nEchipa a câștigat."
	rw := Parse(raw, "original")
	if strings.Contains(rw.Content, "Iată articolul") {
		t.Fatalf("meta commentary survived: %q", rw.Content)
	}
	if !strings.Contains(rw.Content, "Echipa a câștigat.") {
		t.Fatalf("real content lost: %q", rw.Content)
	}
}
