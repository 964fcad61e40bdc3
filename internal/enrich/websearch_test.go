package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubProvider struct {
	id     string
	text   string
	err    error
	called bool
}

func (p *stubProvider) name() string { return p.id }

func (p *stubProvider) search(ctx context.Context, query string) (string, error) {
	p.called = true
	return p.text, p.err
}

func TestSearchChainFallsThroughOnError(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{id: "primary", err: errors.New("quota exceeded")}
	secondary := &stubProvider{id: "secondary", text: "- Rezultat: ceva util\n"}
	chain := &SearchChain{providers: []searchProvider{primary, secondary}}

	got := chain.Search(context.Background(), "derby")
	if got != secondary.text {
		t.Fatalf("unexpected result: %q", got)
	}
	if !primary.called || !secondary.called {
		t.Fatalf("providers not tried in order: primary=%v secondary=%v", primary.called, secondary.called)
	}
}

func TestSearchChainSkipsEmptyResults(t *testing.T) {
	t.Parallel()

	empty := &stubProvider{id: "empty", text: "   \n"}
	filled := &stubProvider{id: "filled", text: "context"}
	chain := &SearchChain{providers: []searchProvider{empty, filled}}

	if got := chain.Search(context.Background(), "q"); got != "context" {
		t.Fatalf("expected fallthrough past blank result, got %q", got)
	}
}

func TestSearchChainUnavailableWhenAllFail(t *testing.T) {
	t.Parallel()

	chain := &SearchChain{providers: []searchProvider{
		&stubProvider{id: "a", err: errors.New("down")},
		&stubProvider{id: "b", err: errors.New("down")},
	}}

	if got := chain.Search(context.Background(), "q"); got != searchUnavailable {
		t.Fatalf("expected filler text, got %q", got)
	}
}

func TestGoogleProviderFormatsItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cx") != "engine-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"items":[{"title":"Transfer","snippet":"detalii","link":"https://example.com/a"}]}`)
	}))
	t.Cleanup(server.Close)

	provider := &googleProvider{
		apiKey:   "k",
		engineID: "engine-1",
		endpoint: server.URL,
		http:     server.Client(),
	}

	got, err := provider.search(context.Background(), "transfer")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := "- Transfer: detalii (https://example.com/a)\n"
	if got != want {
		t.Fatalf("unexpected formatting: %q", got)
	}
}

func TestWikipediaProviderExtractsParagraphs(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `["q",["Dinamo"],[""],["%s/wiki/Dinamo"]]`, server.URL)
	})
	mux.HandleFunc("/wiki/Dinamo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="mw-content-text">
			<p>Primul paragraf.</p>
			<p>Al doilea paragraf.</p>
			<p>Al treilea paragraf.</p>
			<p>Al patrulea paragraf.</p>
		</div></body></html>`)
	})

	provider := &wikipediaProvider{apiBase: server.URL + "/w/api.php", http: server.Client()}

	got, err := provider.search(context.Background(), "Dinamo")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.HasPrefix(got, "Context (Wikipedia):") {
		t.Fatalf("missing context header: %q", got)
	}
	if !strings.Contains(got, "Primul paragraf.") || !strings.Contains(got, "Al treilea paragraf.") {
		t.Fatalf("expected first three paragraphs, got %q", got)
	}
	if strings.Contains(got, "Al patrulea paragraf.") {
		t.Fatalf("extracted more than three paragraphs: %q", got)
	}
}

func TestWikipediaProviderNoResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `["q",[],[],[]]`)
	}))
	t.Cleanup(server.Close)

	provider := &wikipediaProvider{apiBase: server.URL, http: server.Client()}

	got, err := provider.search(context.Background(), "nimic")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}
