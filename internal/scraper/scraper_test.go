package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html><head><title>Gol în prelungiri</title></head>
<body>
<article>
<h1>Gol în prelungiri</h1>
<p>Echipa gazdă a marcat golul victoriei în minutul 94, după o fază fixă executată perfect.</p>
<p>Antrenorul a declarat la final că victoria este meritată și că echipa a controlat jocul.</p>
<p>ok</p>
</article>
</body></html>`

func newPageServer(t *testing.T, robots string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, robots)
	})
	mux.HandleFunc("/articol", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFullTextExtractsBody(t *testing.T) {
	t.Parallel()

	server := newPageServer(t, "User-agent: *\nAllow: /\n")
	s := New(server.Client(), nil)

	got, err := s.FullText(context.Background(), server.URL+"/articol")
	if err != nil {
		t.Fatalf("FullText: %v", err)
	}
	if !strings.Contains(got, "golul victoriei în minutul 94") {
		t.Fatalf("body text missing: %q", got)
	}
	if !strings.Contains(got, "victoria este meritată") {
		t.Fatalf("second paragraph missing: %q", got)
	}
}

func TestFullTextHonorsRobotsDisallow(t *testing.T) {
	t.Parallel()

	server := newPageServer(t, "User-agent: *\nDisallow: /articol\n")
	s := New(server.Client(), nil)

	_, err := s.FullText(context.Background(), server.URL+"/articol")
	if err == nil || !strings.Contains(err.Error(), "robots.txt") {
		t.Fatalf("expected robots denial, got %v", err)
	}
}

func TestFullTextAllowsWhenRobotsUnreachable(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/articol", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := New(server.Client(), nil)
	got, err := s.FullText(context.Background(), server.URL+"/articol")
	if err != nil {
		t.Fatalf("FullText: %v", err)
	}
	if got == "" {
		t.Fatalf("expected extracted text")
	}
}

func TestFullTextCachesRobotsVerdict(t *testing.T) {
	t.Parallel()

	robotsHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		robotsHits++
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	mux.HandleFunc("/articol", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articlePage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := New(server.Client(), nil)
	for i := 0; i < 3; i++ {
		if _, err := s.FullText(context.Background(), server.URL+"/articol"); err != nil {
			t.Fatalf("FullText #%d: %v", i, err)
		}
	}
	if robotsHits != 1 {
		t.Fatalf("expected a single robots.txt fetch, got %d", robotsHits)
	}
}

func TestFullTextNoContent(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /\n")
	})
	mux.HandleFunc("/gol", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body></body></html>")
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := New(server.Client(), nil)
	if _, err := s.FullText(context.Background(), server.URL+"/gol"); err == nil {
		t.Fatalf("expected error for page without readable content")
	}
}
