package storage

import (
	"strings"
	"testing"

	"golazo/internal/config"
)

func TestBuildDSNPassthrough(t *testing.T) {
	t.Parallel()

	cfg := config.DatabaseConfig{URL: "postgres://u:p@db:5432/news?sslmode=disable"}
	got, err := buildDSN(cfg)
	if err != nil {
		t.Fatalf("buildDSN: %v", err)
	}
	if got != cfg.URL {
		t.Fatalf("url changed without TLS options: %q", got)
	}
}

func TestBuildDSNPinnedCA(t *testing.T) {
	t.Parallel()

	got, err := buildDSN(config.DatabaseConfig{
		URL:        "postgres://u:p@db:5432/news",
		CACertPath: "/etc/ssl/pg-ca.pem",
	})
	if err != nil {
		t.Fatalf("buildDSN: %v", err)
	}
	if !strings.Contains(got, "sslrootcert=%2Fetc%2Fssl%2Fpg-ca.pem") {
		t.Fatalf("sslrootcert missing: %q", got)
	}
	if !strings.Contains(got, "sslmode=verify-full") {
		t.Fatalf("pinned CA must default to verify-full: %q", got)
	}
}

func TestBuildDSNPinnedCAKeepsExplicitMode(t *testing.T) {
	t.Parallel()

	got, err := buildDSN(config.DatabaseConfig{
		URL:        "postgres://u:p@db:5432/news?sslmode=verify-ca",
		CACertPath: "/etc/ssl/pg-ca.pem",
	})
	if err != nil {
		t.Fatalf("buildDSN: %v", err)
	}
	if !strings.Contains(got, "sslmode=verify-ca") {
		t.Fatalf("explicit sslmode dropped: %q", got)
	}
}

func TestBuildDSNInsecure(t *testing.T) {
	t.Parallel()

	got, err := buildDSN(config.DatabaseConfig{
		URL:         "postgres://u:p@db:5432/news?sslmode=verify-full",
		SSLInsecure: true,
	})
	if err != nil {
		t.Fatalf("buildDSN: %v", err)
	}
	if !strings.Contains(got, "sslmode=require") {
		t.Fatalf("insecure flag must force sslmode=require: %q", got)
	}
}

func TestBuildDSNRejectsOpaqueURL(t *testing.T) {
	t.Parallel()

	_, err := buildDSN(config.DatabaseConfig{
		URL:        "host=db user=u dbname=news",
		CACertPath: "/etc/ssl/pg-ca.pem",
	})
	if err == nil {
		t.Fatalf("expected error for non-URL connection string with TLS options")
	}
}
