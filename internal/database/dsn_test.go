package database

import (
	"strings"
	"testing"
)

func TestBuildPostgresDSNDefaults(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User: "intake",
		Name: "caseintake",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	expected := "host=localhost port=5432 user=intake dbname=caseintake sslmode=disable"
	if dsn != expected {
		t.Fatalf("expected %q, got %q", expected, dsn)
	}
}

func TestBuildPostgresDSNWithOptions(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{
		User:     "user",
		Name:     "db",
		Host:     "db.example.com",
		Port:     6543,
		Password: "pass",
		Options: map[string]string{
			"sslmode":     "require",
			"search_path": "intake",
		},
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !containsAll(dsn, "host=db.example.com", "port=6543", "password=pass", "sslmode=require", "search_path=intake") {
		t.Fatalf("dsn missing expected components: %q", dsn)
	}
	if strings.Contains(dsn, "sslmode=disable") {
		t.Fatalf("expected sslmode override, got %q", dsn)
	}
}

func TestBuildDSNOverride(t *testing.T) {
	cfg := Config{DSN: "postgres://u:p@h/db"}
	if dsn, _ := buildPostgresDSN(cfg); dsn != cfg.DSN {
		t.Fatalf("expected override, got %q", dsn)
	}
	if dsn, _ := buildMySQLDSN(cfg); dsn != cfg.DSN {
		t.Fatalf("expected override, got %q", dsn)
	}
}

func TestBuildPostgresDSNRequiresUserAndName(t *testing.T) {
	if _, err := buildPostgresDSN(Config{}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestBuildMySQLDSNDefaults(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User: "intake",
		Name: "caseintake",
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	expected := "intake@tcp(127.0.0.1:3306)/caseintake?charset=utf8mb4&loc=UTC&parseTime=True"
	if dsn != expected {
		t.Fatalf("expected %q, got %q", expected, dsn)
	}
}

func TestBuildMySQLDSNWithOptions(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "user",
		Password: "secret",
		Name:     "db",
		Host:     "db.example.com",
		Port:     3307,
		Options: map[string]string{
			"tls": "skip-verify",
		},
	})
	if err != nil {
		t.Fatalf("build dsn: %v", err)
	}

	if !containsAll(dsn, "user:secret@tcp(db.example.com:3307)/db?", "charset=utf8mb4", "parseTime=True", "tls=skip-verify") {
		t.Fatalf("dsn missing expected components: %q", dsn)
	}
}

func TestBuildMySQLDSNRequiresUserAndName(t *testing.T) {
	if _, err := buildMySQLDSN(Config{Host: "localhost"}); err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func containsAll(value string, parts ...string) bool {
	for _, part := range parts {
		if !strings.Contains(value, part) {
			return false
		}
	}
	return true
}
