package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("DEFAULT_PAGE_LIMIT", "")
	t.Setenv("SEARCH_INDEX_PATH", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.DefaultPageLimit != 50 {
		t.Fatalf("expected page limit 50, got %d", cfg.DefaultPageLimit)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev-like config")
	}
	if cfg.SearchIndexPath != "" {
		t.Fatalf("expected in-memory search index by default, got %q", cfg.SearchIndexPath)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	t.Setenv("ENV", "Prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("DEFAULT_PAGE_LIMIT", "-3")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ObjectStoreType)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSAllowOrigin)
	}
	if cfg.DefaultPageLimit != 50 {
		t.Fatalf("invalid limit should fall back, got %d", cfg.DefaultPageLimit)
	}
}

func TestLoadEnvFilesDoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ANNOTATION_TEST_KEY=fromfile\nANNOTATION_TEST_OTHER=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ANNOTATION_TEST_KEY", "fromenv")
	t.Setenv("ANNOTATION_TEST_OTHER", "")
	os.Unsetenv("ANNOTATION_TEST_OTHER")

	loadEnvFiles(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("ANNOTATION_TEST_KEY"); got != "fromenv" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
	if got := os.Getenv("ANNOTATION_TEST_OTHER"); got != "quoted" {
		t.Fatalf("expected quoted value from file, got %q", got)
	}
}

func TestBoolEnv(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "1": true, " YES ": true, "on": true, "false": false, "": false, "nope": false} {
		t.Setenv("MIGRATE_ON_COLD_START", raw)
		if got := BoolEnv("MIGRATE_ON_COLD_START"); got != want {
			t.Fatalf("BoolEnv(%q) = %v, want %v", raw, got, want)
		}
	}
}
