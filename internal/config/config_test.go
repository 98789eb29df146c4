package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "DB_PATH", "PORT", "HALO_BASE_URL", "HALO_CLIENT_ID", "HALO_CLIENT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Env != "development" {
		t.Fatalf("Env = %q, want development", cfg.Env)
	}
	if cfg.DBPath != "./dev.db" {
		t.Fatalf("DBPath = %q, want ./dev.db", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Fatal("expected IsDev for default env")
	}
	if cfg.HaloEnabled() {
		t.Fatal("expected halo sync to be disabled without settings")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PATH", "/var/lib/mspquote/app.db")
	t.Setenv("PORT", "9090")
	t.Setenv("HALO_BASE_URL", "https://halo.example.com")
	t.Setenv("HALO_CLIENT_ID", "client")
	t.Setenv("HALO_CLIENT_SECRET", "secret")

	cfg := Load()

	if cfg.IsDev() {
		t.Fatal("expected production env not to be dev")
	}
	if cfg.DBPath != "/var/lib/mspquote/app.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if !cfg.HaloEnabled() {
		t.Fatal("expected halo sync to be enabled")
	}
}
